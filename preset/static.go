package preset

// staticTable is the compiled-in fallback catalog, served whenever the
// remote sources are unavailable or have not been fetched yet. Immutable at
// runtime; accessors hand out copies.
var staticTable = CategoryMap{
	TypeMockup: {
		{ID: "tshirt", Type: TypeMockup, Name: "T-Shirt", Prompt: "the design printed on the chest of a folded cotton t-shirt", AspectRatio: "1:1"},
		{ID: "cap", Type: TypeMockup, Name: "Cap", Prompt: "the design embroidered on the front panel of a baseball cap", AspectRatio: "1:1"},
		{ID: "mug", Type: TypeMockup, Name: "Mug", Prompt: "the design wrapped around a ceramic coffee mug on a desk", AspectRatio: "4:3"},
		{ID: "tote", Type: TypeMockup, Name: "Tote Bag", Prompt: "the design screen-printed on a canvas tote bag hanging on a hook", AspectRatio: "3:4"},
		{ID: "billboard", Type: TypeMockup, Name: "Billboard", Prompt: "the design on a large roadside billboard at dusk", AspectRatio: "16:9"},
		{ID: "phone-case", Type: TypeMockup, Name: "Phone Case", Prompt: "the design printed on a matte phone case held in one hand", AspectRatio: "9:16"},
	},
	TypeAngle: {
		{ID: "front", Type: TypeAngle, Name: "Front", Prompt: "shot straight on from the front"},
		{ID: "three-quarter", Type: TypeAngle, Name: "Three-Quarter", Prompt: "shot from a three-quarter angle, slightly above eye level"},
		{ID: "top-down", Type: TypeAngle, Name: "Top-Down", Prompt: "flat lay, shot directly from above"},
	},
	TypeTexture: {
		{ID: "cotton", Type: TypeTexture, Name: "Cotton", Prompt: "soft ribbed cotton fabric with visible weave"},
		{ID: "ceramic", Type: TypeTexture, Name: "Ceramic", Prompt: "smooth glazed ceramic with subtle reflections"},
		{ID: "matte", Type: TypeTexture, Name: "Matte", Prompt: "matte non-reflective surface"},
	},
	TypeAmbience: {
		{ID: "studio", Type: TypeAmbience, Name: "Studio", Prompt: "clean studio backdrop, seamless paper"},
		{ID: "golden-hour", Type: TypeAmbience, Name: "Golden Hour", Prompt: "outdoor scene in warm golden-hour light"},
		{ID: "minimal", Type: TypeAmbience, Name: "Minimal", Prompt: "minimal concrete surface with a single soft shadow"},
	},
	TypeLuminance: {
		{ID: "soft", Type: TypeLuminance, Name: "Soft", Prompt: "diffuse soft lighting, no harsh shadows"},
		{ID: "dramatic", Type: TypeLuminance, Name: "Dramatic", Prompt: "single hard key light, deep shadows"},
		{ID: "bright", Type: TypeLuminance, Name: "Bright", Prompt: "bright high-key lighting, airy feel"},
	},
}

// StaticMap returns a fresh copy of the compiled-in table as a CategoryMap.
func StaticMap() CategoryMap {
	m := make(CategoryMap, len(Types))
	for _, t := range Types {
		m[t] = append([]Preset(nil), staticTable[t]...)
	}
	return m
}

// StaticPresets returns the compiled-in presets as a flat list in category
// order, tagged with SourceStatic.
func StaticPresets() []Preset {
	var out []Preset
	for _, t := range Types {
		for _, p := range staticTable[t] {
			p.Source = SourceStatic
			out = append(out, p)
		}
	}
	return out
}
