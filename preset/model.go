package preset

import "errors"

// Type is the category namespace a preset belongs to. A preset ID is only
// unique within its type.
type Type string

const (
	TypeMockup    Type = "mockup"
	TypeAngle     Type = "angle"
	TypeTexture   Type = "texture"
	TypeAmbience  Type = "ambience"
	TypeLuminance Type = "luminance"
)

// Types lists every category in the fixed order used for merging and for
// iterating category maps.
var Types = []Type{TypeMockup, TypeAngle, TypeTexture, TypeAmbience, TypeLuminance}

// ValidType reports whether t is a known category.
func ValidType(t Type) bool {
	for _, k := range Types {
		if k == t {
			return true
		}
	}
	return false
}

// Source identifies where a preset record came from. Official beats
// community beats static when two sources carry the same (type, id) pair.
type Source string

const (
	SourceOfficial  Source = "official"
	SourceCommunity Source = "community"
	SourceStatic    Source = "static"
)

// Preset is a reusable mockup-generation configuration.
type Preset struct {
	ID                string `json:"id"`
	Type              Type   `json:"presetType"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	Prompt            string `json:"prompt"`
	ReferenceImageURL string `json:"referenceImageUrl"`
	AspectRatio       string `json:"aspectRatio,omitempty"`
	Source            Source `json:"source,omitempty"`
}

// Key returns the composite dedup key. A missing ID is legal; such records
// simply dedup against other missing-ID records of the same type.
func (p Preset) Key() string {
	return string(p.Type) + ":" + p.ID
}

// CategoryMap groups presets by type, one slice per category.
type CategoryMap map[Type][]Preset

// EmptyCategoryMap returns a map with an empty slice for every category, so
// downstream code never needs nil checks.
func EmptyCategoryMap() CategoryMap {
	m := make(CategoryMap, len(Types))
	for _, t := range Types {
		m[t] = []Preset{}
	}
	return m
}

var ErrNotFound = errors.New("preset not found")
