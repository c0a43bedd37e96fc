package preset

// Merge combines the three preset sources into one flat catalog.
//
// Sources are consumed in precedence order: official, then community, then
// static. The first record seen for a composite key wins and later records
// with the same key are dropped whole (no field-by-field merging). Category
// order follows Types and within-category order follows the upstream slice,
// so the output is deterministic for fixed inputs.
func Merge(official, community CategoryMap, static []Preset) []Preset {
	seen := make(map[string]struct{})
	out := make([]Preset, 0, len(static))

	take := func(p Preset, src Source) {
		key := p.Key()
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		p.Source = src
		out = append(out, p)
	}

	for _, t := range Types {
		for _, p := range official[t] {
			take(p, SourceOfficial)
		}
	}
	for _, t := range Types {
		for _, p := range community[t] {
			take(p, SourceCommunity)
		}
	}
	for _, p := range static {
		take(p, SourceStatic)
	}
	return out
}
