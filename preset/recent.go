package preset

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

const recentMax = 10

// Recents tracks the most-recently-used presets as composite keys, MRU
// first, capped at recentMax. State is persisted as JSON so the list
// survives restarts; an empty path keeps it in memory only.
type Recents struct {
	mu   sync.Mutex
	path string
	keys []string
}

type recentFile struct {
	RecentlyUsed []string `json:"recentlyUsed"`
}

// NewRecents loads the recently-used list from path, or starts empty if the
// file does not exist. Returns an error only on unexpected I/O failures.
func NewRecents(path string) (*Recents, error) {
	r := &Recents{path: path}
	if path == "" {
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return nil, err
	}
	var f recentFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	r.keys = f.RecentlyUsed
	return r, nil
}

// MarkUsed prepends the preset's composite key, deduplicating and capping
// at recentMax, then persists the list.
func (r *Recents) MarkUsed(p Preset) error {
	key := p.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	newList := []string{key}
	for _, k := range r.keys {
		if k == key {
			continue
		}
		newList = append(newList, k)
		if len(newList) == recentMax {
			break
		}
	}
	r.keys = newList
	return r.writeAtomic()
}

// Keys returns a copy of the MRU key list.
func (r *Recents) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

// Resolve maps the MRU keys onto records from catalog, in MRU order,
// silently skipping keys that no longer resolve (their presets were deleted
// or lost a merge to a higher-precedence source with different fields).
func (r *Recents) Resolve(catalog []Preset) []Preset {
	byKey := make(map[string]Preset, len(catalog))
	for _, p := range catalog {
		byKey[p.Key()] = p
	}

	var out []Preset
	for _, k := range r.Keys() {
		if p, ok := byKey[k]; ok {
			out = append(out, p)
		}
	}
	return out
}

// writeAtomic writes to a temp file then renames it over path. Caller must
// hold r.mu.
func (r *Recents) writeAtomic() error {
	if r.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return err
	}

	tmp := r.path + ".tmp"
	data, err := json.MarshalIndent(recentFile{RecentlyUsed: r.keys}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}
