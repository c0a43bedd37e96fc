package preset

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Catalog owns the merged preset cache. It reconciles the official and
// community endpoints with the compiled-in static table and memoizes the
// result until invalidated. Every public operation degrades to static data
// instead of failing, so render paths never need error branches.
type Catalog struct {
	official  Fetcher
	community Fetcher
	static    []Preset
	log       *zap.Logger

	group singleflight.Group

	mu     sync.RWMutex
	merged []Preset // nil when invalidated; rebuilt whole, never patched
	gen    uint64   // bumped by clear; a load from an older gen must not store

	// OnChange, if set, is called after the cache is invalidated or
	// refreshed. Set it before the catalog is shared between goroutines.
	OnChange func(kind string)
}

// NewCatalog builds a catalog over the two remote fetchers. Each
// composition root (and each test) constructs its own instance; there is no
// package-level cache.
func NewCatalog(official, community Fetcher, log *zap.Logger) *Catalog {
	return &Catalog{
		official:  official,
		community: community,
		static:    StaticPresets(),
		log:       log,
	}
}

// All returns the merged catalog, loading it if the cache is empty.
// Concurrent callers during a load share one underlying pair of fetches.
// Never fails: a source that errors contributes an empty map.
func (c *Catalog) All(ctx context.Context) []Preset {
	c.mu.RLock()
	merged := c.merged
	c.mu.RUnlock()
	if merged != nil {
		return snapshot(merged)
	}

	v, _, _ := c.group.Do("load", func() (interface{}, error) {
		// Coalesced callers share this load, so the initiating client's
		// disconnect must not cancel it for everyone else. The fetchers'
		// HTTP clients still bound its duration.
		return c.load(context.WithoutCancel(ctx)), nil
	})
	return snapshot(v.([]Preset))
}

// AllCached returns whatever is currently cached, or the static list if
// nothing has been loaded yet. Never blocks; used by paths that cannot
// await a fetch.
func (c *Catalog) AllCached() []Preset {
	c.mu.RLock()
	merged := c.merged
	c.mu.RUnlock()
	if merged == nil {
		return StaticPresets()
	}
	return snapshot(merged)
}

// ByID looks up a preset in the current cache (static list when cold).
func (c *Catalog) ByID(typ Type, id string) (Preset, bool) {
	return findIn(c.AllCached(), typ, id)
}

// ByIDFresh looks up a preset in a fresh-or-cached catalog. On a miss it
// forces one invalidate-and-reload before falling back to the static list;
// this tolerates the race where the cache was built just before the preset
// was created server-side.
func (c *Catalog) ByIDFresh(ctx context.Context, typ Type, id string) (Preset, bool) {
	if p, ok := findIn(c.All(ctx), typ, id); ok {
		return p, true
	}
	c.clear()
	if p, ok := findIn(c.All(ctx), typ, id); ok {
		return p, true
	}
	if p, ok := findIn(c.static, typ, id); ok {
		return p, true
	}
	c.log.Error("preset not found after forced reload",
		zap.String("type", string(typ)), zap.String("id", id))
	return Preset{}, false
}

// Invalidate drops the merged cache and both fetcher caches. It does not
// refetch; the next read does.
func (c *Catalog) Invalidate() {
	c.clear()
	c.notify("invalidated")
}

// NoteExternalUpdate records that presets were mutated outside this
// process, e.g. after a create/edit/delete or a modal close in the UI. The
// argument is ignored: the cache is never patched in place, it is dropped
// whole and rebuilt on the next read. Call sites pass the mutated records
// only as a convenience.
func (c *Catalog) NoteExternalUpdate(_ []Preset) {
	c.Invalidate()
}

// Refresh drops all caches and eagerly reloads instead of waiting for the
// next read. Returns the freshly merged catalog.
func (c *Catalog) Refresh(ctx context.Context) []Preset {
	c.clear()
	merged := c.All(ctx)
	c.notify("refreshed")
	return merged
}

func (c *Catalog) clear() {
	c.mu.Lock()
	c.merged = nil
	c.gen++
	c.mu.Unlock()
	c.group.Forget("load")
	c.official.ClearCache()
	c.community.ClearCache()
}

// load fetches both remote sources in parallel, degrades failures to empty
// maps, merges with the static table and stores the result. The store is
// generation-guarded: if clear ran while the fetches were in flight, the
// pre-invalidation snapshot is returned to the callers that asked for it
// but not cached, so the next read refetches.
func (c *Catalog) load(ctx context.Context) []Preset {
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	var official, community CategoryMap

	var g errgroup.Group
	g.Go(func() error {
		m, err := c.official.Fetch(ctx)
		if err != nil {
			c.log.Error("official presets unavailable, using empty set", zap.Error(err))
			m = EmptyCategoryMap()
		}
		official = m
		return nil
	})
	g.Go(func() error {
		m, err := c.community.Fetch(ctx)
		if err != nil {
			c.log.Error("community presets unavailable, using empty set", zap.Error(err))
			m = EmptyCategoryMap()
		}
		community = m
		return nil
	})
	_ = g.Wait()

	merged := Merge(official, community, c.static)
	c.mu.Lock()
	if c.gen == gen {
		c.merged = merged
	}
	c.mu.Unlock()
	return merged
}

func (c *Catalog) notify(kind string) {
	if c.OnChange != nil {
		c.OnChange(kind)
	}
}

func findIn(list []Preset, typ Type, id string) (Preset, bool) {
	for _, p := range list {
		if p.Type == typ && p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

func snapshot(list []Preset) []Preset {
	return append([]Preset(nil), list...)
}
