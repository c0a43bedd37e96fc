package preset

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Fetcher retrieves one remote preset collection. Implementations memoize
// their result and coalesce concurrent callers onto a single request.
type Fetcher interface {
	Fetch(ctx context.Context) (CategoryMap, error)
	ClearCache()
}

// RemoteClient fetches presets from one HTTP endpoint that returns JSON of
// the form {"mockup": [...], "angle": [...], ...}. Categories may be
// missing (treated as empty) and unknown category keys are dropped.
type RemoteClient struct {
	source Source
	url    string
	httpc  *http.Client
	log    *zap.Logger

	group singleflight.Group

	mu     sync.RWMutex
	cached CategoryMap // nil until a fetch succeeds
	gen    uint64      // bumped by ClearCache; an older fetch must not store
}

// NewOfficialClient returns a client for the admin-curated preset endpoint.
func NewOfficialClient(url string, timeout time.Duration, log *zap.Logger) *RemoteClient {
	return newRemoteClient(SourceOfficial, url, timeout, log)
}

// NewCommunityClient returns a client for the user-submitted preset
// endpoint. Approval filtering happens upstream; records arrive here
// already eligible.
func NewCommunityClient(url string, timeout time.Duration, log *zap.Logger) *RemoteClient {
	return newRemoteClient(SourceCommunity, url, timeout, log)
}

func newRemoteClient(src Source, url string, timeout time.Duration, log *zap.Logger) *RemoteClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteClient{
		source: src,
		url:    url,
		httpc:  &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Fetch returns the memoized collection, fetching it on first use. If a
// fetch is already in flight, concurrent callers share its result instead
// of issuing a duplicate request. On failure the result is a well-formed
// empty map alongside the error; nothing is cached so the next call
// retries.
func (c *RemoteClient) Fetch(ctx context.Context) (CategoryMap, error) {
	c.mu.RLock()
	cached, gen := c.cached, c.gen
	c.mu.RUnlock()
	if cached != nil {
		return copyMap(cached), nil
	}

	v, err, _ := c.group.Do("fetch", func() (interface{}, error) {
		// Detached from the initiating caller's context: coalesced
		// callers share this request, so one disconnect must not cancel
		// it for the rest. The client's Timeout still bounds it.
		m, err := c.fetchRemote(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		// Guard against a ClearCache that ran while this fetch was in
		// flight: the stale snapshot is returned to its callers but not
		// cached, so the next Fetch hits the network again.
		if c.gen == gen {
			c.cached = m
		}
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		c.log.Warn("preset fetch failed",
			zap.String("source", string(c.source)), zap.Error(err))
		return EmptyCategoryMap(), err
	}
	return copyMap(v.(CategoryMap)), nil
}

// ClearCache discards the memoized collection so the next Fetch hits the
// network again. Bumping the generation suppresses the store of any fetch
// already in flight, and Forget detaches future callers from it, so a
// pre-invalidation snapshot can neither repopulate the cache nor be handed
// to callers arriving after the clear.
func (c *RemoteClient) ClearCache() {
	c.mu.Lock()
	c.cached = nil
	c.gen++
	c.mu.Unlock()
	c.group.Forget("fetch")
}

func (c *RemoteClient) fetchRemote(ctx context.Context) (CategoryMap, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s presets: unexpected status %d", c.source, resp.StatusCode)
	}

	var raw map[string][]Preset
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s presets: decode: %w", c.source, err)
	}
	return c.normalize(raw), nil
}

// normalize shapes upstream data into a full CategoryMap. Each record's
// Type is force-set to the category it was grouped under, guarding against
// malformed upstream rows. ReferenceImageURL is a plain string field, so
// absence already decodes to "".
func (c *RemoteClient) normalize(raw map[string][]Preset) CategoryMap {
	out := EmptyCategoryMap()
	for cat, list := range raw {
		t := Type(cat)
		if !ValidType(t) {
			c.log.Debug("dropping unknown preset category",
				zap.String("source", string(c.source)), zap.String("category", cat))
			continue
		}
		for _, p := range list {
			p.Type = t
			out[t] = append(out[t], p)
		}
	}
	return out
}

func copyMap(m CategoryMap) CategoryMap {
	out := make(CategoryMap, len(m))
	for t, list := range m {
		out[t] = append([]Preset(nil), list...)
	}
	return out
}
