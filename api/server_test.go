package api_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"mockup-machine/abuse"
	"mockup-machine/api"
	"mockup-machine/event"
	"mockup-machine/genai"
	"mockup-machine/preset"
)

const testServerKey = "sk-server-0123456789abcdef"

// upstream is a fake preset endpoint whose payload can be swapped
// mid-test to simulate server-side mutations.
type upstream struct {
	mu   sync.Mutex
	body string
	hits int
	srv  *httptest.Server
}

func newUpstream(t *testing.T, body string) *upstream {
	t.Helper()
	u := &upstream{body: body}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.hits++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(u.body))
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) setBody(body string) {
	u.mu.Lock()
	u.body = body
	u.mu.Unlock()
}

func (u *upstream) hitCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits
}

type testEnv struct {
	srv       *httptest.Server
	official  *upstream
	community *upstream
}

func newTestServer(t *testing.T, officialJSON, communityJSON string) *testEnv {
	t.Helper()
	official := newUpstream(t, officialJSON)
	community := newUpstream(t, communityJSON)

	log := zap.NewNop()
	catalog := preset.NewCatalog(
		preset.NewOfficialClient(official.srv.URL, time.Second, log),
		preset.NewCommunityClient(community.srv.URL, time.Second, log),
		log,
	)
	recents, err := preset.NewRecents("")
	if err != nil {
		t.Fatalf("NewRecents: %v", err)
	}
	hub := event.NewHub()
	catalog.OnChange = func(kind string) {
		hub.Publish(event.Event{Kind: kind})
	}

	srv := httptest.NewServer(api.RegisterRoutes(api.Deps{
		Catalog: catalog,
		Recents: recents,
		Scorer:  abuse.NewScorer(),
		Keys:    genai.NewResolverWithServerKey(testServerKey),
		Hub:     hub,
		Log:     log,
	}))
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, official: official, community: community}
}
