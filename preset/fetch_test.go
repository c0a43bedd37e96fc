package preset_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"mockup-machine/preset"
)

func TestFetchNormalizesRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Wrong presetType on the record, no referenceImageUrl, and an
		// unknown category that must be dropped.
		w.Write([]byte(`{
			"mockup": [{"id":"sticker","presetType":"texture","name":"Sticker"}],
			"doodle": [{"id":"bad","name":"Bad"}]
		}`))
	}))
	defer srv.Close()

	c := preset.NewOfficialClient(srv.URL, time.Second, zap.NewNop())
	got, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	mockups := got[preset.TypeMockup]
	if len(mockups) != 1 {
		t.Fatalf("expected 1 mockup, got %d", len(mockups))
	}
	if mockups[0].Type != preset.TypeMockup {
		t.Fatalf("presetType must be forced to the fetched category, got %q", mockups[0].Type)
	}
	if mockups[0].ReferenceImageURL != "" {
		t.Fatalf("missing referenceImageUrl must normalize to empty string, got %q", mockups[0].ReferenceImageURL)
	}
	for _, typ := range preset.Types {
		if got[typ] == nil {
			t.Fatalf("category %q missing from normalized map", typ)
		}
		if typ != preset.TypeMockup && len(got[typ]) != 0 {
			t.Fatalf("category %q should be empty, got %+v", typ, got[typ])
		}
	}
}

func TestFetchMemoizes(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"mockup":[{"id":"a"}]}`))
	}))
	defer srv.Close()

	c := preset.NewCommunityClient(srv.URL, time.Second, zap.NewNop())
	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected 1 request, server saw %d", n)
	}
}

func TestClearCacheForcesRefetch(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := preset.NewOfficialClient(srv.URL, time.Second, zap.NewNop())
	c.Fetch(context.Background())
	c.ClearCache()
	c.Fetch(context.Background())

	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("expected 2 requests after ClearCache, server saw %d", n)
	}
}

func TestFetchCoalescesConcurrentCallers(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{"angle":[{"id":"low"}]}`))
	}))
	defer srv.Close()

	c := preset.NewOfficialClient(srv.URL, time.Second, zap.NewNop())
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Fetch(context.Background())
			if err != nil {
				t.Errorf("Fetch: %v", err)
				return
			}
			if len(got[preset.TypeAngle]) != 1 {
				t.Errorf("expected the shared snapshot, got %+v", got)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected concurrent callers to share 1 request, server saw %d", n)
	}
}

func TestFetchErrorReturnsWellFormedEmptyMap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := preset.NewOfficialClient(srv.URL, time.Second, zap.NewNop())
	got, err := c.Fetch(context.Background())
	if err == nil {
		t.Fatalf("expected an error for HTTP 500")
	}
	for _, typ := range preset.Types {
		if got[typ] == nil {
			t.Fatalf("error result must still carry every category, %q missing", typ)
		}
	}
}

func TestFetchBadJSONIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not-json`))
	}))
	defer srv.Close()

	c := preset.NewCommunityClient(srv.URL, time.Second, zap.NewNop())
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Fatalf("expected a decode error")
	}
}

func TestFetchErrorIsNotCached(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"mockup":[{"id":"a"}]}`))
	}))
	defer srv.Close()

	c := preset.NewOfficialClient(srv.URL, time.Second, zap.NewNop())
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Fatalf("expected first fetch to fail")
	}
	got, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("second fetch should succeed: %v", err)
	}
	if len(got[preset.TypeMockup]) != 1 {
		t.Fatalf("expected the retried fetch to return data, got %+v", got)
	}
}

func TestClearCacheDuringFetchSuppressesStaleStore(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			started <- struct{}{}
			<-release
		}
		w.Write([]byte(`{"mockup":[{"id":"a"}]}`))
	}))
	defer srv.Close()

	c := preset.NewOfficialClient(srv.URL, time.Second, zap.NewNop())
	done := make(chan struct{})
	go func() {
		c.Fetch(context.Background())
		close(done)
	}()
	<-started // request now in flight
	c.ClearCache()
	close(release)
	<-done

	// The in-flight response must not have repopulated the cleared cache;
	// the next Fetch has to hit the network again.
	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch after clear: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("expected 2 requests, server saw %d", n)
	}
}

func TestFetchSurvivesInitiatorCancel(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		started <- struct{}{}
		<-release
		w.Write([]byte(`{"mockup":[{"id":"a"}]}`))
	}))
	defer srv.Close()

	c := preset.NewOfficialClient(srv.URL, time.Second, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctx)
		errCh <- err
	}()
	<-started
	cancel() // initiating caller disconnects mid-request
	close(release)

	// The request is shared with coalesced callers, so it must run to
	// completion and cache its result despite the cancel.
	if err := <-errCh; err != nil {
		t.Fatalf("detached fetch should complete: %v", err)
	}
	got, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got[preset.TypeMockup]) != 1 {
		t.Fatalf("expected the cached result, got %+v", got)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected the completed fetch to be cached, server saw %d requests", n)
	}
}

func TestFetchTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := preset.NewOfficialClient(srv.URL, 50*time.Millisecond, zap.NewNop())
	start := time.Now()
	_, err := c.Fetch(context.Background())
	if err == nil {
		t.Fatalf("expected a timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("fetch did not respect its timeout, took %v", elapsed)
	}
}
