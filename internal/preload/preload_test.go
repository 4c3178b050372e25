package preload

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"matchpreview/internal/deck"

	"go.uber.org/zap"
)

// countingServer records how many times each path was requested.
type countingServer struct {
	mu     sync.Mutex
	counts map[string]int
	srv    *httptest.Server
}

func newCountingServer(t *testing.T) *countingServer {
	t.Helper()
	cs := &countingServer{counts: make(map[string]int)}
	cs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		cs.counts[r.URL.Path]++
		cs.mu.Unlock()
		w.Write([]byte("img"))
	}))
	t.Cleanup(cs.srv.Close)
	return cs
}

func (cs *countingServer) count(path string) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.counts[path]
}

func TestWarm_Idempotent(t *testing.T) {
	cs := newCountingServer(t)
	c := NewCache(zap.NewNop())

	url := cs.srv.URL + "/img/a.png"
	c.Warm(url)
	c.Warm(url)
	c.Warm(url)
	c.wait()

	if got := cs.count("/img/a.png"); got != 1 {
		t.Errorf("Expected exactly 1 fetch, got %d", got)
	}
	if !c.Warmed(url) {
		t.Error("URL should be marked warmed")
	}
}

func TestWarm_IgnoresEmptyURL(t *testing.T) {
	c := NewCache(zap.NewNop())
	c.Warm("")
	c.wait()
	if c.Warmed("") {
		t.Error("Empty URL must not be recorded")
	}
}

func TestWarm_FailureIsSoft(t *testing.T) {
	c := NewCache(zap.NewNop())
	// Nothing listens here; the fetch fails but Warm must not panic or
	// surface the error.
	c.Warm("http://127.0.0.1:1/img/gone.png")
	c.wait()

	if !c.Warmed("http://127.0.0.1:1/img/gone.png") {
		t.Error("Failed warms still count as requested")
	}
}

func TestWarmCandidates_CapAndSkip(t *testing.T) {
	cs := newCountingServer(t)
	c := NewCache(zap.NewNop())

	var pool []deck.Candidate
	pool = append(pool, deck.Candidate{Name: "broken"}) // no URL, skipped
	for i := 0; i < CandidateCap+5; i++ {
		pool = append(pool, deck.Candidate{
			Name:     fmt.Sprintf("img %d", i),
			ImageURL: fmt.Sprintf("%s/img/%d.png", cs.srv.URL, i),
		})
	}

	c.WarmCandidates(pool)
	c.wait()

	for i := 0; i < CandidateCap; i++ {
		if got := cs.count(fmt.Sprintf("/img/%d.png", i)); got != 1 {
			t.Errorf("Candidate %d fetched %d times, want 1", i, got)
		}
	}
	for i := CandidateCap; i < CandidateCap+5; i++ {
		if got := cs.count(fmt.Sprintf("/img/%d.png", i)); got != 0 {
			t.Errorf("Candidate %d beyond cap was fetched", i)
		}
	}
}

func TestWarmDeck_UniqueURLsOnly(t *testing.T) {
	cs := newCountingServer(t)
	c := NewCache(zap.NewNop())

	url := cs.srv.URL + "/img/pair.png"
	cards := []deck.Card{
		{ID: 0, ImageURL: url},
		{ID: 1, ImageURL: url},
	}
	c.WarmDeck(cards)
	c.wait()

	if got := cs.count("/img/pair.png"); got != 1 {
		t.Errorf("Pair image fetched %d times, want 1", got)
	}
}
