package preload

import (
	"io"
	"net/http"
	"sync"
	"time"

	"matchpreview/internal/deck"

	"go.uber.org/zap"
)

// CandidateCap bounds how many pool images get warmed ahead of a session.
const CandidateCap = 24

// Cache issues fire-and-forget image fetches and remembers which URLs have
// already been requested this session, so repeated warms are no-ops.
// Warming is purely a latency optimization; a failed fetch is logged and
// otherwise ignored.
type Cache struct {
	mu     sync.Mutex
	warmed map[string]bool
	wg     sync.WaitGroup

	client *http.Client
	log    *zap.Logger
}

func NewCache(logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		warmed: make(map[string]bool),
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logger,
	}
}

// Warm begins an asynchronous fetch of url unless it was already requested.
// Empty URLs are ignored.
func (c *Cache) Warm(url string) {
	if url == "" {
		return
	}

	c.mu.Lock()
	if c.warmed[url] {
		c.mu.Unlock()
		return
	}
	c.warmed[url] = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.fetch(url)
}

// WarmCandidates warms the pool's usable images, up to CandidateCap.
func (c *Cache) WarmCandidates(candidates []deck.Candidate) {
	n := 0
	for _, cand := range candidates {
		if cand.ImageURL == "" {
			continue
		}
		if n >= CandidateCap {
			return
		}
		c.Warm(cand.ImageURL)
		n++
	}
}

// WarmDeck warms every image present in a built deck. The realized deck can
// differ from the candidate pool, so this runs after every build.
func (c *Cache) WarmDeck(cards []deck.Card) {
	for _, card := range cards {
		c.Warm(card.ImageURL)
	}
}

// Warmed reports whether a URL has been requested this session.
func (c *Cache) Warmed(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warmed[url]
}

func (c *Cache) fetch(url string) {
	defer c.wg.Done()

	resp, err := c.client.Get(url)
	if err != nil {
		c.log.Debug("image warm failed", zap.String("url", url), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	// Drain the body so connections can be reused. The terminal never
	// decodes the image; warming primes intermediary caches.
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		c.log.Debug("image warm read failed", zap.String("url", url), zap.Error(err))
	}
}

// wait blocks until all in-flight fetches finish. Test hook.
func (c *Cache) wait() {
	c.wg.Wait()
}
