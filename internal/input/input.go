package input

import "time"

// Defaults for tap detection, in grid cells and wall time.
const (
	DefaultDragThreshold = 10
	DefaultDedupWindow   = 500 * time.Millisecond
)

// Normalizer folds two input channels into one logical "card tapped" event:
// pointer press/release pairs (with scroll-vs-tap disambiguation) and plain
// click/select events that some environments deliver as a trailing duplicate
// of the pointer path. The dedup window is a heuristic for that duplicate,
// best-effort rather than a hard guarantee.
type Normalizer struct {
	threshold int
	window    time.Duration

	pending        *anchor
	lastPointerTap time.Time
}

type anchor struct {
	cardID int
	x, y   int
}

func NewNormalizer() *Normalizer {
	return &Normalizer{threshold: DefaultDragThreshold, window: DefaultDedupWindow}
}

// NewNormalizerWith builds a normalizer with explicit tuning, for tests and
// hosts with different cell geometry.
func NewNormalizerWith(threshold int, window time.Duration) *Normalizer {
	return &Normalizer{threshold: threshold, window: window}
}

// PointerDown records the anchor of a new gesture. It never fires a tap.
func (n *Normalizer) PointerDown(cardID, x, y int) {
	n.pending = &anchor{cardID: cardID, x: x, y: y}
}

// PointerUp completes a gesture. It reports a tap on the anchored card when
// the release stayed within the drag threshold; movement beyond it is a
// scroll and fires nothing. A release without a matching press, or over a
// different card, is discarded.
func (n *Normalizer) PointerUp(cardID, x, y int, now time.Time) (int, bool) {
	a := n.pending
	n.pending = nil
	if a == nil || a.cardID != cardID {
		return 0, false
	}

	dx := abs(x - a.x)
	dy := abs(y - a.y)
	if dx > n.threshold || dy > n.threshold {
		return 0, false
	}

	n.lastPointerTap = now
	return a.cardID, true
}

// Click handles the fallback channel. A click arriving within the dedup
// window of an accepted pointer tap is the synthetic duplicate and is
// dropped; otherwise the click itself is the tap.
func (n *Normalizer) Click(cardID int, now time.Time) (int, bool) {
	if !n.lastPointerTap.IsZero() && now.Sub(n.lastPointerTap) < n.window {
		return 0, false
	}
	return cardID, true
}

// Reset drops any in-flight gesture. Called when the host surface closes.
func (n *Normalizer) Reset() {
	n.pending = nil
	n.lastPointerTap = time.Time{}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
