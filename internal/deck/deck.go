package deck

import (
	"errors"
	"math/rand"
)

// MaxPairs caps the deck size regardless of how large the image pool is.
const MaxPairs = 6

// ErrNotEnoughImages is returned when the pool holds fewer than two usable
// images. The caller should show a "needs more images" state instead of
// starting a game.
var ErrNotEnoughImages = errors.New("need at least 2 images to build a deck")

// Candidate is one entry from the image pool the caller hands us.
// An empty ImageURL marks an entry with no usable image.
type Candidate struct {
	Name     string
	ImageURL string
}

// FaceState tracks where a single card is in its flip lifecycle.
type FaceState int

const (
	FaceHidden FaceState = iota
	FaceFlipped
	FaceMatched
)

func (f FaceState) String() string {
	switch f {
	case FaceHidden:
		return "hidden"
	case FaceFlipped:
		return "flipped"
	case FaceMatched:
		return "matched"
	default:
		return "unknown"
	}
}

// Card is one physical tile. IDs are assigned in final deck order and
// double as the card's index in the deck slice.
type Card struct {
	ID        int
	ImageURL  string
	ImageName string
	Face      FaceState
}

// Valid filters the pool down to candidates carrying an image URL,
// dropping duplicate URLs so every selectable image is distinct.
func Valid(candidates []Candidate) []Candidate {
	seen := make(map[string]bool, len(candidates))
	valid := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ImageURL == "" || seen[c.ImageURL] {
			continue
		}
		seen[c.ImageURL] = true
		valid = append(valid, c)
	}
	return valid
}

// Build produces a shuffled deck of min(MaxPairs, len(valid)) pairs from the
// candidate pool. Every selected image appears on exactly two cards and all
// cards start hidden.
func Build(candidates []Candidate) ([]Card, error) {
	valid := Valid(candidates)
	if len(valid) < 2 {
		return nil, ErrNotEnoughImages
	}

	pairCount := len(valid)
	if pairCount > MaxPairs {
		pairCount = MaxPairs
	}

	// Uniform sample: shuffle the pool and take the head.
	pool := make([]Candidate, len(valid))
	copy(pool, valid)
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	cards := make([]Card, 0, pairCount*2)
	for _, c := range pool[:pairCount] {
		card := Card{ImageURL: c.ImageURL, ImageName: c.Name, Face: FaceHidden}
		cards = append(cards, card, card)
	}

	// Fisher-Yates over the duplicated set; IDs follow the final order.
	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	for i := range cards {
		cards[i].ID = i
	}

	return cards, nil
}

// PairCount reports the number of pairs in a built deck.
func PairCount(cards []Card) int {
	return len(cards) / 2
}
