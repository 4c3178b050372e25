package deck

import (
	"fmt"
	"testing"
)

func makePool(n int) []Candidate {
	pool := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, Candidate{
			Name:     fmt.Sprintf("Image %d", i),
			ImageURL: fmt.Sprintf("https://cdn.example.org/img/%d.png", i),
		})
	}
	return pool
}

func TestBuild_PairIntegrity(t *testing.T) {
	cards, err := Build(makePool(6))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(cards) != 12 {
		t.Fatalf("Expected 12 cards, got %d", len(cards))
	}
	if PairCount(cards) != 6 {
		t.Errorf("Expected 6 pairs, got %d", PairCount(cards))
	}

	counts := make(map[string]int)
	for _, c := range cards {
		counts[c.ImageURL]++
		if c.Face != FaceHidden {
			t.Errorf("Card %d should start hidden, got %s", c.ID, c.Face)
		}
	}
	if len(counts) != 6 {
		t.Errorf("Expected 6 distinct images, got %d", len(counts))
	}
	for url, n := range counts {
		if n != 2 {
			t.Errorf("Image %s appears %d times, want 2", url, n)
		}
	}
}

func TestBuild_SequentialIDs(t *testing.T) {
	cards, err := Build(makePool(4))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for i, c := range cards {
		if c.ID != i {
			t.Errorf("Card at index %d has ID %d", i, c.ID)
		}
	}
}

func TestBuild_CapsAtMaxPairs(t *testing.T) {
	cards, err := Build(makePool(12))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if PairCount(cards) != MaxPairs {
		t.Errorf("Expected pair count capped at %d, got %d", MaxPairs, PairCount(cards))
	}
}

func TestBuild_RefusesSparsePool(t *testing.T) {
	// One usable image, one without a URL.
	pool := []Candidate{
		{Name: "Lonely", ImageURL: "https://cdn.example.org/img/only.png"},
		{Name: "Broken"},
	}
	if _, err := Build(pool); err != ErrNotEnoughImages {
		t.Errorf("Expected ErrNotEnoughImages, got %v", err)
	}

	if _, err := Build(nil); err != ErrNotEnoughImages {
		t.Errorf("Empty pool: expected ErrNotEnoughImages, got %v", err)
	}
}

func TestBuild_SkipsEntriesWithoutURL(t *testing.T) {
	pool := makePool(3)
	pool = append(pool, Candidate{Name: "No image"})

	cards, err := Build(pool)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if PairCount(cards) != 3 {
		t.Errorf("Expected 3 pairs, got %d", PairCount(cards))
	}
	for _, c := range cards {
		if c.ImageURL == "" {
			t.Error("Deck holds a card without an image URL")
		}
	}
}

func TestValid_DropsDuplicateURLs(t *testing.T) {
	pool := makePool(2)
	pool = append(pool, Candidate{Name: "Copy of 0", ImageURL: pool[0].ImageURL})

	valid := Valid(pool)
	if len(valid) != 2 {
		t.Errorf("Expected 2 distinct candidates, got %d", len(valid))
	}
}
