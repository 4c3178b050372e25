package pack

import (
	"fmt"
	"os"
	"regexp"

	"matchpreview/internal/deck"

	"gopkg.in/yaml.v3"
)

// Fallback colors, used when the manifest omits or mangles its own.
const (
	DefaultBackgroundColor = "#1f2937"
	DefaultModuleColor     = "#6366f1"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidHexColor reports whether s is a #rrggbb hex color.
func ValidHexColor(s string) bool {
	return hexColorRe.MatchString(s)
}

// Manifest describes one image pack as published by the admin console:
// the candidate pool plus the optional card back and display colors.
type Manifest struct {
	Name            string       `yaml:"name"`
	CardBack        string       `yaml:"cardBack"`
	BackgroundColor string       `yaml:"backgroundColor"`
	ModuleColor     string       `yaml:"moduleColor"`
	Images          []ImageEntry `yaml:"images"`
}

// ImageEntry is a single candidate image. ImageURL may be empty for pool
// entries whose upload never completed; those are skipped at deck build.
type ImageEntry struct {
	Name     string `yaml:"name"`
	ImageURL string `yaml:"imageUrl"`
}

// Load reads and validates a pack manifest from path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pack manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse pack manifest %s: %w", path, err)
	}

	m.normalize()
	return &m, nil
}

// normalize fills fallback colors. A malformed hex value falls back rather
// than erroring; colors are cosmetic.
func (m *Manifest) normalize() {
	if m.Name == "" {
		m.Name = "Untitled Pack"
	}
	if !ValidHexColor(m.BackgroundColor) {
		m.BackgroundColor = DefaultBackgroundColor
	}
	if !ValidHexColor(m.ModuleColor) {
		m.ModuleColor = DefaultModuleColor
	}
}

// Candidates converts the manifest pool into deck candidates.
func (m *Manifest) Candidates() []deck.Candidate {
	out := make([]deck.Candidate, 0, len(m.Images))
	for _, img := range m.Images {
		out = append(out, deck.Candidate{Name: img.Name, ImageURL: img.ImageURL})
	}
	return out
}
