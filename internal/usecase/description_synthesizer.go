package usecase

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Word-count band targeted by synthesized descriptions. The band is a soft
// target: the fixed phrases cannot always land inside it.
const (
	minDescriptionWords = 20
	maxDescriptionWords = 30
	truncationMarker    = "..."
)

const emptyDescriptionTemplate = "Discover the elegance of this %s. A beautiful furniture piece perfect for enhancing your living space."

var leadInPhrases = [...]string{
	"Discover the elegance of this",
	"Experience the comfort and style of this",
	"Transform your space with this beautiful",
	"Add sophistication to your home with this",
}

var elaborationSentences = [...]string{
	"This modern piece combines elegant design with functional appeal, perfect for contemporary spaces.",
	"Crafted with care, it offers both style and practicality for everyday use.",
	"A versatile furniture item that brings comfort and elegance to any room.",
	"Designed to enhance your decor with timeless style and quality craftsmanship.",
}

// Hash salts keep the lead-in and elaboration choices independent
const (
	leadInSalt      = "lead-in:"
	elaborationSalt = "elaboration:"
)

// DescriptionSynthesizer rewrites product descriptions to roughly 20-30 words.
// Output depends only on its inputs: phrase variants are picked with xxhash,
// which is stable across processes and platforms.
type DescriptionSynthesizer struct{}

// NewDescriptionSynthesizer creates a synthesizer
func NewDescriptionSynthesizer() *DescriptionSynthesizer {
	return &DescriptionSynthesizer{}
}

// Synthesize builds the display description for a product
func (d *DescriptionSynthesizer) Synthesize(title, original string) string {
	if strings.TrimSpace(original) == "" {
		return fmt.Sprintf(emptyDescriptionTemplate, title)
	}

	lead := leadInPhrases[phraseIndex(leadInSalt, title, len(leadInPhrases))]
	desc := fmt.Sprintf("%s %s. %s", lead, title, original)

	words := strings.Fields(desc)
	if len(words) < minDescriptionWords {
		desc += " " + elaborationSentences[phraseIndex(elaborationSalt, title, len(elaborationSentences))]
		words = strings.Fields(desc)
	}

	if len(words) > maxDescriptionWords {
		desc = strings.Join(words[:maxDescriptionWords], " ") + truncationMarker
	}

	return desc
}

// phraseIndex deterministically maps a title onto one of n variants
func phraseIndex(salt, title string, n int) int {
	return int(xxhash.Sum64String(salt+title) % uint64(n))
}
