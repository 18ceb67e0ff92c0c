// Package challenge implements the pure challenge-text generator
// collaborator named in spec.md §6: deterministic given its options,
// it may use its own randomness source but never reads manager state.
//
// Grounded in _examples/original_source/models/src/schemas/typing.rs's
// TextOptions struct (uppercase/lowercase/numbers/symbols/meaningful
// flags), restored here as the knobs a tournament fixes at creation
// time per SPEC_FULL.md §9.
package challenge

import (
	"math/rand"
	"strings"
)

// Options controls the character classes and shape of generated text.
type Options struct {
	Uppercase  bool
	Lowercase  bool
	Numbers    bool
	Symbols    bool
	Meaningful bool
	WordCount  int
}

// DefaultOptions matches the original prototype's Default impl: every
// class enabled, meaningful (word-list based) text.
func DefaultOptions() Options {
	return Options{
		Uppercase:  true,
		Lowercase:  true,
		Numbers:    true,
		Symbols:    true,
		Meaningful: true,
		WordCount:  40,
	}
}

var wordList = []string{
	"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog",
	"keyboard", "practice", "makes", "perfect", "typing", "speed",
	"accuracy", "matters", "more", "than", "raw", "velocity", "focus",
	"breathe", "steady", "hands", "rhythm", "flow", "words", "per",
	"minute", "challenge", "text", "generator", "produces", "fresh",
	"content", "every", "single", "round", "of", "the", "tournament",
}

var symbolSet = []byte("!@#$%^&*-_=+")
var numberSet = []byte("0123456789")

// Generator produces challenge text; the tournament manager depends
// only on this interface so tests can substitute a fixed generator.
type Generator interface {
	Generate(opts Options) []byte
}

// WordListGenerator is the default Generator, grounded in the
// original prototype's "meaningful" text option: it samples real
// words rather than random byte noise, optionally salting individual
// words with a digit or symbol.
type WordListGenerator struct {
	rand *rand.Rand
}

// NewWordListGenerator builds a generator seeded from seed. Two
// generators built with the same seed produce the same sequence of
// texts for the same sequence of calls, which keeps end-to-end tests
// (spec.md §8 scenario 1) deterministic.
func NewWordListGenerator(seed int64) *WordListGenerator {
	return &WordListGenerator{rand: rand.New(rand.NewSource(seed))}
}

// Generate builds challenge text per opts.
func (g *WordListGenerator) Generate(opts Options) []byte {
	if opts.WordCount <= 0 {
		opts = DefaultOptions()
	}

	words := make([]string, 0, opts.WordCount)
	for i := 0; i < opts.WordCount; i++ {
		w := wordList[g.rand.Intn(len(wordList))]

		if opts.Uppercase && i == 0 {
			w = strings.ToUpper(w[:1]) + w[1:]
		} else if opts.Lowercase {
			w = strings.ToLower(w)
		}

		if opts.Numbers && g.rand.Intn(6) == 0 {
			w += string(numberSet[g.rand.Intn(len(numberSet))])
		}
		if opts.Symbols && g.rand.Intn(8) == 0 {
			w += string(symbolSet[g.rand.Intn(len(symbolSet))])
		}

		words = append(words, w)
	}

	return []byte(strings.Join(words, " "))
}
