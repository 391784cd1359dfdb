// Package nlp normalizes Egyptian Arabic text and classifies support intents.
package nlp

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// arabicDiacritics covers tanween, harakat, shadda, sukun and the extended
// marks up to U+065F.
var arabicDiacritics = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x064B, Hi: 0x065F, Stride: 1},
	},
}

// foldRune maps alef variants to bare alef and teh marbuta to heh
func foldRune(r rune) rune {
	switch r {
	case 'ٱ', 'أ', 'إ', 'آ':
		return 'ا'
	case 'ة':
		return 'ه'
	}
	return r
}

// Fold applies character-level normalization only: alef variants become
// bare alef, teh marbuta becomes heh, and Arabic diacritics are removed.
func Fold(text string) string {
	if text == "" {
		return ""
	}

	// Chained transformers keep internal buffers, so build one per call
	t := transform.Chain(runes.Remove(runes.In(arabicDiacritics)), runes.Map(foldRune))
	folded, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return folded
}

// Normalizer rewrites Egyptian colloquial words and idioms into their
// standard-form equivalents.
type Normalizer struct {
	words     map[string]string
	phrases   map[string]string
	maxPhrase int
}

// NewNormalizer builds a normalizer from a word-level dialect mapping and a
// phrase-level expression mapping. Keys and values are folded up front so
// lookups ignore alef/teh-marbuta/diacritic variation.
func NewNormalizer(dialect, expressions map[string]string) *Normalizer {
	n := &Normalizer{
		words:   make(map[string]string, len(dialect)),
		phrases: make(map[string]string, len(expressions)),
	}

	for _, key := range sortedKeys(dialect) {
		folded := foldTokens(key)
		if len(folded) != 1 {
			// Multi-word keys belong to the phrase table
			n.addPhrase(folded, dialect[key])
			continue
		}
		if _, exists := n.words[folded[0]]; !exists {
			n.words[folded[0]] = strings.Join(foldTokens(dialect[key]), " ")
		}
	}

	for _, key := range sortedKeys(expressions) {
		n.addPhrase(foldTokens(key), expressions[key])
	}

	return n
}

// NewDefaultNormalizer returns a normalizer loaded with the built-in
// Egyptian dialect and expression tables.
func NewDefaultNormalizer() *Normalizer {
	return NewNormalizer(DefaultDialect(), DefaultExpressions())
}

func (n *Normalizer) addPhrase(tokens []string, value string) {
	if len(tokens) == 0 {
		return
	}
	key := strings.Join(tokens, " ")
	if _, exists := n.phrases[key]; exists {
		return
	}
	n.phrases[key] = strings.Join(foldTokens(value), " ")
	if len(tokens) > n.maxPhrase {
		n.maxPhrase = len(tokens)
	}
}

// Normalize trims and collapses whitespace, substitutes dialect phrases and
// words in a single left-to-right pass, and folds Arabic character variants.
// Normalizing an already normalized string returns it unchanged.
func (n *Normalizer) Normalize(text string) string {
	tokens := foldTokens(text)
	if len(tokens) == 0 {
		return ""
	}

	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if repl, width := n.matchPhrase(tokens[i:]); width > 0 {
			if repl != "" {
				out = append(out, repl)
			}
			i += width
			continue
		}

		if repl, ok := n.words[tokens[i]]; ok {
			if repl != "" {
				out = append(out, repl)
			}
		} else {
			out = append(out, tokens[i])
		}
		i++
	}

	return strings.Join(out, " ")
}

// matchPhrase returns the replacement and token width of the longest phrase
// starting at tokens[0], or a zero width when none matches.
func (n *Normalizer) matchPhrase(tokens []string) (string, int) {
	limit := n.maxPhrase
	if limit > len(tokens) {
		limit = len(tokens)
	}
	for width := limit; width > 0; width-- {
		if repl, ok := n.phrases[strings.Join(tokens[:width], " ")]; ok {
			return repl, width
		}
	}
	return "", 0
}

// foldTokens splits on whitespace and folds each token, dropping tokens that
// were made only of diacritics.
func foldTokens(text string) []string {
	fields := strings.Fields(text)
	tokens := fields[:0]
	for _, f := range fields {
		if folded := Fold(f); folded != "" {
			tokens = append(tokens, folded)
		}
	}
	return tokens
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
