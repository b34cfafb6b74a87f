// Package normalize canonicalizes raw card-statement merchant names so that the
// same merchant always produces the same reference key.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Veraticus/cardsort/internal/config"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var (
	branchPattern     = regexp.MustCompile(`\([^)]*점\)`)
	corporatePattern  = regexp.MustCompile(`\(주\)\s*`)
	parenPattern      = regexp.MustCompile(`\([^)]*\)`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalizer turns raw merchant strings into reference keys.
// It is safe for concurrent use.
type Normalizer struct {
	synonyms []config.Synonym
}

// New creates a Normalizer applying synonyms in slice order.
func New(synonyms []config.Synonym) *Normalizer {
	s := make([]config.Synonym, 0, len(synonyms))
	for _, syn := range synonyms {
		if syn.From != "" {
			s = append(s, syn)
		}
	}
	return &Normalizer{synonyms: s}
}

// Normalize never fails. Applying it twice gives the same result as once.
func (n *Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := width.Fold.String(norm.NFC.String(raw))
	text = strings.TrimSpace(text)

	// Branch suffixes like "(안산점)" go first so they never survive as plain text.
	text = branchPattern.ReplaceAllString(text, "")
	text = corporatePattern.ReplaceAllString(text, "")
	text = parenPattern.ReplaceAllString(text, "")

	text = collapse(text)
	// Stripping marks can leave bare jamo that compose only now.
	text = norm.NFC.String(strings.Map(keep, text))

	for _, syn := range n.synonyms {
		text = strings.ReplaceAll(text, syn.From, syn.To)
	}

	return collapse(text)
}

func collapse(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

func keep(r rune) rune {
	switch {
	case r == ' ' || r == '-':
		return r
	case unicode.IsSpace(r):
		return ' '
	case r >= '0' && r <= '9':
		return r
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return r
	case unicode.Is(unicode.Hangul, r):
		return r
	default:
		return -1
	}
}
