package services

import (
	"strings"
	"unicode"

	"github.com/AnshRaj112/commentwall-backend/internal/models"
)

// defaultModerationTerms are held for review when moderation is on and no
// MODERATION_TERMS are configured.
var defaultModerationTerms = []string{
	"kill",
	"murder",
	"rape",
	"assault",
	"shoot",
	"stab",
	"threat",
	"massacre",
	"kill yourself",
}

var obfuscations = strings.NewReplacer(
	"@", "a",
	"4", "a",
	"3", "e",
	"!", "i",
	"1", "i",
	"0", "o",
	"$", "s",
	"5", "s",
	"7", "t",
	"+", "t",
	"а", "a", // Cyrillic
	"е", "e",
	"і", "i",
	"о", "o",
	"р", "p",
)

// Moderator holds back comments containing any of its terms.
type Moderator struct {
	terms []string
}

// NewModerator builds a moderator over terms, or the default list when terms
// is empty. Terms are normalized with CleanText so they compare like input.
func NewModerator(terms []string) *Moderator {
	if len(terms) == 0 {
		terms = defaultModerationTerms
	}
	m := &Moderator{}
	for _, t := range terms {
		if c := CleanText(t); c != "" {
			m.terms = append(m.terms, c)
		}
	}
	return m
}

// Screen returns the status a new comment should be stored with and the
// terms that caused it to be held.
func (m *Moderator) Screen(content string) (models.CommentStatus, []string) {
	matched := matchTerms(CleanText(content), m.terms)
	if len(matched) > 0 {
		return models.CommentStatusPending, matched
	}
	return models.CommentStatusActive, nil
}

// CleanText lower-cases text, undoes common character substitutions, turns
// non-letters into single spaces and collapses repeated letters
// ("K!!lll   m3" -> "kil me").
func CleanText(text string) string {
	cleaned := obfuscations.Replace(strings.ToLower(text))

	var b strings.Builder
	var last rune
	lastWasLetter := false
	for _, r := range cleaned {
		if !unicode.IsLetter(r) {
			r = ' '
		}
		isLetter := r != ' '
		if isLetter && lastWasLetter && r == last {
			continue
		}
		b.WriteRune(r)
		last = r
		lastWasLetter = isLetter
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// matchTerms finds terms in cleaned text. Single words must match a whole
// word ("skill" does not match "kill"); phrases match anywhere.
func matchTerms(cleaned string, terms []string) []string {
	if cleaned == "" {
		return nil
	}
	words := make(map[string]struct{})
	for _, w := range strings.Fields(cleaned) {
		words[w] = struct{}{}
	}
	padded := " " + cleaned + " "

	var matched []string
	for _, term := range terms {
		if strings.Contains(term, " ") {
			if strings.Contains(padded, " "+term+" ") {
				matched = append(matched, term)
			}
			continue
		}
		if _, ok := words[term]; ok {
			matched = append(matched, term)
		}
	}
	return matched
}
