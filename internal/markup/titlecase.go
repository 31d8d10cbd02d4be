package markup

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// smallWords are not capitalized in title case unless they open the title,
// close it, or follow sentence punctuation.
var smallWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true,
	"but": true, "by": true, "down": true, "for": true, "from": true,
	"if": true, "in": true, "into": true, "nor": true, "of": true,
	"on": true, "onto": true, "or": true, "over": true, "so": true,
	"the": true, "to": true, "up": true, "upon": true, "via": true,
	"with": true, "yet": true,
}

// localeTags maps canonical babel locale names to case-mapping languages.
// Title-casing is only meaningful for the English family, but the lowercase
// mapping still respects the locale for safety.
var localeTags = map[string]language.Tag{
	"american":   language.AmericanEnglish,
	"australian": language.English,
	"british":    language.BritishEnglish,
	"canadian":   language.English,
	"english":    language.English,
	"newzealand": language.English,
	"ukenglish":  language.BritishEnglish,
	"usenglish":  language.AmericanEnglish,
	"turkish":    language.Turkish,
}

type word struct {
	start, end int // rune offsets
}

// TitleCase converts text to title case under the given canonical locale
// name. The conversion is rune-count preserving: only the case of existing
// runes changes, so callers can splice results back by rune offset. Words
// with uppercase letters beyond their first rune (acronyms, camel-case) are
// left untouched.
func TitleCase(text, locale string) string {
	tag, ok := localeTags[strings.ToLower(locale)]
	if !ok {
		tag = language.English
	}
	lower := cases.Lower(tag)

	runes := []rune(text)
	words := splitWords(runes)

	sentenceStart := true
	for i, w := range words {
		tok := string(runes[w.start:w.end])
		first := i == 0 || sentenceStart
		last := i == len(words)-1

		switch {
		case hasInnerUpper(tok):
			// Acronyms and camel-case keep their shape.
		case !first && !last && smallWords[strings.ToLower(tok)]:
			copyRunes(runes, w.start, lower.String(tok))
		default:
			capitalizeFirst(runes, w.start)
		}

		sentenceStart = sentencePunctBetween(runes, w.end, wordsEnd(words, i))
	}
	return string(runes)
}

// splitWords finds maximal letter/number/mark runs. A hyphen splits words,
// so both halves of a hyphenated compound are cased independently.
func splitWords(runes []rune) []word {
	var words []word
	i := 0
	for i < len(runes) {
		if !isWordRune(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) && isWordRune(runes[i]) {
			i++
		}
		words = append(words, word{start: start, end: i})
	}
	return words
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) || r == '\''
}

// hasInnerUpper reports whether tok has an uppercase rune after its first.
func hasInnerUpper(tok string) bool {
	for i, r := range []rune(tok) {
		if i > 0 && unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func capitalizeFirst(runes []rune, at int) {
	runes[at] = unicode.ToTitle(runes[at])
}

// copyRunes overwrites runes starting at to the runes of s, but only when
// the rune counts agree; locale-aware lowercasing of a single word never
// changes the count for the languages in localeTags.
func copyRunes(runes []rune, at int, s string) {
	rep := []rune(s)
	for i, r := range rep {
		if at+i < len(runes) {
			runes[at+i] = r
		}
	}
}

// wordsEnd returns the start of the next word, or the end of input.
func wordsEnd(words []word, i int) int {
	if i+1 < len(words) {
		return words[i+1].start
	}
	return -1
}

// sentencePunctBetween reports whether the gap [from, to) contains
// sentence-ending punctuation (to < 0 means end of input, never a start).
func sentencePunctBetween(runes []rune, from, to int) bool {
	if to < 0 {
		return false
	}
	for i := from; i < to; i++ {
		switch runes[i] {
		case '.', '!', '?', ':':
			return true
		}
	}
	return false
}
