package markup

import (
	"regexp"
	"strings"
)

// ligatures are expanded before any text reaches the title-caser, so case
// mapping sees ordinary letters.
var ligatures = strings.NewReplacer(
	"ﬀ", "ff",
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
	"ﬅ", "ft",
	"ﬆ", "st",
)

var (
	reSpace    = regexp.MustCompile(`^\s+`)
	reLeadWord = regexp.MustCompile(`^[\p{Lu}][\p{Ll}\p{N}\p{M}']*`)
	reCapsRun  = regexp.MustCompile(`^[\p{Lu}][\p{L}\p{N}\p{M}']*(?: [\p{Lu}][\p{L}\p{N}\p{M}']*)*`)
	reURL      = regexp.MustCompile(`^(?:https?://|mailto:)\S+`)
	reWordRun  = regexp.MustCompile(`^[\p{L}\p{N}\p{M}]+`)
)

// tokenizer carries the sentence-start state across text leaves of one
// field value.
type tokenizer struct {
	protectCaps   bool
	sentenceStart bool
}

// tokenize splits a text leaf into plain text leaves and case-protected
// spans. Matching priority per position: whitespace; a single capitalized
// word at sentence start (plain, consumes the sentence start); a
// capitalized-word run (protected, only with brace protection on); a URL
// (protected); a letter/number/mark run (plain); one rune (plain, as the
// progress guarantee).
func (tk *tokenizer) tokenize(text string) []*Node {
	var nodes []*Node
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			nodes = append(nodes, NewText(plain.String()))
			plain.Reset()
		}
	}
	emit := func(s string) {
		plain.WriteString(ligatures.Replace(s))
	}
	protect := func(s string) {
		flush()
		nodes = append(nodes, Protected(ligatures.Replace(s)))
	}

	for len(text) > 0 {
		if m := reSpace.FindString(text); m != "" {
			emit(m)
			text = text[len(m):]
			continue
		}
		if tk.sentenceStart {
			if m := reLeadWord.FindString(text); m != "" && wordBoundary(text, len(m)) {
				emit(m)
				text = text[len(m):]
				tk.sentenceStart = false
				continue
			}
		}
		if tk.protectCaps {
			if m := reCapsRun.FindString(text); m != "" {
				protect(m)
				text = text[len(m):]
				tk.sentenceStart = false
				continue
			}
		}
		if m := reURL.FindString(text); m != "" {
			protect(m)
			text = text[len(m):]
			tk.sentenceStart = false
			continue
		}
		if m := reWordRun.FindString(text); m != "" {
			emit(m)
			text = text[len(m):]
			tk.sentenceStart = false
			continue
		}

		// Single rune fallback.
		var one string
		for _, c := range text {
			one = string(c)
			break
		}
		emit(one)
		switch one {
		case ".", "!", "?", ":":
			tk.sentenceStart = true
		}
		text = text[len(one):]
	}

	flush()
	return nodes
}

// wordBoundary reports whether the match ending at off is followed by
// whitespace, punctuation, or end of input (i.e. not by more letters).
func wordBoundary(text string, off int) bool {
	if off >= len(text) {
		return true
	}
	rest := text[off:]
	return !reWordRun.MatchString(rest)
}
