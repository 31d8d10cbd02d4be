package tex

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Mode selects the escaping rules for a field value.
type Mode int

const (
	// Text is the full escape set for regular prose fields.
	Text Mode = iota
	// Verbatim is the reduced set for identifier-like fields (doi, url,
	// file paths) where TeX macros must not fire.
	Verbatim
)

// textEscapes is the full special-character set. Backslash is handled
// separately so accent macros produced by the folder survive.
var textEscapes = map[rune]string{
	'&':  `\&`,
	'%':  `\%`,
	'$':  `\$`,
	'#':  `\#`,
	'_':  `\_`,
	'{':  `\{`,
	'}':  `\}`,
	'~':  `\textasciitilde{}`,
	'^':  `\textasciicircum{}`,
	'\\': `\textbackslash{}`,
}

// verbatimEscapes is the minimal set for verbatim fields.
var verbatimEscapes = map[rune]string{
	'%':  `\%`,
	'{':  `\{`,
	'}':  `\}`,
	'\\': `\textbackslash{}`,
}

// accents maps combining marks (after NFD decomposition) to TeX accent
// command names applied to the preceding base character.
var accents = map[rune]string{
	0x0300: "`",  // grave
	0x0301: "'",  // acute
	0x0302: "^",  // circumflex
	0x0303: "~",  // tilde
	0x0304: "=",  // macron
	0x0306: "u",  // breve
	0x0307: ".",  // dot above
	0x0308: `"`,  // diaeresis
	0x030A: "r",  // ring above
	0x030B: "H",  // double acute
	0x030C: "v",  // caron
	0x0327: "c",  // cedilla
	0x0328: "k",  // ogonek
}

// symbols maps characters without a decomposition to TeX replacements.
var symbols = map[rune]string{
	'ß': `{\ss}`,
	'æ': `{\ae}`,
	'Æ': `{\AE}`,
	'œ': `{\oe}`,
	'Œ': `{\OE}`,
	'ø': `{\o}`,
	'Ø': `{\O}`,
	'ł': `{\l}`,
	'Ł': `{\L}`,
	'ı': `{\i}`,
	'đ': `{\dj}`,
	'Đ': `{\DJ}`,
	'–': `--`,
	'—': `---`,
	'‘': "`",
	'’': `'`,
	'“': "``",
	'”': `''`,
	'…': `\dots{}`,
	' ': `~`,
}

// Escape renders s for inclusion in a field value under the given mode.
// With ascii set, non-ASCII characters are folded to TeX accent macros and
// symbol commands where a mapping exists; unmapped characters pass through
// unchanged (the engine is then expected to run with Unicode support).
func Escape(s string, m Mode, ascii bool) string {
	table := textEscapes
	if m == Verbatim {
		table = verbatimEscapes
	}

	if ascii {
		s = norm.NFD.String(s)
	}
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if esc, ok := table[r]; ok {
			b.WriteString(esc)
			continue
		}
		if r < 0x80 || !ascii {
			// A base character may still carry combining marks.
			if ascii {
				out, next := applyAccents(string(r), runes, i+1)
				b.WriteString(out)
				i = next - 1
				continue
			}
			b.WriteRune(r)
			continue
		}
		if sym, ok := symbols[r]; ok {
			b.WriteString(sym)
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// applyAccents wraps base in accent macros for every combining mark that
// follows position i, returning the wrapped form and the index after the
// last consumed rune.
func applyAccents(base string, runes []rune, i int) (string, int) {
	wrapped := false
	for i < len(runes) && unicode.Is(unicode.Mn, runes[i]) {
		if cmd, ok := accents[runes[i]]; ok {
			base = `\` + cmd + `{` + base + `}`
			wrapped = true
		}
		i++
	}
	if wrapped {
		base = `{` + base + `}`
	}
	return base, i
}
