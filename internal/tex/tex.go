// Package tex holds the output-format side of the exporter: the two target
// dialects and the escaping rules that turn arbitrary text into something a
// TeX engine will read back byte-for-byte.
package tex

import "fmt"

// Dialect selects the target citation format.
type Dialect int

const (
	// BibTeX is the plain citation format.
	BibTeX Dialect = iota
	// BibLaTeX is the extended, localization-aware format.
	BibLaTeX
)

// String returns the canonical lowercase dialect name.
func (d Dialect) String() string {
	switch d {
	case BibLaTeX:
		return "biblatex"
	default:
		return "bibtex"
	}
}

// ParseDialect parses a dialect name as used in config files.
func ParseDialect(s string) (Dialect, error) {
	switch s {
	case "", "bibtex":
		return BibTeX, nil
	case "biblatex":
		return BibLaTeX, nil
	default:
		return BibTeX, fmt.Errorf("unknown dialect %q (want bibtex or biblatex)", s)
	}
}
