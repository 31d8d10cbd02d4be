package export

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/texbib/texbib/internal/names"
	"github.com/texbib/texbib/internal/record"
	"github.com/texbib/texbib/internal/tex"
)

// encodeCreators maps every creator through the name formatter and joins
// the results with " and ", skipping creators that format to nothing.
func encodeCreators(e *Entry, f *Field) (string, error) {
	var parts []string
	for _, c := range f.Creators {
		s := e.formatCreator(c)
		if s == "" {
			continue
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "{" + strings.Join(parts, " and ") + "}", nil
}

// rawCreators joins a creator list verbatim, without name splitting,
// particle handling, or escaping. Used when a profile forces the raw
// encoding on a creator field.
func rawCreators(creators []record.Creator) string {
	var parts []string
	for _, c := range creators {
		if s := rawCreator(c); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "{" + strings.Join(parts, " and ") + "}"
}

// rawCreator emits "lastName, firstName" without any escaping.
func rawCreator(c record.Creator) string {
	if c.Name != "" {
		return c.Name
	}
	if c.Given == "" {
		return c.Family
	}
	return c.Family + ", " + c.Given
}

// formatCreator renders one creator under the active dialect.
func (e *Entry) formatCreator(c record.Creator) string {
	if c.IsEmpty() {
		return ""
	}

	// Opaque display names are emitted literal so BibTeX never splits
	// them into name parts.
	if c.Name != "" {
		return "{" + tex.Escape(c.Name, tex.Text, e.Options.ASCII) + "}"
	}

	p := splitCreator(c)
	family := strings.TrimSpace(p.Family)
	literal := false

	// Quoted family names are literal text, exempt from case adjustment.
	if strings.HasPrefix(family, `"`) && strings.HasSuffix(family, `"`) && len(family) > 1 {
		family = strings.Trim(family, `"`)
		literal = true
	}
	if startsLower(family) {
		literal = true
	}

	if e.dialect == tex.BibLaTeX {
		return e.formatBibLaTeX(p, family, literal)
	}
	return e.formatBibTeX(p, family, literal)
}

// splitCreator honors pre-split particle fields and falls back to the
// particle parser otherwise.
func splitCreator(c record.Creator) names.Parsed {
	if c.NonDroppingParticle != "" || c.DroppingParticle != "" || c.Suffix != "" {
		return names.Parsed{
			Family:              c.Family,
			Given:               c.Given,
			NonDroppingParticle: c.NonDroppingParticle,
			DroppingParticle:    c.DroppingParticle,
			Suffix:              c.Suffix,
		}
	}
	return names.Split(c.Family, c.Given)
}

// formatBibTeX orders the parts as
// [dropping][non-dropping]family[, suffix][, given].
func (e *Entry) formatBibTeX(p names.Parsed, family string, literal bool) string {
	fam := e.escapeName(family)
	if literal {
		fam = "{" + fam + "}"
	}
	if e.Options.NoopSort && (p.DroppingParticle != "" || p.NonDroppingParticle != "") {
		// Sort on the bare lowercase family, render with particles.
		e.preamble[`\newcommand{\noopsort}[1]{}`] = true
		fam = `\noopsort{` + strings.ToLower(family) + `}` + fam
	}

	var b strings.Builder
	b.WriteString(e.padParticle(p.DroppingParticle))
	b.WriteString(e.padParticle(p.NonDroppingParticle))
	b.WriteString(fam)
	if p.Suffix != "" {
		b.WriteString(", " + e.escapeName(p.Suffix))
	}
	if p.Given != "" {
		b.WriteString(", " + e.escapeName(p.Given))
	}
	return b.String()
}

// formatBibLaTeX orders the parts as [non-dropping]family[, suffix][, given]
// with the particle escaped together with the family; a family that starts
// with or contains a lowercase word is wrapped literal so later case
// conversion cannot touch multi-word lowercase-led surnames.
func (e *Entry) formatBibLaTeX(p names.Parsed, family string, literal bool) string {
	fam := e.padParticle(p.NonDroppingParticle) + family
	escaped := e.escapeName(fam)
	if literal || containsLowerWord(fam) {
		escaped = "{" + escaped + "}"
	}

	given := p.Given
	if p.DroppingParticle != "" {
		given = strings.TrimSpace(given + " " + strings.TrimSpace(p.DroppingParticle))
	}

	var b strings.Builder
	b.WriteString(escaped)
	if p.Suffix != "" {
		b.WriteString(", " + e.escapeName(p.Suffix))
	}
	if given != "" {
		b.WriteString(", " + e.escapeName(given))
	}
	return b.String()
}

// padParticle normalizes the trailing spacing of a particle and records
// punctuation that needs a preamble declaration.
//
// A particle that already ends in a space is trusted as-is. Otherwise:
// BibLaTeX always gets exactly one space, with trailing punctuation
// recorded for the preamble; BibTeX appends a space after a period, a
// zero-width \relax before the space after other punctuation (so the
// punctuation cannot interfere with sorting), and a plain space otherwise.
func (e *Entry) padParticle(particle string) string {
	if particle == "" {
		return ""
	}
	if strings.HasSuffix(particle, " ") {
		return particle
	}

	last, _ := utf8.DecodeLastRuneInString(particle)
	if e.dialect == tex.BibLaTeX {
		if unicode.IsPunct(last) {
			e.preamble[string(last)] = true
		}
		return particle + " "
	}

	switch {
	case last == '.':
		return particle + " "
	case unicode.IsPunct(last):
		return particle + `\relax `
	default:
		return particle + " "
	}
}

func (e *Entry) escapeName(s string) string {
	return tex.Escape(s, tex.Text, e.Options.ASCII)
}

// startsLower reports whether s begins with a lowercase letter,
// Unicode-aware.
func startsLower(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLower(r)
}

// containsLowerWord reports whether any word of s starts lowercase.
func containsLowerWord(s string) bool {
	for _, w := range strings.Fields(s) {
		if startsLower(w) {
			return true
		}
	}
	return false
}
