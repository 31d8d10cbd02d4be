package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/texbib/texbib/internal/markup"
	"github.com/texbib/texbib/internal/tex"
)

// kindEncoders dispatches each encoding kind to its encoder. The map is
// total over the EncodingKind constants; Add fails loudly on a gap.
var kindEncoders = map[EncodingKind]func(*Entry, *Field) (string, error){
	KindText:        encodeText,
	KindLiteral:     encodeLiteral,
	KindVerbatim:    encodeVerbatim,
	KindURL:         encodeVerbatim,
	KindDate:        encodeLiteral,
	KindCreators:    encodeCreators,
	KindTags:        encodeTags,
	KindAttachments: encodeAttachments,
	KindRaw:         encodeRaw,
}

// populate walks the declarative field map and the record collections.
func (e *Entry) populate() error {
	for _, spec := range fieldMap {
		name := spec.bibtex
		if e.dialect == tex.BibLaTeX {
			name = spec.biblatex
		}
		if name == "" {
			continue
		}
		value := e.Record.Field(spec.attr)
		if spec.attr == "pages" {
			value = normalizePages(value)
		}
		if err := e.Add(Field{Name: name, Value: value, Kind: spec.kind}); err != nil {
			return err
		}
	}

	for role, field := range map[string]string{
		"author": "author", "editor": "editor", "translator": "translator",
	} {
		if err := e.Add(Field{Name: field, Creators: e.Record.CreatorsByRole(role), Kind: KindCreators}); err != nil {
			return err
		}
	}

	if err := e.addDate(); err != nil {
		return err
	}
	if e.dialect == tex.BibLaTeX && e.Record.Language != "" {
		if err := e.Add(Field{Name: "langid", Value: e.Locale, Kind: KindLiteral}); err != nil {
			return err
		}
	}
	if err := e.Add(Field{Name: "keywords", Tags: e.Record.Tags, Kind: KindTags}); err != nil {
		return err
	}
	if e.Options.ExportFileData {
		if err := e.Add(Field{Name: "file", Attachments: e.Record.Attachments, Kind: KindAttachments}); err != nil {
			return err
		}
	}
	return nil
}

// addDate renders the record date: BibLaTeX gets an ISO date field, BibTeX
// a year plus a month macro. Unparseable values land verbatim in the year
// (BibTeX) or date (BibLaTeX) field rather than being dropped.
func (e *Entry) addDate() error {
	raw := strings.TrimSpace(e.Record.Field("date"))
	if raw == "" {
		return nil
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		name := "year"
		if e.dialect == tex.BibLaTeX {
			name = "date"
		}
		return e.Add(Field{Name: name, Value: raw, Kind: KindLiteral})
	}

	if e.dialect == tex.BibLaTeX {
		return e.Add(Field{Name: "date", Value: t.Format("2006-01-02"), Kind: KindDate})
	}
	if err := e.Add(Field{Name: "year", Value: fmt.Sprintf("%d", t.Year()), Kind: KindLiteral}); err != nil {
		return err
	}
	return e.Add(Field{Name: "month", Value: months[t.Month()-1], Kind: KindRaw})
}

var rePageRange = regexp.MustCompile(`(\d)\s*-\s*(\d)`)

// normalizePages turns single-dash page ranges into the -- TeX expects,
// leaving existing double dashes alone.
func normalizePages(pages string) string {
	if strings.Contains(pages, "--") {
		return pages
	}
	return rePageRange.ReplaceAllString(pages, "$1--$2")
}

func encodeLiteral(e *Entry, f *Field) (string, error) {
	if e.Options.PreserveVariables && isVariableRef(f.Value) {
		return f.Value, nil
	}
	return "{" + tex.Escape(collapseSpace(f.Value), tex.Text, e.Options.ASCII) + "}", nil
}

func encodeVerbatim(e *Entry, f *Field) (string, error) {
	return "{" + tex.Escape(strings.TrimSpace(f.Value), tex.Verbatim, false) + "}", nil
}

// encodeRaw passes values through untouched; a raw creator list is joined
// verbatim without name splitting or escaping.
func encodeRaw(_ *Entry, f *Field) (string, error) {
	if len(f.Creators) > 0 {
		return rawCreators(f.Creators), nil
	}
	return f.Value, nil
}

// reVariableRef matches @string-style variable names kept unbraced under
// the preserve-variables policy.
var reVariableRef = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.:-]*$`)

func isVariableRef(s string) bool {
	return reVariableRef.MatchString(s)
}

// encodeText runs the markup normalizer over the value and renders the
// node tree with the dialect's commands.
func encodeText(e *Entry, f *Field) (string, error) {
	convert := e.Options.TitleCase && e.English && isTitleField(f.Name)
	root, err := markup.Parse(collapseSpace(f.Value), markup.Options{
		CaseConversion: convert,
		ProtectCaps:    e.Options.ProtectCaps,
		Locale:         e.Locale,
		Csquotes:       e.Options.Csquotes,
	})
	if err != nil {
		return "", err
	}
	rendered := stripEmptyGroup(e.render(root))
	return "{" + rendered + "}", nil
}

// isTitleField limits case conversion to title-like fields.
func isTitleField(name string) bool {
	switch name {
	case "title", "booktitle", "shorttitle", "origtitle", "maintitle", "eventtitle":
		return true
	}
	return false
}

// render serializes a markup tree with TeX commands.
func (e *Entry) render(n *markup.Node) string {
	if n.IsText() {
		return tex.Escape(n.TitleCased, tex.Text, e.Options.ASCII)
	}

	if n.Verbatim {
		var b strings.Builder
		for _, c := range n.Children {
			b.WriteString(c.Text)
		}
		return b.String()
	}

	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(e.render(c))
	}
	s := b.String()

	switch {
	case n.NoCase:
		s = "{" + s + "}"
	case n.SmallCaps:
		s = `\textsc{` + s + `}`
	case n.Enquote:
		if e.dialect == tex.BibLaTeX {
			s = `\enquote{` + s + `}`
		} else {
			s = "``" + s + "''"
		}
	}
	if n.Relax {
		// Zero-width marker keeping sorting and case handling off the span,
		// same device as punctuation-terminated name particles.
		s = `{\relax ` + s + `}`
	}

	switch n.Name {
	case "i":
		return `\emph{` + s + `}`
	case "b":
		return `\textbf{` + s + `}`
	case "sup":
		return `\textsuperscript{` + s + `}`
	case "sub":
		return `\textsubscript{` + s + `}`
	}
	return s
}

// encodeTags joins tag names, escaping separators so multi-word keywords
// survive round trips.
func encodeTags(e *Entry, f *Field) (string, error) {
	var tags []string
	for _, t := range f.Tags {
		name := strings.TrimSpace(t.Tag)
		if name == "" {
			continue
		}
		tags = append(tags, strings.ReplaceAll(tex.Escape(name, tex.Text, e.Options.ASCII), ",", `\,`))
	}
	if len(tags) == 0 {
		return "", nil
	}
	return "{" + strings.Join(tags, ", ") + "}", nil
}

// encodeAttachments renders the attachment list in the
// description:path:mimetype convention used by reference managers.
func encodeAttachments(_ *Entry, f *Field) (string, error) {
	escapeComponent := func(s string) string {
		s = strings.ReplaceAll(s, `\`, `\\`)
		s = strings.ReplaceAll(s, `:`, `\:`)
		s = strings.ReplaceAll(s, `;`, `\;`)
		return s
	}
	var parts []string
	for _, a := range f.Attachments {
		if a.Path == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%s:%s",
			escapeComponent(a.Title), escapeComponent(a.Path), escapeComponent(a.MimeType)))
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "{" + strings.Join(parts, ";") + "}", nil
}

// collapseSpace normalizes runs of whitespace (including newlines pasted
// into record fields) to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
