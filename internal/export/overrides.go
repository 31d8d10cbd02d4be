package export

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/texbib/texbib/internal/record"
	"github.com/texbib/texbib/internal/tex"
)

// cslMapping resolves one CSL variable: either a plain target name with an
// encoding, or a value-producing function (which may decline by returning
// a Field with an empty name).
type cslMapping struct {
	name string
	kind EncodingKind
	fn   func(e *Entry, value string) Field
}

// cslMap translates CSL-style override names to entry fields. Unmapped
// variables are logged and dropped, never an error.
var cslMap = map[string]cslMapping{
	"volume":           {name: "volume", kind: KindLiteral},
	"issue":            {name: "number", kind: KindLiteral},
	"edition":          {name: "edition", kind: KindLiteral},
	"publisher":        {name: "publisher", kind: KindText},
	"number-of-pages":  {name: "pagetotal", kind: KindLiteral},
	"doi":              {name: "doi", kind: KindVerbatim},
	"url":              {name: "url", kind: KindURL},
	"isbn":             {name: "isbn", kind: KindVerbatim},
	"issn":             {name: "issn", kind: KindVerbatim},
	"collection-title": {name: "series", kind: KindText},
	"container-title": {fn: func(e *Entry, v string) Field {
		if e.dialect == tex.BibLaTeX {
			return Field{Name: "journaltitle", Value: v, Kind: KindText}
		}
		return Field{Name: "journal", Value: v, Kind: KindText}
	}},
	"publisher-place": {fn: func(e *Entry, v string) Field {
		if e.dialect == tex.BibLaTeX {
			return Field{Name: "location", Value: v, Kind: KindText}
		}
		return Field{Name: "address", Value: v, Kind: KindText}
	}},
	"page": {fn: func(_ *Entry, v string) Field {
		return Field{Name: "pages", Value: normalizePages(v), Kind: KindLiteral}
	}},
	"original-date": {fn: func(e *Entry, v string) Field {
		if e.dialect != tex.BibLaTeX {
			return Field{} // bibtex has no origdate
		}
		return Field{Name: "origdate", Value: v, Kind: KindDate}
	}},
	"original-title": {fn: func(e *Entry, v string) Field {
		if e.dialect != tex.BibLaTeX {
			return Field{}
		}
		return Field{Name: "origtitle", Value: v, Kind: KindText}
	}},
}

// identifierFields are override names special-cased into identifier-style
// fields; value is the target field name ("" keeps the override's name).
var identifierFields = map[string]string{
	"doi":           "doi",
	"pmid":          "pmid",
	"pmcid":         "pmcid",
	"lccn":          "lccn",
	"mr":            "mrnumber",
	"zbl":           "zmnumber",
	"hdl":           "hdl",
	"jstor":         "jstor",
	"googlebooksid": "googlebooks",
}

// applyOverrides walks the pending override entries. Caller-supplied
// overrides always win over record-derived fields, so Replace is forced.
func (e *Entry) applyOverrides() error {
	for _, x := range e.pending {
		name := strings.ToLower(strings.TrimSpace(x.Name))
		if name == "" {
			continue
		}

		// The pseudo-field renames the entry type instead of adding.
		if name == "referencetype" || name == "entrytype" {
			if v := strings.TrimSpace(x.Value); v != "" {
				e.Type = v
			}
			continue
		}

		f, ok := e.resolveOverride(name, x)
		if !ok {
			continue
		}

		// Dialect scope prefix: "typename.fieldname" applies only when
		// the entry type matches.
		if scope, field, found := strings.Cut(f.Name, "."); found {
			if !strings.EqualFold(scope, e.Type) {
				continue
			}
			f.Name = field
		}

		if target, ok := e.Options.FieldRenames[f.Name]; ok {
			if target == "" {
				e.Remove(f.Name)
				continue
			}
			f.Name = target
		}

		// A blank override removes rather than adds.
		if strings.TrimSpace(f.Value) == "" && !f.Preescaped {
			e.Remove(f.Name)
			continue
		}

		f.Replace = true
		if err := e.Add(f); err != nil {
			return err
		}
	}
	e.pending = nil
	return nil
}

// resolveOverride turns one override entry into a field, or drops it.
func (e *Entry) resolveOverride(name string, x record.ExtraField) (Field, bool) {
	if target, ok := identifierFields[name]; ok {
		return Field{Name: target, Value: x.Value, Kind: KindVerbatim, Preescaped: x.Raw}, true
	}

	if x.Format == "csl" {
		m, ok := cslMap[name]
		if !ok {
			logrus.WithField("variable", name).Debug("unmapped CSL variable, dropped")
			return Field{}, false
		}
		if m.fn != nil {
			f := m.fn(e, x.Value)
			if f.Name == "" {
				return Field{}, false
			}
			f.Preescaped = x.Raw
			return f, true
		}
		return Field{Name: m.name, Value: x.Value, Kind: m.kind, Preescaped: x.Raw}, true
	}

	// Already-typed entries pass through under their own name.
	return Field{Name: name, Value: x.Value, Preescaped: x.Raw}, true
}
