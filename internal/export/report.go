package export

import (
	"fmt"
	"strings"

	"github.com/texbib/texbib/internal/markup"
)

// qualityReport returns human-readable diagnostics for the entry, emitted
// as trailing comment lines when the profile asks for them. Checks are
// heuristic; the report never fails an export.
func (e *Entry) qualityReport() []string {
	var lines []string

	if required, ok := requiredFields[e.Type]; ok {
		for _, want := range required {
			if !e.hasAny(want) {
				lines = append(lines, fmt.Sprintf("== %s: missing required field %s", e.Type, want))
			}
		}
	}

	switch e.Type {
	case "proceedings":
		if _, ok := e.Has("pages"); ok {
			lines = append(lines, "== proceedings with a page range, did you mean inproceedings?")
		}
	case "inproceedings":
		if f, ok := e.Has("booktitle"); ok {
			title := strings.ToLower(f.Value)
			if !strings.Contains(title, "proceedings") && !strings.Contains(title, "workshop") &&
				!strings.Contains(title, "conference") && !strings.Contains(title, "symposium") {
				lines = append(lines, "== inproceedings booktitle does not look like a proceedings title")
			}
		}
	case "article":
		if f, ok := e.journalField(); ok && strings.Contains(f.Value, ".") {
			lines = append(lines, fmt.Sprintf("== %s looks abbreviated: %q", f.Name, f.Value))
		}
	}

	if e.Options.TitleCase && e.English {
		if f, ok := e.Has("title"); ok && f.Value != "" {
			if markup.TitleCase(f.Value, e.Locale) == f.Value {
				lines = append(lines, "== title is already title-cased; sentence case in the source avoids double conversion")
			}
		}
	}
	return lines
}

// hasAny reports whether any of the "/"-separated alternatives is present.
func (e *Entry) hasAny(names string) bool {
	for _, name := range strings.Split(names, "/") {
		if _, ok := e.Has(name); ok {
			return true
		}
	}
	return false
}

func (e *Entry) journalField() (*Field, bool) {
	if f, ok := e.Has("journal"); ok {
		return f, true
	}
	return e.Has("journaltitle")
}
