package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/texbib/texbib/internal/config"
)

// Complete runs the final assembly pass and returns the serialized block.
//
// Order matters: exclusivity policy, override resolution, skip-field
// removal, the empty-entry fallback, the postscript hook, deterministic
// sorting (testing mode), serialization, and finally the side effects
// (sink write, cache store, preamble propagation).
func (e *Entry) Complete() (string, error) {
	e.applyExclusivePolicy()

	if err := e.applyOverrides(); err != nil {
		return "", err
	}

	for _, name := range e.Options.SkipFields {
		e.Remove(name)
	}

	if len(e.fields) == 0 {
		if err := e.Add(Field{Name: "type", Value: e.Type, Kind: KindLiteral}); err != nil {
			return "", err
		}
	}

	if e.ctx != nil && e.ctx.Postscript != nil {
		if err := e.ctx.Postscript(e, e.Record); err != nil {
			logrus.WithError(err).WithField("citekey", e.Citekey).Warn("postscript hook failed, continuing")
		}
	}

	if e.Options.Testing {
		sort.SliceStable(e.fields, func(i, j int) bool {
			return e.fields[i].line() < e.fields[j].line()
		})
		e.reindex()
	}

	block := e.serialize()

	if err := e.emit(block); err != nil {
		return "", err
	}
	return block, nil
}

// applyExclusivePolicy drops one of doi/url when the profile says the two
// cannot coexist.
func (e *Entry) applyExclusivePolicy() {
	_, hasDOI := e.index["doi"]
	_, hasURL := e.index["url"]
	if !hasDOI || !hasURL {
		return
	}
	switch e.Options.DOIAndURL {
	case config.KeepDOI:
		e.Remove("url")
	case config.KeepURL:
		e.Remove("doi")
	}
}

func (f *Field) line() string {
	return fmt.Sprintf("%s = %s", f.Name, f.encoded)
}

// serialize renders the block layout:
//
//	@type{citekey,
//	  name = value,
//	  ...
//	}
//
// followed by the optional quality report and a blank line.
func (e *Entry) serialize() string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", e.Type, e.Citekey)
	lines := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		lines = append(lines, "  "+f.line())
	}
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n}\n")

	if e.Options.QualityReport {
		for _, line := range e.qualityReport() {
			b.WriteString("% " + line + "\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

// emit performs the end-of-record side effects exactly once.
func (e *Entry) emit(block string) error {
	if e.ctx == nil {
		return nil
	}

	if e.ctx.Sink != nil {
		if _, err := io.WriteString(e.ctx.Sink, block); err != nil {
			return fmt.Errorf("writing entry %s: %w", e.Citekey, err)
		}
	}

	decls := make([]string, 0, len(e.preamble))
	for d := range e.preamble {
		decls = append(decls, d)
	}
	sort.Strings(decls)
	e.ctx.AddPreamble(decls...)

	if e.ctx.Cache != nil {
		if err := e.ctx.Cache.Store(e.Record.ItemID, e.cacheContext(), e.Citekey, block, decls); err != nil {
			return fmt.Errorf("caching entry %s: %w", e.Citekey, err)
		}
	}
	return nil
}

// cacheContext keys cached blocks by every policy that changes the bytes.
func (e *Entry) cacheContext() string {
	return fmt.Sprintf("%s/ascii=%t/title=%t/caps=%t", e.dialect, e.Options.ASCII, e.Options.TitleCase, e.Options.ProtectCaps)
}
