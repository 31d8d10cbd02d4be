// Package export assembles one citation entry per bibliographic record:
// field selection, override resolution, de-duplication, encoding, and final
// serialization into a BibTeX or BibLaTeX block.
package export

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"

	"github.com/texbib/texbib/internal/cache"
	"github.com/texbib/texbib/internal/config"
	"github.com/texbib/texbib/internal/eprint"
	"github.com/texbib/texbib/internal/langid"
	"github.com/texbib/texbib/internal/record"
	"github.com/texbib/texbib/internal/tex"
)

// ErrDuplicateField reports an Add for a field name that already exists
// without replace or allow-duplicates set. Fatal for the record.
var ErrDuplicateField = errors.New("export: duplicate field")

// EncodingKind is the closed set of field encodings.
type EncodingKind int

const (
	// KindText runs the markup normalizer and full escaping.
	KindText EncodingKind = iota
	// KindLiteral escapes but never case-converts.
	KindLiteral
	// KindVerbatim uses the reduced escape set (doi, isbn, file paths).
	KindVerbatim
	// KindURL is verbatim escaping for URLs.
	KindURL
	// KindDate holds an already-formatted date string.
	KindDate
	// KindCreators formats a creator list.
	KindCreators
	// KindTags formats a tag list.
	KindTags
	// KindAttachments formats an attachment list.
	KindAttachments
	// KindRaw passes the value through unbraced and unescaped.
	KindRaw
)

// kindNames parses config-supplied encoding names.
var kindNames = map[string]EncodingKind{
	"text": KindText, "literal": KindLiteral, "verbatim": KindVerbatim,
	"url": KindURL, "date": KindDate, "creators": KindCreators,
	"tags": KindTags, "attachments": KindAttachments, "raw": KindRaw,
}

// Field is one entry field awaiting serialization.
type Field struct {
	Name  string
	Value string

	Creators    []record.Creator
	Tags        []record.Tag
	Attachments []record.Attachment

	Kind EncodingKind
	// Preescaped marks a value that is already in target-format syntax;
	// it bypasses encoding and the empty-value check.
	Preescaped bool
	// Replace removes any existing field of the same name first.
	Replace bool
	// AllowDuplicates permits a second field with the same name.
	AllowDuplicates bool

	encoded string
}

// Context carries the cross-record state of one export run: the preamble
// character accumulator, the output sink, the optional cache, and hooks.
// Safe for use from a single goroutine per record; the accumulator is
// mutex-guarded so parallel pipelines reduce into it safely.
type Context struct {
	mu       sync.Mutex
	preamble map[string]bool

	// Clock overrides time.Now for the timestamp field; set in testing.
	Clock func() time.Time
	// Sink receives every serialized block.
	Sink io.Writer
	// Cache, when set, stores each block keyed by item and context.
	Cache *cache.DB
	// Postscript runs after field assembly; its error is logged, never
	// fatal.
	Postscript func(*Entry, *record.Record) error
}

// NewContext returns an empty assembly context.
func NewContext() *Context {
	return &Context{preamble: map[string]bool{}}
}

// AddPreamble records declaration strings that must appear once in the
// global preamble (particle punctuation, \noopsort).
func (c *Context) AddPreamble(decls ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range decls {
		if d != "" {
			c.preamble[d] = true
		}
	}
}

// Preamble returns the accumulated declarations, sorted for determinism.
func (c *Context) Preamble() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	decls := make([]string, 0, len(c.preamble))
	for d := range c.preamble {
		decls = append(decls, d)
	}
	sort.Strings(decls)
	return decls
}

// Entry is the in-progress citation entry for one record.
type Entry struct {
	Record  *record.Record
	Options *config.Options

	Type    string // entry type: article, book, misc, ...
	Citekey string
	Locale  string // resolved canonical locale name, or the literal tag
	English bool

	ctx     *Context
	dialect tex.Dialect

	fields []*Field
	index  map[string]int

	pending []record.ExtraField

	eprintID  eprint.ID
	hasEprint bool

	preamble map[string]bool // entry-local, drained into ctx on Complete
}

// New builds the entry skeleton for one record: language detection, type
// mapping, override intake, declarative field population, timestamp, and
// arXiv extraction.
func New(rec *record.Record, opt *config.Options, ctx *Context) (*Entry, error) {
	dialect, err := tex.ParseDialect(opt.Dialect)
	if err != nil {
		return nil, err
	}

	e := &Entry{
		Record:   rec,
		Options:  opt,
		ctx:      ctx,
		dialect:  dialect,
		index:    map[string]int{},
		preamble: map[string]bool{},
		pending:  rec.Extra,
	}

	e.detectLanguage()
	e.Type = entryType(rec.ItemType, dialect)
	e.Citekey = citekey(rec)

	if err := e.populate(); err != nil {
		return nil, err
	}
	if err := e.addTimestamp(); err != nil {
		return nil, err
	}
	if err := e.extractEprint(); err != nil {
		return nil, err
	}
	return e, nil
}

// detectLanguage resolves the record language tag. Records without a tag
// default to english; unresolvable tags are kept as opaque locale names.
func (e *Entry) detectLanguage() {
	tag := strings.TrimSpace(e.Record.Language)
	if tag == "" {
		e.Locale = "english"
		e.English = true
		return
	}
	if name, ok := langid.Resolve(tag); ok {
		e.Locale = name
	} else {
		e.Locale = strings.ToLower(tag)
	}
	e.English = langid.IsEnglish(e.Locale)
}

// citekey returns the record's citekey, deriving a family-name/year key
// when the host supplied none.
func citekey(rec *record.Record) string {
	if rec.Citekey != "" {
		return rec.Citekey
	}
	name := "anon"
	if authors := rec.CreatorsByRole("author"); len(authors) > 0 {
		if f := strings.TrimSpace(authors[0].Family); f != "" {
			name = strings.ReplaceAll(f, " ", "")
		} else if n := strings.TrimSpace(authors[0].Name); n != "" {
			name = strings.ReplaceAll(n, " ", "")
		}
	}
	if t, err := dateparse.ParseAny(rec.Field("date")); err == nil {
		return fmt.Sprintf("%s%d", name, t.Year())
	}
	return name
}

// Has returns the named field if present.
func (e *Entry) Has(name string) (*Field, bool) {
	i, ok := e.index[name]
	if !ok {
		return nil, false
	}
	return e.fields[i], true
}

// Add normalizes, validates, encodes, and appends one field.
//
// Empty, blank, and empty-list values are rejected silently unless the
// value is pre-escaped. An existing field of the same name is removed first
// under Replace, tolerated under AllowDuplicates, and a hard
// ErrDuplicateField otherwise.
func (e *Entry) Add(f Field) error {
	if f.Name == "" {
		return nil
	}
	if !f.Preescaped && strings.TrimSpace(f.Value) == "" &&
		len(f.Creators) == 0 && len(f.Tags) == 0 && len(f.Attachments) == 0 {
		return nil
	}

	if f.Replace {
		e.Remove(f.Name)
	} else if _, exists := e.index[f.Name]; exists && !f.AllowDuplicates {
		return fmt.Errorf("%w: %s", ErrDuplicateField, f.Name)
	}

	e.resolveKind(&f)

	if f.Preescaped {
		f.encoded = f.Value
	} else {
		enc, ok := kindEncoders[f.Kind]
		if !ok {
			return fmt.Errorf("no encoder for kind %d (field %s)", f.Kind, f.Name)
		}
		encoded, err := enc(e, &f)
		if err != nil {
			return fmt.Errorf("encoding field %s: %w", f.Name, err)
		}
		f.encoded = stripEmptyGroup(encoded)
		if f.encoded == "" || f.encoded == "{}" {
			return nil
		}
	}

	if _, exists := e.index[f.Name]; !exists {
		e.index[f.Name] = len(e.fields)
	}
	e.fields = append(e.fields, &f)
	return nil
}

// resolveKind picks the encoder: a config override wins over everything
// (so a profile can force e.g. raw creator lists), then the caller's
// explicit kind, then the per-name table, else text.
func (e *Entry) resolveKind(f *Field) {
	if enc, ok := e.Options.FieldEncodings[f.Name]; ok {
		if k, ok := kindNames[enc]; ok {
			f.Kind = k
			return
		}
	}
	if f.Kind != KindText {
		return
	}
	if k, ok := fieldKinds[f.Name]; ok {
		f.Kind = k
	}
}

// Remove deletes and returns the named field; a no-op when absent.
func (e *Entry) Remove(name string) *Field {
	i, ok := e.index[name]
	if !ok {
		return nil
	}
	f := e.fields[i]
	e.fields = append(e.fields[:i], e.fields[i+1:]...)
	delete(e.index, name)
	for n, j := range e.index {
		if j > i {
			e.index[n] = j - 1
		}
	}
	return f
}

// reindex rebuilds the name index from field order. Must run after any
// reordering of e.fields; first occurrence wins for duplicate names.
func (e *Entry) reindex() {
	e.index = make(map[string]int, len(e.fields))
	for i, f := range e.fields {
		if _, ok := e.index[f.Name]; !ok {
			e.index[f.Name] = i
		}
	}
}

// stripEmptyGroup drops a dangling empty group left at the end of encoded
// output, keeping escaped literal braces intact.
func stripEmptyGroup(s string) string {
	if strings.HasSuffix(s, "{}") && !strings.HasSuffix(s, `\{}`) && s != "{}" {
		return s[:len(s)-2]
	}
	return s
}

// addTimestamp adds the timestamp field: a frozen test clock wins over the
// record's modification time over its creation time.
func (e *Entry) addTimestamp() error {
	var value string
	switch {
	case e.ctx != nil && e.ctx.Clock != nil:
		value = e.ctx.Clock().Format("2006-01-02")
	case e.Record.DateModified != "":
		value = formatDate(e.Record.DateModified)
	case e.Record.DateAdded != "":
		value = formatDate(e.Record.DateAdded)
	}
	return e.Add(Field{Name: "timestamp", Value: value, Kind: KindDate})
}

func formatDate(s string) string {
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02")
}

// extractEprint pulls an arXiv identifier from the "arxiv" override or a
// preprint-server publication title, replacing the redundant journal field
// with the derived eprint fields.
func (e *Entry) extractEprint() error {
	var source string
	for i, x := range e.pending {
		if strings.EqualFold(x.Name, "arxiv") {
			source = x.Value
			if _, ok := eprint.Parse(source); !ok {
				// Bare ids are allowed in the override.
				source = "arXiv:" + strings.TrimSpace(x.Value)
			}
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			break
		}
	}
	if source == "" {
		source = e.Record.Field("publicationTitle")
	}

	id, ok := eprint.Parse(source)
	if !ok {
		return nil
	}
	e.eprintID = id
	e.hasEprint = true

	// The journal title only duplicated the identifier.
	if e.dialect == tex.BibTeX {
		e.Remove("journal")
	} else {
		e.Remove("journaltitle")
	}
	e.Record.RemoveField("publicationTitle")

	for _, f := range []Field{
		{Name: "archiveprefix", Value: "arXiv", Kind: KindLiteral, Replace: true},
		{Name: "eprinttype", Value: "arxiv", Kind: KindLiteral, Replace: true},
		{Name: "eprint", Value: id.Eprint, Kind: KindVerbatim, Replace: true},
		{Name: "primaryclass", Value: id.PrimaryClass, Kind: KindVerbatim, Replace: true},
	} {
		if err := e.Add(f); err != nil {
			return err
		}
	}
	return nil
}
