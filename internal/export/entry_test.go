package export

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/texbib/texbib/internal/config"
	"github.com/texbib/texbib/internal/record"
)

func testOptions() *config.Options {
	opt := config.Default()
	opt.Testing = true
	return opt
}

func testContext() *Context {
	ctx := NewContext()
	ctx.Clock = func() time.Time {
		return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return ctx
}

func newTestEntry(t *testing.T, rec *record.Record, opt *config.Options) *Entry {
	t.Helper()
	e, err := New(rec, opt, testContext())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestAddRejectsBlankValues(t *testing.T) {
	e := newTestEntry(t, &record.Record{ItemType: "document", Citekey: "x"}, testOptions())

	for _, f := range []Field{
		{Name: "note", Value: ""},
		{Name: "note", Value: "   \t\n"},
		{Name: "keywords", Kind: KindTags},
		{Name: "author", Kind: KindCreators},
	} {
		if err := e.Add(f); err != nil {
			t.Fatalf("Add(%s): %v", f.Name, err)
		}
		if _, ok := e.Has(f.Name); ok {
			t.Errorf("blank %s was added", f.Name)
		}
	}
}

func TestAddPreescapedBypassesBlankCheck(t *testing.T) {
	e := newTestEntry(t, &record.Record{ItemType: "document", Citekey: "x"}, testOptions())

	if err := e.Add(Field{Name: "note", Value: "{already escaped}", Preescaped: true}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	f, ok := e.Has("note")
	if !ok {
		t.Fatal("preescaped field missing")
	}
	if f.encoded != "{already escaped}" {
		t.Errorf("encoded = %q, want value untouched", f.encoded)
	}
}

func TestAddDuplicateField(t *testing.T) {
	e := newTestEntry(t, &record.Record{ItemType: "document", Citekey: "x"}, testOptions())

	if err := e.Add(Field{Name: "note", Value: "one"}); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	err := e.Add(Field{Name: "note", Value: "two"})
	if !errors.Is(err, ErrDuplicateField) {
		t.Fatalf("second Add: got %v, want ErrDuplicateField", err)
	}

	if err := e.Add(Field{Name: "note", Value: "two", Replace: true}); err != nil {
		t.Fatalf("Add with Replace: %v", err)
	}
	f, _ := e.Has("note")
	if !strings.Contains(f.encoded, "two") {
		t.Errorf("replace kept old value: %q", f.encoded)
	}

	if err := e.Add(Field{Name: "note", Value: "three", AllowDuplicates: true}); err != nil {
		t.Fatalf("Add with AllowDuplicates: %v", err)
	}
}

func TestRemove(t *testing.T) {
	e := newTestEntry(t, &record.Record{ItemType: "document", Citekey: "x"}, testOptions())

	if f := e.Remove("absent"); f != nil {
		t.Errorf("Remove(absent) = %v, want nil", f)
	}

	if err := e.Add(Field{Name: "note", Value: "kept"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := e.Add(Field{Name: "howpublished", Value: "online"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	f := e.Remove("note")
	if f == nil || f.Name != "note" {
		t.Fatalf("Remove(note) = %v", f)
	}
	if _, ok := e.Has("note"); ok {
		t.Error("note still present after Remove")
	}
	// The index must stay consistent after the shift.
	if g, ok := e.Has("howpublished"); !ok || g.Name != "howpublished" {
		t.Errorf("index broken after Remove: %v %v", g, ok)
	}
}

func TestLanguageDetection(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		locale  string
		english bool
	}{
		{"no tag defaults to english", "", "english", true},
		{"territory qualified", "en-GB", "british", true},
		{"plain english", "en", "english", true},
		{"german", "de", "german", false},
		{"unresolvable kept literal", "tlh-x-klingon", "tlh-x-klingon", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEntry(t, &record.Record{ItemType: "document", Citekey: "x", Language: tt.tag}, testOptions())
			if e.Locale != tt.locale {
				t.Errorf("Locale = %q, want %q", e.Locale, tt.locale)
			}
			if e.English != tt.english {
				t.Errorf("English = %t, want %t", e.English, tt.english)
			}
		})
	}
}

func TestCitekeyFallback(t *testing.T) {
	rec := &record.Record{
		ItemType: "journalArticle",
		Fields:   map[string]string{"date": "2021-03-05"},
		Creators: map[string][]record.Creator{
			"author": {{Family: "Doe", Given: "Jane"}},
		},
	}
	e := newTestEntry(t, rec, testOptions())
	if e.Citekey != "Doe2021" {
		t.Errorf("Citekey = %q, want Doe2021", e.Citekey)
	}
}

func TestEprintExtraction(t *testing.T) {
	t.Run("from publication title", func(t *testing.T) {
		rec := &record.Record{
			ItemType: "journalArticle",
			Citekey:  "x",
			Fields:   map[string]string{"publicationTitle": "arXiv:2101.12345 [cs.CL]"},
		}
		e := newTestEntry(t, rec, testOptions())

		if _, ok := e.Has("journal"); ok {
			t.Error("journal kept alongside eprint fields")
		}
		for name, want := range map[string]string{
			"archiveprefix": "{arXiv}",
			"eprint":        "{2101.12345}",
			"primaryclass":  "{cs.CL}",
		} {
			f, ok := e.Has(name)
			if !ok {
				t.Fatalf("missing %s", name)
			}
			if f.encoded != want {
				t.Errorf("%s = %q, want %q", name, f.encoded, want)
			}
		}
	})

	t.Run("bare id in override", func(t *testing.T) {
		rec := &record.Record{
			ItemType: "journalArticle",
			Citekey:  "x",
			Extra:    []record.ExtraField{{Name: "arXiv", Value: "1807.03819"}},
		}
		e := newTestEntry(t, rec, testOptions())
		f, ok := e.Has("eprint")
		if !ok || f.encoded != "{1807.03819}" {
			t.Errorf("eprint = %v %t, want {1807.03819}", f, ok)
		}
	})
}

func TestPageRangeNormalization(t *testing.T) {
	rec := &record.Record{
		ItemType: "journalArticle",
		Citekey:  "x",
		Fields:   map[string]string{"pages": "10-20"},
	}
	e := newTestEntry(t, rec, testOptions())
	f, ok := e.Has("pages")
	if !ok || f.encoded != "{10--20}" {
		t.Errorf("pages = %v %t, want {10--20}", f, ok)
	}
}

func TestRelaxSpanRendering(t *testing.T) {
	e := newTestEntry(t, &record.Record{ItemType: "document", Citekey: "x"}, testOptions())

	if err := e.Add(Field{Name: "note", Value: `<span class="relax">de</span> Anza expedition records`}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	f, ok := e.Has("note")
	if !ok {
		t.Fatal("note field missing")
	}
	if !strings.Contains(f.encoded, `{\relax de}`) {
		t.Errorf("relax span not rendered: %q", f.encoded)
	}
}

func TestPreserveVariables(t *testing.T) {
	opt := testOptions()
	opt.PreserveVariables = true
	e := newTestEntry(t, &record.Record{ItemType: "document", Citekey: "x"}, opt)

	if err := e.Add(Field{Name: "journal", Value: "jacs", Kind: KindLiteral}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	f, _ := e.Has("journal")
	if f.encoded != "jacs" {
		t.Errorf("variable reference braced: %q", f.encoded)
	}
}
