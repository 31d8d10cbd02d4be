package export

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/texbib/texbib/internal/record"
)

func TestCompleteSerialization(t *testing.T) {
	rec := &record.Record{
		ItemType: "journalArticle",
		Citekey:  "doe2021",
		Fields: map[string]string{
			"title":            "Hello world",
			"publicationTitle": "Nature",
			"date":             "2021-03-05",
			"volume":           "12",
			"pages":            "10-20",
		},
		Creators: map[string][]record.Creator{
			"author": {{Family: "Doe", Given: "Jane"}},
		},
	}

	var out strings.Builder
	ctx := testContext()
	ctx.Sink = &out

	e, err := New(rec, testOptions(), ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	block, err := e.Complete()
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	want := "@article{doe2021,\n" +
		"  author = {Doe, Jane},\n" +
		"  journal = {Nature},\n" +
		"  month = mar,\n" +
		"  pages = {10--20},\n" +
		"  timestamp = {2020-01-01},\n" +
		"  title = {Hello World},\n" +
		"  volume = {12},\n" +
		"  year = {2021}\n" +
		"}\n\n"
	if block != want {
		t.Errorf("block:\n%s\nwant:\n%s", block, want)
	}
	if out.String() != block {
		t.Errorf("sink got %q, want the serialized block", out.String())
	}
}

func TestCompleteBibLaTeX(t *testing.T) {
	opt := testOptions()
	opt.Dialect = "biblatex"
	rec := &record.Record{
		ItemType: "journalArticle",
		Citekey:  "doe2021",
		Language: "en-GB",
		Fields: map[string]string{
			"publicationTitle": "Nature",
			"date":             "2021-03-05",
		},
	}

	e := newTestEntry(t, rec, opt)
	block, err := e.Complete()
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	for _, want := range []string{
		"journaltitle = {Nature}",
		"date = {2021-03-05}",
		"langid = {british}",
	} {
		if !strings.Contains(block, want) {
			t.Errorf("block missing %q:\n%s", want, block)
		}
	}
	if strings.Contains(block, "journal =") {
		t.Errorf("bibtex field name in biblatex output:\n%s", block)
	}
}

func TestDOIAndURLPolicy(t *testing.T) {
	tests := []struct {
		policy string
		hasDOI bool
		hasURL bool
	}{
		{"both", true, true},
		{"doi", true, false},
		{"url", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			opt := testOptions()
			opt.DOIAndURL = tt.policy
			rec := &record.Record{
				ItemType: "journalArticle",
				Citekey:  "x",
				Fields: map[string]string{
					"DOI": "10.1000/182",
					"url": "https://example.com/paper",
				},
			}
			e := newTestEntry(t, rec, opt)
			block, err := e.Complete()
			if err != nil {
				t.Fatalf("Complete: %v", err)
			}
			if got := strings.Contains(block, "doi ="); got != tt.hasDOI {
				t.Errorf("doi present = %t, want %t", got, tt.hasDOI)
			}
			if got := strings.Contains(block, "url ="); got != tt.hasURL {
				t.Errorf("url present = %t, want %t", got, tt.hasURL)
			}
		})
	}
}

func TestSkipFields(t *testing.T) {
	opt := testOptions()
	opt.SkipFields = []string{"timestamp", "volume"}
	rec := &record.Record{
		ItemType: "journalArticle",
		Citekey:  "x",
		Fields:   map[string]string{"volume": "3", "pages": "1--2"},
	}
	e := newTestEntry(t, rec, opt)
	block, err := e.Complete()
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	for _, gone := range []string{"timestamp", "volume"} {
		if strings.Contains(block, gone) {
			t.Errorf("skipped field %s survived:\n%s", gone, block)
		}
	}
}

func TestEmptyEntryFallback(t *testing.T) {
	opt := testOptions()
	opt.SkipFields = []string{"timestamp"}
	e := newTestEntry(t, &record.Record{ItemType: "interview", Citekey: "x"}, opt)
	block, err := e.Complete()
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(block, "type = {misc}") {
		t.Errorf("empty entry lacks fallback field:\n%s", block)
	}
}

func TestOverrides(t *testing.T) {
	t.Run("csl variable wins over record field", func(t *testing.T) {
		rec := &record.Record{
			ItemType: "journalArticle",
			Citekey:  "x",
			Fields:   map[string]string{"volume": "12"},
			Extra:    []record.ExtraField{{Name: "volume", Value: "99", Format: "csl"}},
		}
		e := newTestEntry(t, rec, testOptions())
		block, err := e.Complete()
		if err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if !strings.Contains(block, "volume = {99}") {
			t.Errorf("override lost:\n%s", block)
		}
	})

	t.Run("blank override removes", func(t *testing.T) {
		rec := &record.Record{
			ItemType: "journalArticle",
			Citekey:  "x",
			Fields:   map[string]string{"volume": "12"},
			Extra:    []record.ExtraField{{Name: "volume", Value: "", Format: "csl"}},
		}
		e := newTestEntry(t, rec, testOptions())
		block, err := e.Complete()
		if err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if strings.Contains(block, "volume") {
			t.Errorf("blank override did not remove:\n%s", block)
		}
	})

	t.Run("referencetype renames the entry", func(t *testing.T) {
		rec := &record.Record{
			ItemType: "journalArticle",
			Citekey:  "x",
			Extra:    []record.ExtraField{{Name: "referencetype", Value: "report"}},
		}
		e := newTestEntry(t, rec, testOptions())
		block, err := e.Complete()
		if err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if !strings.HasPrefix(block, "@report{x,") {
			t.Errorf("entry type not renamed:\n%s", block)
		}
	})

	t.Run("scoped override applies only to matching type", func(t *testing.T) {
		rec := &record.Record{
			ItemType: "journalArticle",
			Citekey:  "x",
			Extra: []record.ExtraField{
				{Name: "article.note", Value: "kept"},
				{Name: "book.note", Value: "dropped", Raw: false},
			},
		}
		e := newTestEntry(t, rec, testOptions())
		block, err := e.Complete()
		if err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if !strings.Contains(block, "note = {kept}") {
			t.Errorf("matching scope not applied:\n%s", block)
		}
		if strings.Contains(block, "dropped") {
			t.Errorf("non-matching scope applied:\n%s", block)
		}
	})

	t.Run("identifier override", func(t *testing.T) {
		rec := &record.Record{
			ItemType: "journalArticle",
			Citekey:  "x",
			Extra:    []record.ExtraField{{Name: "PMID", Value: "12345678"}},
		}
		e := newTestEntry(t, rec, testOptions())
		block, err := e.Complete()
		if err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if !strings.Contains(block, "pmid = {12345678}") {
			t.Errorf("identifier override missing:\n%s", block)
		}
	})
}

func TestPostscriptHook(t *testing.T) {
	ctx := testContext()
	called := false
	ctx.Postscript = func(e *Entry, rec *record.Record) error {
		called = true
		if err := e.Add(Field{Name: "note", Value: "added late", Replace: true}); err != nil {
			return err
		}
		return errors.New("hook complains anyway")
	}

	e, err := New(&record.Record{ItemType: "journalArticle", Citekey: "x",
		Fields: map[string]string{"volume": "1"}}, testOptions(), ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	block, err := e.Complete()
	if err != nil {
		t.Fatalf("Complete: hook error must not be fatal, got %v", err)
	}
	if !called {
		t.Fatal("postscript never ran")
	}
	if !strings.Contains(block, "note = {added late}") {
		t.Errorf("postscript mutation lost:\n%s", block)
	}
}

func TestPreamblePropagation(t *testing.T) {
	opt := testOptions()
	opt.NoopSort = true
	ctx := testContext()
	ctx.Clock = func() time.Time { return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC) }

	rec := &record.Record{
		ItemType: "journalArticle",
		Citekey:  "x",
		Creators: map[string][]record.Creator{
			"author": {{Family: "van Beethoven", Given: "Ludwig"}},
		},
	}
	e, err := New(rec, opt, ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	decls := ctx.Preamble()
	found := false
	for _, d := range decls {
		if d == `\newcommand{\noopsort}[1]{}` {
			found = true
		}
	}
	if !found {
		t.Errorf("noopsort declaration missing from preamble: %v", decls)
	}
}

func TestTestingSortKeepsLookupsConsistent(t *testing.T) {
	opt := testOptions()
	opt.QualityReport = true
	rec := &record.Record{
		ItemType: "journalArticle",
		Citekey:  "x",
		Fields: map[string]string{
			"title":            "waves of the sea",
			"publicationTitle": "Nature",
			"DOI":              "10.1000/x.y",
			"date":             "2021",
		},
		Creators: map[string][]record.Creator{
			"author": {{Family: "Doe", Given: "Jane"}},
		},
	}
	e := newTestEntry(t, rec, opt)
	block, err := e.Complete()
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	// The sort reorders fields; name lookups must follow.
	f, ok := e.Has("journal")
	if !ok || !strings.Contains(f.encoded, "Nature") {
		t.Errorf("Has(journal) after sort = %v %t, want the journal field", f, ok)
	}
	// A stale index makes the report inspect the doi under the journal's
	// name and flag its dots as an abbreviation.
	if strings.Contains(block, "looks abbreviated") {
		t.Errorf("report flagged the wrong field:\n%s", block)
	}
}

func TestQualityReport(t *testing.T) {
	opt := testOptions()
	opt.QualityReport = true
	opt.SkipFields = []string{"timestamp"}

	rec := &record.Record{
		ItemType: "journalArticle",
		Citekey:  "x",
		Fields:   map[string]string{"title": "Deep Learning Methods"},
	}
	e := newTestEntry(t, rec, opt)
	block, err := e.Complete()
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	for _, want := range []string{
		"% == article: missing required field author",
		"% == article: missing required field journal/journaltitle",
		"% == article: missing required field year/date",
		"already title-cased",
	} {
		if !strings.Contains(block, want) {
			t.Errorf("report missing %q:\n%s", want, block)
		}
	}
}
