package export

import "github.com/texbib/texbib/internal/tex"

// typeMap maps host item types to entry types. BibLaTeX refines a few of
// them; anything unknown falls back to misc.
var typeMap = map[string]struct{ bibtex, biblatex string }{
	"journalArticle":   {"article", "article"},
	"magazineArticle":  {"article", "article"},
	"newspaperArticle": {"article", "article"},
	"book":             {"book", "book"},
	"bookSection":      {"incollection", "incollection"},
	"conferencePaper":  {"inproceedings", "inproceedings"},
	"proceedings":      {"proceedings", "proceedings"},
	"thesis":           {"phdthesis", "thesis"},
	"manuscript":       {"unpublished", "unpublished"},
	"report":           {"techreport", "report"},
	"patent":           {"patent", "patent"},
	"presentation":     {"misc", "unpublished"},
	"webpage":          {"misc", "online"},
	"blogPost":         {"misc", "online"},
	"forumPost":        {"misc", "online"},
	"computerProgram":  {"misc", "software"},
	"preprint":         {"article", "article"},
	"letter":           {"misc", "letter"},
	"interview":        {"misc", "misc"},
	"film":             {"misc", "movie"},
	"audioRecording":   {"misc", "audio"},
	"videoRecording":   {"misc", "video"},
	"map":              {"misc", "misc"},
	"document":         {"misc", "misc"},
}

func entryType(itemType string, d tex.Dialect) string {
	m, ok := typeMap[itemType]
	if !ok {
		return "misc"
	}
	if d == tex.BibLaTeX {
		return m.biblatex
	}
	return m.bibtex
}

// fieldKinds is the name→encoding table consulted when a field carries no
// explicit kind.
var fieldKinds = map[string]EncodingKind{
	"doi":           KindVerbatim,
	"eprint":        KindVerbatim,
	"primaryclass":  KindVerbatim,
	"isbn":          KindVerbatim,
	"issn":          KindVerbatim,
	"lccn":          KindVerbatim,
	"pmid":          KindVerbatim,
	"pmcid":         KindVerbatim,
	"url":           KindURL,
	"file":          KindAttachments,
	"keywords":      KindTags,
	"author":        KindCreators,
	"editor":        KindCreators,
	"translator":    KindCreators,
	"timestamp":     KindDate,
	"date":          KindDate,
	"urldate":       KindDate,
	"year":          KindLiteral,
	"month":         KindRaw,
	"volume":        KindLiteral,
	"number":        KindLiteral,
	"pages":         KindLiteral,
	"edition":       KindLiteral,
	"pagetotal":     KindLiteral,
	"langid":        KindLiteral,
	"archiveprefix": KindLiteral,
	"eprinttype":    KindLiteral,
}

// fieldSpec declares how one record attribute lands in the entry. An empty
// target name skips the attribute for that dialect.
type fieldSpec struct {
	attr     string
	bibtex   string
	biblatex string
	kind     EncodingKind
}

// fieldMap is the declarative per-attribute population table, in output
// order.
var fieldMap = []fieldSpec{
	{attr: "title", bibtex: "title", biblatex: "title", kind: KindText},
	{attr: "shortTitle", bibtex: "", biblatex: "shorttitle", kind: KindText},
	{attr: "publicationTitle", bibtex: "journal", biblatex: "journaltitle", kind: KindText},
	{attr: "bookTitle", bibtex: "booktitle", biblatex: "booktitle", kind: KindText},
	{attr: "series", bibtex: "series", biblatex: "series", kind: KindText},
	{attr: "volume", bibtex: "volume", biblatex: "volume", kind: KindLiteral},
	{attr: "issue", bibtex: "number", biblatex: "number", kind: KindLiteral},
	{attr: "edition", bibtex: "edition", biblatex: "edition", kind: KindLiteral},
	{attr: "place", bibtex: "address", biblatex: "location", kind: KindText},
	{attr: "publisher", bibtex: "publisher", biblatex: "publisher", kind: KindText},
	{attr: "institution", bibtex: "institution", biblatex: "institution", kind: KindText},
	{attr: "university", bibtex: "school", biblatex: "institution", kind: KindText},
	{attr: "pages", bibtex: "pages", biblatex: "pages", kind: KindLiteral},
	{attr: "numPages", bibtex: "", biblatex: "pagetotal", kind: KindLiteral},
	{attr: "ISBN", bibtex: "isbn", biblatex: "isbn", kind: KindVerbatim},
	{attr: "ISSN", bibtex: "issn", biblatex: "issn", kind: KindVerbatim},
	{attr: "DOI", bibtex: "doi", biblatex: "doi", kind: KindVerbatim},
	{attr: "url", bibtex: "url", biblatex: "url", kind: KindURL},
	{attr: "abstractNote", bibtex: "abstract", biblatex: "abstract", kind: KindText},
	{attr: "callNumber", bibtex: "", biblatex: "library", kind: KindText},
	{attr: "rights", bibtex: "", biblatex: "rights", kind: KindText},
}

// months are the unbraced month macros every style knows.
var months = [...]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// requiredFields is the per-type checklist behind the quality report.
// A "/" separates acceptable alternatives.
var requiredFields = map[string][]string{
	"article":       {"author", "title", "journal/journaltitle", "year/date"},
	"book":          {"author/editor", "title", "publisher", "year/date"},
	"incollection":  {"author", "title", "booktitle", "publisher", "year/date"},
	"inproceedings": {"author", "title", "booktitle", "year/date"},
	"proceedings":   {"title", "year/date"},
	"phdthesis":     {"author", "title", "school/institution", "year/date"},
	"thesis":        {"author", "title", "institution", "year/date"},
	"techreport":    {"author", "title", "institution", "year/date"},
	"report":        {"author", "title", "institution", "year/date"},
	"unpublished":   {"author", "title", "year/date"},
	"online":        {"author/editor", "title", "url"},
}
