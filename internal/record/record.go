// Package record defines the bibliographic input types consumed by the
// reference assembler. A Record is plain data handed over by the host
// application; the assembler treats it as read-only except for arXiv
// identifier extraction and override consumption.
package record

import "strings"

// Record represents one bibliographic item as delivered by the host
// application, pre-parsed into typed attributes.
type Record struct {
	// Identity
	ItemID   string `json:"itemID"`  // Host-application item identifier
	ItemType string `json:"itemType"` // journalArticle, book, inProceedings, ...
	Citekey  string `json:"citekey"`  // Entry label; derived if empty

	// Metadata
	Language string             `json:"language,omitempty"` // BCP-47-ish tag, e.g. "en-GB"
	Fields   map[string]string  `json:"fields"`             // Named text attributes (title, volume, DOI, ...)
	Creators map[string][]Creator `json:"creators,omitempty"` // Keyed by role: author, editor, translator

	// Collections
	Tags        []Tag        `json:"tags,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`

	// Bookkeeping
	DateAdded    string `json:"dateAdded,omitempty"`
	DateModified string `json:"dateModified,omitempty"`

	// Extra holds the free-text "extra" block, already pre-parsed into
	// override entries by the host application.
	Extra []ExtraField `json:"extra,omitempty"`
}

// Creator is one contributor, either structured (Family/Given plus optional
// particles) or a single opaque display name in Name.
type Creator struct {
	Family              string `json:"family,omitempty"`
	Given               string `json:"given,omitempty"`
	NonDroppingParticle string `json:"nonDroppingParticle,omitempty"`
	DroppingParticle    string `json:"droppingParticle,omitempty"`
	Suffix              string `json:"suffix,omitempty"`
	Name                string `json:"name,omitempty"` // Opaque display name; set when structured parsing does not apply
}

// Tag is a keyword attached to the record.
type Tag struct {
	Tag string `json:"tag"`
}

// Attachment is a file attached to the record. Copying the file is the
// caller's job; the assembler only encodes the list.
type Attachment struct {
	Title    string `json:"title,omitempty"`
	Path     string `json:"path,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// ExtraField is one caller-supplied override entry from the extra block.
type ExtraField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Raw    bool   `json:"raw,omitempty"`    // Value is already escaped for the target format
	Format string `json:"format,omitempty"` // "field" (already typed) or "csl" (needs variable mapping)
}

// Field returns the named text attribute, or "" if absent.
func (r *Record) Field(name string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}

// RemoveField deletes the named text attribute. Used when an override or an
// extracted identifier consumes the attribute.
func (r *Record) RemoveField(name string) {
	if r.Fields != nil {
		delete(r.Fields, name)
	}
}

// CreatorsByRole returns the creators with the given role, or nil.
func (r *Record) CreatorsByRole(role string) []Creator {
	if r.Creators == nil {
		return nil
	}
	return r.Creators[role]
}

// IsEmpty reports whether the creator carries no name data at all.
func (c Creator) IsEmpty() bool {
	return strings.TrimSpace(c.Family) == "" &&
		strings.TrimSpace(c.Given) == "" &&
		strings.TrimSpace(c.Name) == ""
}
