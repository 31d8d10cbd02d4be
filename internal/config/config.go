// Package config holds the export profile consumed by the reference
// assembler, loadable from a YAML file or built programmatically.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DOI/URL exclusivity policies.
const (
	KeepBoth = "both" // keep both fields
	KeepDOI  = "doi"  // drop url when doi is present
	KeepURL  = "url"  // drop doi when url is present
)

// Options is one export profile.
type Options struct {
	// Dialect selects the output format: "bibtex" or "biblatex".
	Dialect string `yaml:"dialect"`

	// TitleCase enables locale-aware title-casing of English titles.
	TitleCase bool `yaml:"title_case"`
	// ProtectCaps wraps already-capitalized word runs in braces so BibTeX
	// styles cannot downcase them.
	ProtectCaps bool `yaml:"protect_caps"`

	// ASCII folds non-ASCII characters to TeX accent macros.
	ASCII bool `yaml:"ascii"`

	// PreserveVariables keeps @string-style variable references unbraced.
	PreserveVariables bool `yaml:"preserve_variables"`

	// QualityReport appends a diagnostic comment block to each entry.
	QualityReport bool `yaml:"quality_report"`

	// ExportFileData includes the attachment list in the file field.
	ExportFileData bool `yaml:"export_file_data"`

	// SkipFields are removed from every entry unconditionally.
	SkipFields []string `yaml:"skip_fields,omitempty"`

	// FieldEncodings overrides the encoding kind for named fields
	// (e.g. note: verbatim). Values: text, literal, verbatim, url, date,
	// creators, tags, attachments, raw.
	FieldEncodings map[string]string `yaml:"field_encodings,omitempty"`

	// FieldRenames substitutes field names during override resolution.
	FieldRenames map[string]string `yaml:"field_renames,omitempty"`

	// DOIAndURL picks the survivor when both identifiers are present:
	// "both", "doi", or "url". Empty means both.
	DOIAndURL string `yaml:"doi_and_url,omitempty"`

	// NoopSort wraps particle-led family names in a \noopsort key so
	// BibTeX sorts them by bare family name (bibtex dialect only).
	NoopSort bool `yaml:"noopsort,omitempty"`

	// Csquotes are locale quote characters in positional open/close pairs,
	// e.g. "“”‘’". When set, quoted runs become explicit quote spans.
	Csquotes string `yaml:"csquotes,omitempty"`

	// Testing makes output deterministic: fields are sorted and the clock
	// is frozen by the assembly context.
	Testing bool `yaml:"testing,omitempty"`
}

// Default returns the profile used when no config file is given.
func Default() *Options {
	return &Options{
		Dialect:     "bibtex",
		TitleCase:   true,
		ProtectCaps: true,
		ASCII:       true,
		DOIAndURL:   KeepBoth,
	}
}

// Load reads an export profile from a YAML file, filling unset policy
// fields with defaults.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	opt := Default()
	if err := yaml.Unmarshal(data, opt); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return opt, nil
}

// Validate checks enum-valued fields.
func (o *Options) Validate() error {
	switch o.Dialect {
	case "", "bibtex", "biblatex":
	default:
		return fmt.Errorf("invalid dialect: %s (valid: bibtex, biblatex)", o.Dialect)
	}
	switch o.DOIAndURL {
	case "", KeepBoth, KeepDOI, KeepURL:
	default:
		return fmt.Errorf("invalid doi_and_url: %s (valid: both, doi, url)", o.DOIAndURL)
	}
	return nil
}
