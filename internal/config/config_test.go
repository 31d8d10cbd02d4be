package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	opt := Default()
	if opt.Dialect != "bibtex" {
		t.Errorf("default dialect = %q, want bibtex", opt.Dialect)
	}
	if !opt.TitleCase || !opt.ProtectCaps || !opt.ASCII {
		t.Error("default casing/escaping policies should be on")
	}
	if opt.DOIAndURL != KeepBoth {
		t.Errorf("default doi_and_url = %q, want both", opt.DOIAndURL)
	}
	if err := opt.Validate(); err != nil {
		t.Errorf("default profile invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	content := `dialect: biblatex
title_case: false
doi_and_url: doi
skip_fields: [abstract, file]
field_encodings:
  note: verbatim
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	opt, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if opt.Dialect != "biblatex" {
		t.Errorf("dialect = %q", opt.Dialect)
	}
	if opt.TitleCase {
		t.Error("title_case should be false")
	}
	if opt.DOIAndURL != KeepDOI {
		t.Errorf("doi_and_url = %q", opt.DOIAndURL)
	}
	if len(opt.SkipFields) != 2 || opt.SkipFields[0] != "abstract" {
		t.Errorf("skip_fields = %v", opt.SkipFields)
	}
	if opt.FieldEncodings["note"] != "verbatim" {
		t.Errorf("field_encodings = %v", opt.FieldEncodings)
	}
	// Unset policies keep their defaults.
	if !opt.ASCII {
		t.Error("ascii default lost on load")
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("dialect: ris\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should reject unknown dialect")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load() should fail on missing file")
	}
}
