package cache

import (
	"path/filepath"
	"testing"
)

func openT(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreAndFetch(t *testing.T) {
	db := openT(t)

	block := "@article{Smith2020,\n  title = {X}\n}\n"
	if err := db.Store("item-1", "bibtex/ascii", "Smith2020", block, []string{"."}); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	got, ok, err := db.Fetch("item-1", "bibtex/ascii")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if !ok || got != block {
		t.Errorf("Fetch() = (%q, %v), want stored block", got, ok)
	}
}

func TestFetchMissesAcrossContexts(t *testing.T) {
	db := openT(t)

	if err := db.Store("item-1", "bibtex/ascii", "Smith2020", "x", nil); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := db.Fetch("item-1", "biblatex/unicode"); err != nil || ok {
		t.Errorf("Fetch() with different context = ok=%v err=%v, want miss", ok, err)
	}
	if _, ok, err := db.Fetch("item-2", "bibtex/ascii"); err != nil || ok {
		t.Errorf("Fetch() with different item = ok=%v err=%v, want miss", ok, err)
	}
}

func TestStoreReplaces(t *testing.T) {
	db := openT(t)

	if err := db.Store("item-1", "ctx", "Key1", "old", nil); err != nil {
		t.Fatal(err)
	}
	if err := db.Store("item-1", "ctx", "Key1", "new", nil); err != nil {
		t.Fatal(err)
	}

	got, ok, _ := db.Fetch("item-1", "ctx")
	if !ok || got != "new" {
		t.Errorf("Fetch() after replace = (%q, %v), want new", got, ok)
	}
}

func TestClear(t *testing.T) {
	db := openT(t)

	if err := db.Store("item-1", "ctx", "Key1", "x", nil); err != nil {
		t.Fatal(err)
	}
	if err := db.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, ok, _ := db.Fetch("item-1", "ctx"); ok {
		t.Error("Fetch() after Clear should miss")
	}
}
