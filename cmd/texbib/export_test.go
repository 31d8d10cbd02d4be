package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
)

func TestOpenOutputGzipFlushesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib.gz")
	exportOutput = path
	defer func() { exportOutput = "" }()

	out, closeOut, err := openOutput()
	if err != nil {
		t.Fatalf("openOutput: %v", err)
	}
	content := "@misc{x,\n  note = {y}\n}\n\n"
	if _, err := io.WriteString(out, content); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := closeOut(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Double close happens when the error path closes explicitly and the
	// deferred close runs too; it must be a no-op.
	if err := closeOut(); err != nil {
		t.Errorf("second close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	zr, err := pgzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(data) != content {
		t.Errorf("round trip = %q, want %q", data, content)
	}
}

func TestOpenOutputPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")
	exportOutput = path
	defer func() { exportOutput = "" }()

	out, closeOut, err := openOutput()
	if err != nil {
		t.Fatalf("openOutput: %v", err)
	}
	if _, err := io.WriteString(out, "x"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := closeOut(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := closeOut(); err != nil {
		t.Errorf("second close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "x" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
}
