package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/segmentio/encoding/json"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/texbib/texbib/internal/cache"
	"github.com/texbib/texbib/internal/config"
	"github.com/texbib/texbib/internal/export"
	"github.com/texbib/texbib/internal/record"
)

var (
	exportConfig  string
	exportDialect string
	exportOutput  string
	exportCache   string
	exportReport  bool
	exportSkip    []string
)

func init() {
	exportCmd.Flags().StringVar(&exportConfig, "config", "", "Export profile (YAML); defaults to $TEXBIB_CONFIG")
	exportCmd.Flags().StringVar(&exportDialect, "dialect", "", "Output dialect: bibtex or biblatex")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout; .gz compresses)")
	exportCmd.Flags().StringVar(&exportCache, "cache", "", "Entry cache database; defaults to $TEXBIB_CACHE")
	exportCmd.Flags().BoolVar(&exportReport, "quality-report", false, "Append diagnostic comments to each entry")
	exportCmd.Flags().StringSliceVar(&exportSkip, "skip", nil, "Field names to drop from every entry")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [records.json]",
	Short: "Convert records to BibTeX or BibLaTeX",
	Long: `Convert bibliographic records to BibTeX or BibLaTeX.

Records are read from the given file or stdin, as a JSON array or one
JSON object per line.

Examples:
  texbib export records.json > refs.bib
  texbib export --dialect biblatex -o refs.bib.gz records.json
  cat records.jsonl | texbib export --quality-report`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	opt, err := loadProfile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitConfigError)
	}

	records, err := readRecords(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitDataError)
	}

	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	// Entries are buffered so the preamble can go first.
	var buf bytes.Buffer
	ctx := export.NewContext()
	ctx.Sink = &buf

	if path := cachePath(); path != "" {
		db, err := cache.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()
		ctx.Cache = db
	}

	failed := 0
	for _, rec := range records {
		if err := exportOne(rec, opt, ctx); err != nil {
			failed++
			logrus.WithError(err).WithField("item", rec.ItemID).Error("skipping record")
		}
	}

	if err := writePreamble(out, ctx.Preamble()); err != nil {
		return err
	}
	if _, err := io.Copy(out, &buf); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if failed > 0 {
		logrus.WithFields(logrus.Fields{
			"exported": len(records) - failed,
			"failed":   failed,
		}).Warn("export finished with errors")
		// Flush the output before exiting; os.Exit skips the deferred
		// close and would truncate a compressed file.
		if err := closeOut(); err != nil {
			return fmt.Errorf("closing output: %w", err)
		}
		os.Exit(ExitDataError)
	}
	return nil
}

func exportOne(rec *record.Record, opt *config.Options, ctx *export.Context) error {
	e, err := export.New(rec, opt, ctx)
	if err != nil {
		return err
	}
	// A duplicate-field conflict drops this entry only; the run continues
	// with the next record.
	_, err = e.Complete()
	return err
}

// loadProfile resolves the export profile: config file, then flag
// overrides.
func loadProfile() (*config.Options, error) {
	path := exportConfig
	if path == "" {
		path = os.Getenv("TEXBIB_CONFIG")
	}

	opt := config.Default()
	if path != "" {
		var err error
		opt, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}

	if exportDialect != "" {
		opt.Dialect = exportDialect
	}
	if exportReport {
		opt.QualityReport = true
	}
	opt.SkipFields = append(opt.SkipFields, exportSkip...)

	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return opt, nil
}

func cachePath() string {
	if exportCache != "" {
		return exportCache
	}
	return os.Getenv("TEXBIB_CACHE")
}

// readRecords parses the input as a JSON array or as JSONL. A .gz input
// file is decompressed transparently.
func readRecords(args []string) ([]*record.Record, error) {
	var in io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("reading records: %w", err)
		}
		defer f.Close()
		in = f
		if strings.HasSuffix(args[0], ".gz") {
			zr, err := pgzip.NewReader(f)
			if err != nil {
				return nil, fmt.Errorf("reading records: %w", err)
			}
			defer zr.Close()
			in = zr
		}
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var records []*record.Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("parsing records: %w", err)
		}
		return records, nil
	}

	var records []*record.Record
	for i, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		rec := &record.Record{}
		if err := json.Unmarshal(line, rec); err != nil {
			return nil, fmt.Errorf("parsing record on line %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// openOutput returns the output writer; a .gz suffix adds parallel gzip
// compression. The returned close function is idempotent so it can be both
// deferred and called explicitly on the early-exit path.
func openOutput() (io.Writer, func() error, error) {
	if exportOutput == "" {
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.Create(exportOutput)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output: %w", err)
	}
	if !strings.HasSuffix(exportOutput, ".gz") {
		return f, closeOnce(f.Close), nil
	}

	zw := pgzip.NewWriter(f)
	closeAll := func() error {
		if err := zw.Close(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return zw, closeOnce(closeAll), nil
}

func closeOnce(fn func() error) func() error {
	done := false
	return func() error {
		if done {
			return nil
		}
		done = true
		return fn()
	}
}

// writePreamble emits the accumulated preamble declarations ahead of the
// entries. Full TeX declarations become @preamble strings; bare particle
// punctuation is only noted.
func writePreamble(w io.Writer, decls []string) error {
	for _, d := range decls {
		var line string
		if strings.HasPrefix(d, `\`) {
			line = fmt.Sprintf("@preamble{ \"%s\" }\n\n", d)
		} else {
			line = fmt.Sprintf("%% name particle ends in %q\n\n", d)
		}
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("writing preamble: %w", err)
		}
	}
	return nil
}
