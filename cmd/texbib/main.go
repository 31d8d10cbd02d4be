// Package main provides the texbib CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// verbose enables debug-level logging
var verbose bool

func main() {
	// A .env file in the working directory can set TEXBIB_CONFIG and
	// TEXBIB_CACHE; absence is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "texbib",
	Short: "BibTeX and BibLaTeX exporter for bibliographic records",
	Long: `texbib converts bibliographic records to BibTeX or BibLaTeX.

Records are read as JSON (an array or one object per line) and written
as citation entries: field mapping, markup normalization, TeX escaping,
name-particle handling, and arXiv identifier extraction are applied per
the export profile.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Version = Version
}
