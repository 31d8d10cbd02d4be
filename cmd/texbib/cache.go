package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/texbib/texbib/internal/cache"
)

func init() {
	cacheCmd.PersistentFlags().StringVar(&exportCache, "cache", "", "Entry cache database; defaults to $TEXBIB_CACHE")
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the entry cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cachePath()
		if path == "" {
			fmt.Fprintln(os.Stderr, "error: no cache configured (--cache or $TEXBIB_CACHE)")
			os.Exit(ExitConfigError)
		}
		db, err := cache.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Clear()
	},
}
