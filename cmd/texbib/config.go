package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	configCmd.Flags().StringVar(&exportConfig, "config", "", "Export profile (YAML); defaults to $TEXBIB_CONFIG")
	configCmd.Flags().StringVar(&exportDialect, "dialect", "", "Output dialect: bibtex or biblatex")
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective export profile",
	Long: `Print the export profile that an export run would use, after the
config file, environment, and flags are merged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := loadProfile()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitConfigError)
		}
		data, err := yaml.Marshal(opt)
		if err != nil {
			return fmt.Errorf("rendering profile: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}
