package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/fora/internal/config"
	"github.com/pders01/fora/internal/validation"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration",
	Run: func(cmd *cobra.Command, args []string) {
		configFile, err := validation.NewPermissivePathHandler().ConfigPath(cfgFile)
		if err != nil {
			fmt.Printf("Failed to resolve config path: %v\n", err)
			return
		}
		if err := config.GenerateDefaultConfig(configFile); err != nil {
			fmt.Printf("Failed to generate config: %v\n", err)
			return
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "database:      %s\n", cfg.Database.Path)
		fmt.Fprintf(out, "search engine: %s\n", cfg.Search.Engine)
		fmt.Fprintf(out, "search index:  %s\n", cfg.Database.SearchIndex)
		fmt.Fprintf(out, "page size:     %d\n", cfg.Search.PageSize)
		fmt.Fprintf(out, "token prefix:  %s\n", cfg.History.Prefix)
		fmt.Fprintf(out, "history:       persist=%t max=%d\n", cfg.History.Persist, cfg.History.MaxEntries)
		fmt.Fprintf(out, "log:           %s %s\n", cfg.Log.Level, cfg.Log.File)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGenCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
