package cmd

import (
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <token>",
	Short: "Start the browser at a history token",
	Long: `Start the interactive browser at the page a history token names.

The token prefix is optional: "fora open b=12" and
"fora open forum:b=12" open the same page. Tokens are printed by
"fora search" and "fora token encode".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context(), withPrefix(args[0]))
	},
}

func init() {
	openCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "skip the startup banner")
	rootCmd.AddCommand(openCmd)
}
