package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/fora/internal/tui"
)

var versionBanner bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		if versionBanner {
			tui.ShowBanner(Version)
		}
		fmt.Printf("fora %s\n", Version)
		fmt.Println("Terminal forum browser")
		fmt.Println("github.com/pders01/fora")
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionBanner, "banner", false, "print the banner too")
	rootCmd.AddCommand(versionCmd)
}
