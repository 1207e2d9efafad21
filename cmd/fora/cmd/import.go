package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pders01/fora/internal/importer"
)

var (
	importSection string
	importForce   bool
	importRefresh bool
)

var importCmd = &cobra.Command{
	Use:   "import [url...]",
	Short: "Import forum feeds as topics",
	Long: `Import RSS or Atom feeds of forums as topics. Each feed becomes a topic
inside --section (default: the feed's host), its entries become posts.
Known forum pages (Discourse, phpBB, subreddits, rules from sources.toml)
are resolved to their feed URL first.

With --refresh every previously imported topic is fetched again and only
new entries are added.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !importRefresh {
			return errors.New("give at least one URL or --refresh")
		}

		f, err := openForum()
		if err != nil {
			return err
		}
		defer f.Close()

		m := f.importer()
		m.SetForceRefresh(importForce)

		var results []*importer.Result
		if importRefresh {
			results, err = m.RefreshAll(cmd.Context())
		} else {
			results, err = m.ImportAll(cmd.Context(), importSection, args)
		}
		printImportResults(cmd.OutOrStdout(), results)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		return nil
	},
}

func printImportResults(out io.Writer, results []*importer.Result) {
	added := 0
	for _, r := range results {
		added += r.Added
		switch {
		case r.NotModified:
			fmt.Fprintf(out, "  %s: not modified\n", r.URL)
		default:
			fmt.Fprintf(out, "  %s › %s: %d new posts (topic %d)\n", r.Section.Title, r.Topic.Title, r.Added, r.Topic.ID)
		}
	}
	fmt.Fprintf(out, "%d feeds, %d new posts\n", len(results), added)
}

func init() {
	importCmd.Flags().StringVarP(&importSection, "section", "s", "", "section for new topics (default: feed host)")
	importCmd.Flags().BoolVar(&importForce, "force", false, "ignore ETag and Last-Modified")
	importCmd.Flags().BoolVar(&importRefresh, "refresh", false, "refresh every imported topic")
	rootCmd.AddCommand(importCmd)
}
