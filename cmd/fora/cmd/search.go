package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/search"
)

var (
	searchAuthor     string
	searchOnlyTopics bool
	searchTopic      int64
	searchReplies    int64
	searchPage       int
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [text...]",
	Short: "Run one search and print the page",
	Long: `Run one search against the forum and print the resulting page.

Without arguments or flags the root page (all sections) is listed.

Examples:
  fora search generics
  fora search --author alice --only-topics
  fora search --topic 12 constraints
  fora search --replies 3 --page 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := searchCriteria(args)
		if err != nil {
			return err
		}

		f, err := openForum()
		if err != nil {
			return err
		}
		defer f.Close()

		page, err := f.exec.Execute(cmd.Context(), c)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		out := cmd.OutOrStdout()
		if searchJSON {
			return outputPageJSON(out, c, page)
		}
		return outputPageTable(out, c, page)
	},
}

func searchCriteria(args []string) (criteria.Criteria, error) {
	c := criteria.Criteria{
		Text:        strings.TrimSpace(strings.Join(args, " ")),
		AuthorLogin: searchAuthor,
		OnlyTopics:  searchOnlyTopics,
		Page:        searchPage,
	}
	switch {
	case searchTopic != 0 && searchReplies != 0:
		return c, fmt.Errorf("--topic and --replies cannot be combined")
	case searchTopic != 0:
		c.OnlyInCurrentTopic = true
		c.BaseMessageID = criteria.MessageID(searchTopic)
	case searchReplies != 0:
		c.BaseMessageID = criteria.MessageID(searchReplies)
	case c.Text == "" && c.AuthorLogin == "" && !c.OnlyTopics:
		c.BaseMessageID = criteria.RootMessage
	}
	if err := criteria.Validate(c); err != nil {
		return c, err
	}
	return c, nil
}

func outputPageTable(out io.Writer, c criteria.Criteria, page *search.ResultPage) error {
	if page.Empty() {
		fmt.Fprintln(out, "No messages found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tDATE\tAUTHOR\tREPLIES\tTITLE")
	for _, m := range page.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
			m.ID, m.Kind, m.Created.Format("2006-01-02"), m.AuthorLogin, m.ReplyCount, truncate(m.Title, 60))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nShowing %d-%d of %d\n", page.Offset+1, page.Offset+len(page.Items), page.TotalCount)
	if page.HasNext() {
		fmt.Fprintf(out, "Next page: --page %d\n", c.Page+1)
	}
	fmt.Fprintf(out, "Token: %s\n", cfg.History.Prefix+criteria.Serialize(c))
	return nil
}

func outputPageJSON(out io.Writer, c criteria.Criteria, page *search.ResultPage) error {
	items := make([]map[string]any, len(page.Items))
	for i, m := range page.Items {
		items[i] = map[string]any{
			"id":           m.ID,
			"parent_id":    m.ParentID,
			"kind":         m.Kind.String(),
			"title":        m.Title,
			"author_login": m.AuthorLogin,
			"created":      m.Created.Format(time.RFC3339),
			"reply_count":  m.ReplyCount,
			"snippet":      page.Snippets[m.ID],
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"token":       cfg.History.Prefix + criteria.Serialize(c),
		"total_count": page.TotalCount,
		"offset":      page.Offset,
		"items":       items,
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchAuthor, "author", "a", "", "only messages by this login")
	searchCmd.Flags().BoolVar(&searchOnlyTopics, "only-topics", false, "only topics")
	searchCmd.Flags().Int64Var(&searchTopic, "topic", 0, "only posts inside this topic id")
	searchCmd.Flags().Int64Var(&searchReplies, "replies", 0, "list the replies of this message id")
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 0, "page number, starting at 0")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
}
