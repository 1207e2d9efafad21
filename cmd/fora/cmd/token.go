package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/fora/internal/criteria"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Encode and decode history tokens",
}

var tokenEncodeCmd = &cobra.Command{
	Use:   "encode [text...]",
	Short: "Print the token for a search",
	Long: `Print the history token for the search described by the flags, the
same flags "fora search" accepts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := searchCriteria(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.History.Prefix+criteria.Serialize(c))
		return nil
	},
}

var tokenDecodeCmd = &cobra.Command{
	Use:   "decode <token>",
	Short: "Describe the search a token stands for",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := strings.TrimPrefix(withPrefix(args[0]), cfg.History.Prefix)
		c := criteria.Root()
		if token != "" {
			c = criteria.Deserialize(token)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "search:     %s\n", c)
		fmt.Fprintf(out, "text:       %q\n", c.Text)
		fmt.Fprintf(out, "author:     %s\n", authorLabel(c))
		fmt.Fprintf(out, "base:       %s\n", baseLabel(c))
		fmt.Fprintf(out, "topics:     %t\n", c.OnlyTopics)
		fmt.Fprintf(out, "in topic:   %t\n", c.OnlyInCurrentTopic)
		fmt.Fprintf(out, "page:       %d\n", c.Page)
		fmt.Fprintf(out, "canonical:  %s\n", cfg.History.Prefix+criteria.Serialize(c))
		return nil
	},
}

func authorLabel(c criteria.Criteria) string {
	switch {
	case c.AuthorLogin != "":
		return c.AuthorLogin
	case c.AuthorID != criteria.UnknownUser:
		return fmt.Sprintf("#%d", c.AuthorID)
	default:
		return "-"
	}
}

func baseLabel(c criteria.Criteria) string {
	if c.BaseMessageID == criteria.NoMessage {
		return "-"
	}
	return c.BaseMessageID.String()
}

func init() {
	flags := tokenEncodeCmd.Flags()
	flags.StringVarP(&searchAuthor, "author", "a", "", "only messages by this login")
	flags.BoolVar(&searchOnlyTopics, "only-topics", false, "only topics")
	flags.Int64Var(&searchTopic, "topic", 0, "only posts inside this topic id")
	flags.Int64Var(&searchReplies, "replies", 0, "list the replies of this message id")
	flags.IntVarP(&searchPage, "page", "p", 0, "page number, starting at 0")
	tokenCmd.AddCommand(tokenEncodeCmd, tokenDecodeCmd)
	rootCmd.AddCommand(tokenCmd)
}
