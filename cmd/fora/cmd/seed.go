package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/storage"
)

var seedForce bool

// demoPost is one node of the demo forum. Children of a section are
// topics, children of a topic or post are replies.
type demoPost struct {
	title, author, body string
	replies             []demoPost
}

var demoForum = []demoPost{
	{title: "Go", replies: []demoPost{
		{title: "Generics in practice", author: "alice", body: "Where have type parameters paid off for you?", replies: []demoPost{
			{title: "Re: Generics in practice", author: "bob", body: "Container types. Everything else stayed an interface.", replies: []demoPost{
				{title: "Re: Generics in practice", author: "alice", body: "Same here, plus a few `slices` helpers."},
			}},
			{title: "Re: Generics in practice", author: "carol", body: "Constraints read like interfaces, which keeps reviews short."},
		}},
		{title: "Context cancellation", author: "dave", body: "Do you pass `context.Context` into constructors?", replies: []demoPost{
			{title: "Re: Context cancellation", author: "bob", body: "Only into calls that block. Constructors should return fast."},
		}},
	}},
	{title: "Terminal UIs", replies: []demoPost{
		{title: "Bubble Tea layouts", author: "carol", body: "How do you size a list next to a viewport?", replies: []demoPost{
			{title: "Re: Bubble Tea layouts", author: "erin", body: "Handle `tea.WindowSizeMsg` once and hand each child its share."},
		}},
	}},
	{title: "Off topic", replies: []demoPost{
		{title: "Introduce yourself", author: "erin", body: "Say hello and tell us what you are building."},
	}},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the forum with a small demo",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openForum()
		if err != nil {
			return err
		}
		defer f.Close()

		sections, err := f.store.Children(criteria.NoMessage)
		if err != nil {
			return err
		}
		if len(sections) > 0 && !seedForce {
			return fmt.Errorf("the forum already has %d sections, use --force to add the demo anyway", len(sections))
		}

		s := seeder{forum: f, users: map[string]*storage.User{}, clock: time.Now().Add(-72 * time.Hour)}
		for _, section := range demoForum {
			if err := s.add(section, storage.KindSection, criteria.NoMessage); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d messages by %d users\n", s.count, len(s.users))
		return nil
	},
}

type seeder struct {
	forum *forum
	users map[string]*storage.User
	clock time.Time
	count int
}

func (s *seeder) add(p demoPost, kind storage.Kind, parent criteria.MessageID) error {
	s.clock = s.clock.Add(37 * time.Minute)
	msg := &storage.Message{Kind: kind, ParentID: parent, Title: p.title, Body: p.body, Created: s.clock}
	if p.author != "" {
		u, err := s.user(p.author)
		if err != nil {
			return err
		}
		msg.AuthorID = u.ID
		msg.AuthorLogin = u.Login
	}
	if err := s.forum.save(msg); err != nil {
		return fmt.Errorf("seeding %q: %w", p.title, err)
	}
	s.count++

	child := storage.KindPost
	if kind == storage.KindSection {
		child = storage.KindTopic
	}
	for _, r := range p.replies {
		if err := s.add(r, child, msg.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) user(login string) (*storage.User, error) {
	if u, ok := s.users[login]; ok {
		return u, nil
	}
	u := &storage.User{Login: login, DisplayName: login}
	if err := s.forum.store.SaveUser(u); err != nil {
		return nil, err
	}
	s.users[login] = u
	return u, nil
}

func init() {
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "seed even when the forum is not empty")
	rootCmd.AddCommand(seedCmd)
}
