// Package importer fills the local forum from the RSS and Atom feeds that
// forum software publishes: a feed becomes a topic and its items become
// posts.
package importer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pders01/fora/internal/config"
	"github.com/pders01/fora/internal/criteria"
	"github.com/pders01/fora/internal/debuglog"
	"github.com/pders01/fora/internal/plugins"
	"github.com/pders01/fora/internal/plugins/user"
	"github.com/pders01/fora/internal/search"
	"github.com/pders01/fora/internal/storage"
	"github.com/pders01/fora/internal/validation"
)

// Result summarizes one import.
type Result struct {
	URL         string
	Section     *storage.Message
	Topic       *storage.Message
	Added       int
	NotModified bool
}

type Manager struct {
	store        *storage.Store
	fetcher      *Fetcher
	parser       *Parser
	registry     *plugins.Registry
	config       *config.Config
	urlValidator *validation.SourceURLValidator
	listener     search.UpdateListener

	// mu serializes writes to the tree; fetching runs outside it.
	mu sync.Mutex
}

// NewManager wires the fetcher, the parser and the source registry. Rules
// from cfg.Import.SourcesFile that fail to load are logged and skipped.
func NewManager(store *storage.Store, cfg *config.Config) *Manager {
	registry := plugins.NewRegistry(cfg.Import.HTTPTimeout)
	plugins.RegisterBuiltins(registry)
	if err := plugins.RegisterRules(registry, cfg.Import.SourcesFile); err != nil {
		debuglog.Warnf("import: source rules: %v", err)
	}
	registry.Register(user.NewSubredditSource())

	return &Manager{
		store:        store,
		fetcher:      NewFetcher(cfg),
		parser:       NewParser(),
		registry:     registry,
		config:       cfg,
		urlValidator: validation.NewSourceURLValidator(),
	}
}

// SetForceRefresh configures the manager to ignore ETag/Last-Modified headers
func (m *Manager) SetForceRefresh(force bool) {
	m.fetcher.SetIgnoreCache(force)
}

// SetPermissiveValidation allows local and private hosts, for self-hosted
// forums and tests.
func (m *Manager) SetPermissiveValidation(permissive bool) {
	if permissive {
		m.urlValidator = validation.NewPermissiveSourceURLValidator()
	} else {
		m.urlValidator = validation.NewSourceURLValidator()
	}
}

// SetListener registers the search index to notify about saved messages.
func (m *Manager) SetListener(l search.UpdateListener) {
	m.listener = l
}

func (m *Manager) Registry() *plugins.Registry {
	return m.registry
}

// Import resolves rawURL to a feed, fetches it and stores it as a topic in
// the section named sectionTitle. An empty sectionTitle uses the section
// the source suggests. Importing the same feed again adds only new items.
func (m *Manager) Import(ctx context.Context, sectionTitle, rawURL string) (*Result, error) {
	normalized, err := m.urlValidator.Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	src, err := m.registry.Resolve(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", normalized, err)
	}
	feedURL, err := m.urlValidator.Normalize(src.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("feed of %s: %w", normalized, err)
	}

	log := debuglog.WithFields(map[string]interface{}{"url": feedURL, "source": src.Metadata["source"]})

	existing, err := m.findTopic(feedURL)
	if err != nil {
		return nil, err
	}
	var cond Validators
	if existing != nil {
		cond = Validators{ETag: existing.ETag, LastModified: existing.LastModified}
	}

	resp, updated, err := m.fetcher.Fetch(ctx, feedURL, cond)
	if err != nil {
		return nil, err
	}
	if !updated {
		if existing == nil {
			return nil, fmt.Errorf("%s answered 304 to an unconditional request", feedURL)
		}
		log.Debugf("not modified")
		section, _ := m.store.GetMessage(existing.ParentID)
		return &Result{URL: feedURL, Section: section, Topic: existing, NotModified: true}, nil
	}
	defer resp.Body.Close()

	parsed, err := m.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", feedURL, err)
	}

	if sectionTitle == "" {
		sectionTitle = src.Section
	}
	if sectionTitle == "" {
		sectionTitle = hostOf(feedURL)
	}
	topicTitle := firstNonEmpty(src.Title, parsed.Title, hostOf(feedURL))

	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.save(feedURL, sectionTitle, topicTitle, existing, parsed, ValidatorsOf(resp))
	if err != nil {
		return nil, err
	}
	log.Infof("imported %d new posts into %q", res.Added, res.Topic.Title)
	return res, nil
}

// save writes the section, the topic and the new posts. Callers hold mu.
func (m *Manager) save(feedURL, sectionTitle, topicTitle string, topic *storage.Message, parsed *ParsedFeed, v Validators) (*Result, error) {
	if topic == nil {
		// Another import of the same feed may have finished meanwhile.
		again, err := m.findTopic(feedURL)
		if err != nil {
			return nil, err
		}
		topic = again
	}

	var section *storage.Message
	var err error
	if topic != nil {
		section, err = m.store.GetMessage(topic.ParentID)
	} else {
		section, err = m.ensureSection(sectionTitle)
	}
	if err != nil {
		return nil, err
	}

	if topic == nil {
		topic = &storage.Message{
			Kind:      storage.KindTopic,
			ParentID:  section.ID,
			Title:     topicTitle,
			Body:      parsed.Description,
			SourceURL: feedURL,
		}
	}
	topic.ETag = v.ETag
	topic.LastModified = v.LastModified
	if err := m.store.SaveMessage(topic); err != nil {
		return nil, fmt.Errorf("saving topic: %w", err)
	}
	m.notify(topic)

	seen, err := m.knownEntries(topic.ID)
	if err != nil {
		return nil, err
	}

	added := 0
	for _, e := range parsed.Entries {
		if seen[e.Key()] {
			continue
		}
		post := &storage.Message{
			Kind:      storage.KindPost,
			ParentID:  topic.ID,
			Title:     firstNonEmpty(e.Title, topic.Title),
			Body:      e.Body,
			Created:   e.Created,
			SourceURL: e.Key(),
		}
		if e.Author != "" {
			u := &storage.User{Login: e.Author, DisplayName: e.Author}
			if err := m.store.SaveUser(u); err != nil {
				return nil, fmt.Errorf("saving author %q: %w", e.Author, err)
			}
			post.AuthorID = u.ID
			post.AuthorLogin = u.Login
		}
		if err := m.store.SaveMessage(post); err != nil {
			return nil, fmt.Errorf("saving post %q: %w", e.Title, err)
		}
		m.notify(post)
		seen[e.Key()] = true
		added++
	}

	// Reload so the caller sees the reply count the store maintained.
	if topic, err = m.store.GetMessage(topic.ID); err != nil {
		return nil, err
	}
	return &Result{URL: feedURL, Section: section, Topic: topic, Added: added}, nil
}

// Refresh re-imports the feed behind topicID.
func (m *Manager) Refresh(ctx context.Context, topicID criteria.MessageID) (*Result, error) {
	topic, err := m.store.GetMessage(topicID)
	if err != nil {
		return nil, err
	}
	if topic.Kind != storage.KindTopic || topic.SourceURL == "" {
		return nil, fmt.Errorf("message %d is not an imported topic", topicID)
	}
	return m.Import(ctx, "", topic.SourceURL)
}

// ImportAll imports urls into sectionTitle with at most
// cfg.Import.Concurrency fetches in flight. A failing URL does not stop the
// others; all failures are joined into the returned error.
func (m *Manager) ImportAll(ctx context.Context, sectionTitle string, urls []string) ([]*Result, error) {
	results := make([]*Result, len(urls))
	errs := make([]error, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.config.Import.Concurrency)
	for i, u := range urls {
		g.Go(func() error {
			res, err := m.Import(ctx, sectionTitle, u)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", u, err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*Result, 0, len(urls))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, errors.Join(errs...)
}

// RefreshAll refreshes every imported topic.
func (m *Manager) RefreshAll(ctx context.Context) ([]*Result, error) {
	all, err := m.store.AllMessages()
	if err != nil {
		return nil, err
	}
	var urls []string
	for _, msg := range all {
		if msg.Kind == storage.KindTopic && msg.SourceURL != "" {
			urls = append(urls, msg.SourceURL)
		}
	}
	if len(urls) == 0 {
		return nil, nil
	}
	return m.ImportAll(ctx, "", urls)
}

func (m *Manager) notify(msg *storage.Message) {
	if m.listener != nil {
		m.listener.OnMessageSaved(msg)
	}
}

func (m *Manager) findTopic(feedURL string) (*storage.Message, error) {
	all, err := m.store.AllMessages()
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", feedURL, err)
	}
	for _, msg := range all {
		if msg.Kind == storage.KindTopic && msg.SourceURL == feedURL {
			return msg, nil
		}
	}
	return nil, nil
}

func (m *Manager) ensureSection(title string) (*storage.Message, error) {
	sections, err := m.store.Children(criteria.NoMessage)
	if err != nil {
		return nil, err
	}
	for _, s := range sections {
		if strings.EqualFold(s.Title, title) {
			return s, nil
		}
	}
	section := &storage.Message{Kind: storage.KindSection, Title: title}
	if err := m.store.SaveMessage(section); err != nil {
		return nil, fmt.Errorf("creating section %q: %w", title, err)
	}
	m.notify(section)
	return section, nil
}

// knownEntries returns the entry keys already stored anywhere under topic.
func (m *Manager) knownEntries(topic criteria.MessageID) (map[string]bool, error) {
	all, err := m.store.AllMessages()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, msg := range all {
		if msg.Kind == storage.KindPost && msg.TopicID == topic && msg.SourceURL != "" {
			seen[msg.SourceURL] = true
		}
	}
	return seen, nil
}

func hostOf(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	return raw
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
