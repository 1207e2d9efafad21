package plugins

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/pders01/fora/internal/debuglog"
)

//go:embed sources.toml
var sourcesTOML []byte

const defaultRulePriority = 40

// Rule is one [[source]] entry of a sources.toml file.
type Rule struct {
	Name     string `toml:"name"`
	Match    string `toml:"match"`
	Feed     string `toml:"feed"`
	Title    string `toml:"title"`
	Section  string `toml:"section"`
	Priority int    `toml:"priority"`
}

type rulesFile struct {
	Sources []Rule `toml:"source"`
}

// RuleSource is a Source described by a Rule.
type RuleSource struct {
	rule Rule
	re   *regexp.Regexp
}

func NewRuleSource(r Rule) (*RuleSource, error) {
	if r.Name == "" {
		return nil, errors.New("rule has no name")
	}
	if r.Feed == "" {
		return nil, fmt.Errorf("rule %s: feed is required", r.Name)
	}
	re, err := regexp.Compile(r.Match)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.Name, err)
	}
	if r.Priority == 0 {
		r.Priority = defaultRulePriority
	}
	return &RuleSource{rule: r, re: re}, nil
}

func (s *RuleSource) Name() string  { return s.rule.Name }
func (s *RuleSource) Priority() int { return s.rule.Priority }

func (s *RuleSource) CanHandle(url string) bool {
	return s.re.MatchString(url)
}

func (s *RuleSource) Resolve(_ context.Context, url string, _ *http.Client) (*ForumFeed, error) {
	m := s.re.FindStringSubmatchIndex(url)
	if m == nil {
		return nil, fmt.Errorf("rule %s does not match %s", s.rule.Name, url)
	}
	expand := func(tmpl string) string {
		if tmpl == "" {
			return ""
		}
		return string(s.re.ExpandString(nil, tmpl, url, m))
	}
	return &ForumFeed{
		OriginalURL: url,
		FeedURL:     expand(s.rule.Feed),
		Title:       expand(s.rule.Title),
		Section:     expand(s.rule.Section),
		Metadata:    map[string]string{"rule": s.rule.Name},
	}, nil
}

// DefaultRules returns the rules shipped with fora.
func DefaultRules() ([]Rule, error) {
	var f rulesFile
	if err := gotoml.Unmarshal(sourcesTOML, &f); err != nil {
		return nil, fmt.Errorf("parsing embedded sources.toml: %w", err)
	}
	return f.Sources, nil
}

// LoadRules reads a user rules file. A missing file yields no rules.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	var f rulesFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		debuglog.Warnf("%s: ignoring unknown keys %s", path, strings.Join(keys, ", "))
	}
	return f.Sources, nil
}

// RegisterRules registers the embedded rules and then those in userFile. A
// user rule with the name of an embedded one replaces it.
func RegisterRules(r *Registry, userFile string) error {
	defaults, err := DefaultRules()
	if err != nil {
		return err
	}
	user, err := LoadRules(userFile)
	if err != nil {
		return err
	}

	overridden := make(map[string]bool, len(user))
	for _, rule := range user {
		overridden[rule.Name] = true
	}

	var errs []error
	register := func(rule Rule) {
		src, err := NewRuleSource(rule)
		if err != nil {
			errs = append(errs, err)
			return
		}
		r.Register(src)
	}
	for _, rule := range defaults {
		if !overridden[rule.Name] {
			register(rule)
		}
	}
	for _, rule := range user {
		register(rule)
	}
	return errors.Join(errs...)
}
