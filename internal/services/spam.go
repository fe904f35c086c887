package services

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// SpamRules configures the heuristics applied after schema validation.
type SpamRules struct {
	// EmailPatterns are regular expressions matched against the whole
	// address; any match rejects the submission.
	EmailPatterns []string `yaml:"email_patterns"`
	// MaxLinks is the largest number of http(s):// occurrences allowed.
	MaxLinks int `yaml:"max_links"`
	// MaxRepeatRun rejects any character repeated this many times in a row.
	MaxRepeatRun int `yaml:"max_repeat_run"`
}

// DefaultSpamRules returns the built-in rule set.
func DefaultSpamRules() SpamRules {
	return SpamRules{
		EmailPatterns: []string{`^test@test`, `^admin@admin`, `(?i)^spam@`},
		MaxLinks:      5,
		MaxRepeatRun:  6,
	}
}

// LoadSpamRules reads rules from a YAML file. Keys missing from the file
// keep their default values; an empty path returns the defaults.
func LoadSpamRules(path string) (SpamRules, error) {
	rules := DefaultSpamRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return SpamRules{}, fmt.Errorf("read spam rules %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &rules); err != nil {
		return SpamRules{}, fmt.Errorf("parse spam rules YAML: %w", err)
	}
	return rules, nil
}

var linkRegex = regexp.MustCompile(`(?i)https?://`)

// SpamFilter applies honeypot, sender and content heuristics.
type SpamFilter struct {
	emailPatterns []*regexp.Regexp
	maxLinks      int
	maxRepeatRun  int
}

// NewSpamFilter compiles rules into a SpamFilter.
func NewSpamFilter(rules SpamRules) (*SpamFilter, error) {
	if rules.MaxLinks < 0 {
		return nil, fmt.Errorf("max_links must not be negative")
	}
	if rules.MaxRepeatRun < 2 {
		return nil, fmt.Errorf("max_repeat_run must be at least 2")
	}

	f := &SpamFilter{maxLinks: rules.MaxLinks, maxRepeatRun: rules.MaxRepeatRun}
	for _, p := range rules.EmailPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid email pattern %q: %w", p, err)
		}
		f.emailPatterns = append(f.emailPatterns, re)
	}
	return f, nil
}

// HoneypotTriggered reports whether the hidden website field was filled.
// A non-string value counts as filled.
func (f *SpamFilter) HoneypotTriggered(raw map[string]any) bool {
	val, ok := raw["website"]
	if !ok || val == nil {
		return false
	}
	s, isString := val.(string)
	if !isString {
		return true
	}
	return strings.TrimSpace(s) != ""
}

// IsSpamEmail reports whether email matches a deny-listed pattern.
func (f *SpamFilter) IsSpamEmail(email string) bool {
	for _, re := range f.emailPatterns {
		if re.MatchString(email) {
			return true
		}
	}
	return false
}

// IsSpamContent reports whether message carries too many links or a long
// run of one repeated character.
func (f *SpamFilter) IsSpamContent(message string) bool {
	if len(linkRegex.FindAllStringIndex(message, -1)) > f.maxLinks {
		return true
	}
	return hasRepeatRun(message, f.maxRepeatRun)
}

// hasRepeatRun reports whether s holds n or more consecutive copies of one
// character. Line breaks never count toward a run.
func hasRepeatRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == '\n' {
			run = 0
			continue
		}
		if run > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}
