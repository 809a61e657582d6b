package util

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/dlclark/regexp2"

	"github.com/pauljones0/reddit-rotator/internal/models"
)

const (
	ellipsis = "..."

	// Backtracking patterns are cut off after this long on a single title.
	ruleMatchTimeout = 100 * time.Millisecond
)

type compiledRule struct {
	re          *regexp2.Regexp
	replacement string
}

// TitleFormatter applies replacement rules and a character budget to titles.
// Rules are compiled once, in declared order.
type TitleFormatter struct {
	rules []compiledRule
	limit *int
}

// NewTitleFormatter compiles rules with JavaScript regex semantics, so
// lookarounds, $1, $& and $$ behave as they do in String.prototype.replace.
// It fails on the first pattern that is not a valid regular expression.
func NewTitleFormatter(rules []models.ReplacementRule, limit *int) (*TitleFormatter, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &TitleFormatter{rules: compiled, limit: limit}, nil
}

// ValidateRules reports the first rule whose pattern does not compile.
func ValidateRules(rules []models.ReplacementRule) error {
	_, err := compileRules(rules)
	return err
}

func compileRules(rules []models.ReplacementRule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		opts := regexp2.RegexOptions(regexp2.ECMAScript)
		if !rule.CaseSensitive {
			opts |= regexp2.IgnoreCase
		}
		re, err := regexp2.Compile(rule.Pattern, opts)
		if err != nil {
			return nil, fmt.Errorf("title replacement %d (%q): %w", i, rule.Pattern, err)
		}
		re.MatchTimeout = ruleMatchTimeout
		out = append(out, compiledRule{re: re, replacement: rule.Replacement})
	}
	return out, nil
}

// Format runs every rule as a global substitution, then enforces the limit.
func (f *TitleFormatter) Format(title string) string {
	for _, r := range f.rules {
		replaced, err := r.re.Replace(title, r.replacement, -1, -1)
		if err != nil {
			slog.Warn("Title replacement timed out", "pattern", r.re.String(), "error", err)
			continue
		}
		title = replaced
	}
	return Truncate(title, f.limit)
}

// FormatTitle is the one-shot form of TitleFormatter. Rules that fail to
// compile are skipped.
func FormatTitle(title string, rules []models.ReplacementRule, limit *int) string {
	f := &TitleFormatter{limit: limit}
	for _, rule := range rules {
		compiled, err := compileRules([]models.ReplacementRule{rule})
		if err != nil {
			slog.Warn("Skipping invalid title replacement", "pattern", rule.Pattern, "error", err)
			continue
		}
		f.rules = append(f.rules, compiled...)
	}
	return f.Format(title)
}

// Truncate cuts s to limit characters, trims trailing whitespace and appends
// an ellipsis. Strings within the limit, or a nil limit, are returned as is.
func Truncate(s string, limit *int) string {
	if limit == nil {
		return s
	}
	n := *limit
	if n < 0 {
		n = 0
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimRightFunc(string(runes[:n]), unicode.IsSpace) + ellipsis
}
