package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"bankrates/internal/ratetree"
)

// Rule binds one schema leaf to a regex over the raw document text. The
// first capture group must contain the percentage value.
type Rule struct {
	Path    string
	Pattern *regexp.Regexp
}

// Ruleset is the structural parser for one source: a fixed schema plus one
// extraction rule per leaf. Parsing is total; a rule that does not match
// leaves its leaf null so the shape stays uniform for the merge stage.
type Ruleset struct {
	Schema ratetree.Tree
	Rules  []Rule
}

// Parse maps raw text into the ruleset's schema. Every leaf is extracted
// independently; failures never abort the parse.
func (rs Ruleset) Parse(text string) ratetree.Tree {
	out := rs.Schema.Shape()
	for _, rule := range rs.Rules {
		match := rule.Pattern.FindStringSubmatch(text)
		if match == nil || len(match) < 2 {
			continue
		}
		if rate := ParsePercent(match[1]); rate != nil {
			out.Set(rule.Path, rate)
		}
	}
	return out
}

// ParsePercent parses a percentage string such as "8,60%" or "8.60" into a
// rate. Icelandic documents use a decimal comma; asterisks mark footnotes.
// Returns nil when the value cannot be read; a rate of zero is only ever
// produced by an explicit "0,00".
func ParsePercent(value string) *decimal.Decimal {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.ReplaceAll(cleaned, "%", "")
	cleaned = strings.ReplaceAll(cleaned, "*", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil
	}
	rate, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	return &rate
}
