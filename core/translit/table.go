// Package translit implements the grapheme-to-phoneme rewrite engine: an
// ordered transliteration rule table and a position-anchored, first-match
// rewrite scan that turns orthographic word forms into phoneme sequences.
package translit

import (
	"fmt"
	"regexp"
	"strings"
)

// RuleKind distinguishes substitution rules from deletion rules.
type RuleKind string

// Rule kind constants.
const (
	RuleSubstitute RuleKind = "substitute"
	RuleDelete     RuleKind = "delete"
)

// Rule is one entry of a transliteration table. Rules are totally ordered by
// file position; earlier rules win at every input position.
type Rule struct {
	// Pattern is the grapheme sequence matched against the input. Never empty.
	Pattern string
	// Replacement is the sequence of output symbols. Empty for deletions.
	Replacement []string
	// Kind is RuleSubstitute or RuleDelete.
	Kind RuleKind
	// Line is the 1-based line number of the rule in the table file.
	Line int
}

// MalformedRuleError reports a table line that is neither a substitution, a
// deletion, a comment nor blank. Table loading aborts on the first one.
type MalformedRuleError struct {
	Line int
	Text string
}

func (e *MalformedRuleError) Error() string {
	return fmt.Sprintf("malformed transliteration rule at line %d: %q", e.Line, e.Text)
}

// Table is an ordered transliteration rule table.
type Table struct {
	rules []Rule
}

// deletionRe matches deletion lines of the form "pattern --".
var deletionRe = regexp.MustCompile(`^(\S+)\s+--\s*$`)

// arrow separates pattern and replacement in substitution lines.
const arrow = " --> "

// ParseTable parses a transliteration table. Line forms:
//
//	# comment            ignored
//	(blank)              ignored
//	pattern --> symbols  substitution
//	pattern --           deletion
//
// Rule order is load-bearing: at each input position the first rule in file
// order that matches wins, so the caller must never reorder rules.
func ParseTable(data []byte) (*Table, error) {
	table := &Table{}
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		if before, after, found := strings.Cut(line, arrow); found {
			pattern := before
			if pattern == "" {
				return nil, &MalformedRuleError{Line: i + 1, Text: line}
			}
			table.rules = append(table.rules, Rule{
				Pattern:     pattern,
				Replacement: strings.Fields(after),
				Kind:        RuleSubstitute,
				Line:        i + 1,
			})
			continue
		}

		if m := deletionRe.FindStringSubmatch(line); m != nil {
			table.rules = append(table.rules, Rule{
				Pattern: m[1],
				Kind:    RuleDelete,
				Line:    i + 1,
			})
			continue
		}

		return nil, &MalformedRuleError{Line: i + 1, Text: line}
	}
	return table, nil
}

// Rules returns the rules in file order.
func (t *Table) Rules() []Rule {
	return t.rules
}

// Len returns the number of rules in the table.
func (t *Table) Len() int {
	return len(t.rules)
}

// ShadowedRule names a rule that can never fire because an earlier rule's
// pattern is a prefix of its pattern: wherever the later rule matches, the
// earlier one matches too and wins.
type ShadowedRule struct {
	Earlier Rule
	Later   Rule
}

// Lint reports shadowed rules. Resolution between overlapping patterns is
// file order alone; surfacing shadowed pairs lets table authors fix
// precedence instead of relying on it silently.
func (t *Table) Lint() []ShadowedRule {
	var shadowed []ShadowedRule
	for i, earlier := range t.rules {
		for _, later := range t.rules[i+1:] {
			if strings.HasPrefix(later.Pattern, earlier.Pattern) {
				shadowed = append(shadowed, ShadowedRule{Earlier: earlier, Later: later})
			}
		}
	}
	return shadowed
}
