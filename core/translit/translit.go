package translit

import (
	"sort"
	"unicode/utf8"
)

// Unmapped records an input character that matched no rule and was passed
// through unchanged. Pass-through is the defined fallback, so this is a
// reportable anomaly, not an error.
type Unmapped struct {
	// Char is the character that was passed through.
	Char rune
	// Pos is the rune position within the word where it occurred.
	Pos int
}

// Transliterator applies a rule table to orthographic words. It accumulates
// the set of distinct output symbols actually produced, for use by the
// phoneme inventory checker.
type Transliterator struct {
	table   *Table
	symbols map[string]struct{}
}

// New creates a Transliterator over the given table.
func New(table *Table) *Transliterator {
	return &Transliterator{
		table:   table,
		symbols: make(map[string]struct{}),
	}
}

// Word transliterates a single orthographic word into a phoneme symbol
// sequence.
//
// The scan is greedy, order-sensitive and position-anchored: at each cursor
// position the rules are tried in file order and the first whose pattern
// matches at that exact position is applied. Substitutions emit their
// replacement symbols, deletions emit nothing; both advance the cursor by the
// pattern length. A character matching no rule passes through as a symbol of
// its own and advances the cursor by one rune. There is no backtracking.
func (t *Transliterator) Word(word string) ([]string, []Unmapped) {
	var symbols []string
	var unmapped []Unmapped

	pos := 0      // byte cursor
	runePos := 0  // rune position, for reporting
	for pos < len(word) {
		rule, ok := t.matchAt(word[pos:])
		if ok {
			for _, sym := range rule.Replacement {
				symbols = append(symbols, sym)
				t.symbols[sym] = struct{}{}
			}
			pos += len(rule.Pattern)
			runePos += utf8.RuneCountInString(rule.Pattern)
			continue
		}

		r, size := utf8.DecodeRuneInString(word[pos:])
		sym := string(r)
		symbols = append(symbols, sym)
		t.symbols[sym] = struct{}{}
		unmapped = append(unmapped, Unmapped{Char: r, Pos: runePos})
		pos += size
		runePos++
	}

	return symbols, unmapped
}

// matchAt returns the first rule in file order whose pattern is a prefix of
// rest.
func (t *Transliterator) matchAt(rest string) (Rule, bool) {
	for _, rule := range t.table.rules {
		if len(rule.Pattern) <= len(rest) && rest[:len(rule.Pattern)] == rule.Pattern {
			return rule, true
		}
	}
	return Rule{}, false
}

// Symbols returns the sorted set of distinct output symbols produced so far.
func (t *Transliterator) Symbols() []string {
	out := make([]string, 0, len(t.symbols))
	for sym := range t.symbols {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
