// Package inventory checks the phoneme symbols of a Partitur file against a
// phoneme inventory, so unknown symbols surface before the file is sent to
// the aligner.
package inventory

import (
	"sort"
	"strings"

	"github.com/lingtools/mausalign/core/partitur"
)

// Inventory is a set of known phoneme symbols.
type Inventory struct {
	symbols map[string]bool
	// byLength holds the symbols longest first, for segmenting unspaced
	// phoneme strings.
	byLength []string
}

// Parse reads an inventory file: one symbol per line, blank lines and lines
// starting with "#" ignored.
func Parse(data []byte) *Inventory {
	inv := &Inventory{symbols: map[string]bool{}}
	for _, line := range strings.Split(string(data), "\n") {
		sym := strings.TrimSpace(line)
		if sym == "" || strings.HasPrefix(sym, "#") {
			continue
		}
		if !inv.symbols[sym] {
			inv.symbols[sym] = true
			inv.byLength = append(inv.byLength, sym)
		}
	}
	sort.SliceStable(inv.byLength, func(i, j int) bool {
		return len(inv.byLength[i]) > len(inv.byLength[j])
	})
	return inv
}

// Contains reports whether the symbol is in the inventory.
func (inv *Inventory) Contains(sym string) bool {
	return inv.symbols[sym]
}

// Len returns the number of symbols.
func (inv *Inventory) Len() int {
	return len(inv.symbols)
}

// Segment splits an unspaced phoneme string into inventory symbols, matching
// the longest symbol at each position. The second result is -1 on success, or
// the byte position where no symbol matches.
func (inv *Inventory) Segment(s string) ([]string, int) {
	var out []string
	pos := 0
	for pos < len(s) {
		matched := false
		for _, sym := range inv.byLength {
			if strings.HasPrefix(s[pos:], sym) {
				out = append(out, sym)
				pos += len(sym)
				matched = true
				break
			}
		}
		if !matched {
			return out, pos
		}
	}
	return out, -1
}

// Finding is one phoneme outside the inventory.
type Finding struct {
	WordIndex int
	Surface   string
	Symbol    string
}

// Check verifies every KAN symbol of the document against the inventory. The
// nib placeholder for empty transliterations is always accepted.
func Check(doc *partitur.Document, inv *Inventory) []Finding {
	var findings []Finding
	for _, w := range doc.Words {
		for _, sym := range w.Phonemes {
			if sym == "<nib>" || inv.Contains(sym) {
				continue
			}
			findings = append(findings, Finding{WordIndex: w.Index, Surface: w.Surface, Symbol: sym})
		}
	}
	return findings
}
