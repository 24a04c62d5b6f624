// Package report collects the content-level anomalies of one run and renders
// the summary shown alongside the produced output file: skipped characters,
// failed segments, ordering conflicts.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a reported finding.
type Kind string

const (
	KindUnmappedChar  Kind = "unmapped-character"
	KindEmptyWord     Kind = "empty-transliteration"
	KindOverlap       Kind = "overlapping-utterances"
	KindFailedSegment Kind = "failed-segment"
	KindTimeConflict  Kind = "time-order-conflict"
	KindShadowedRule  Kind = "shadowed-rule"
	KindInventory     Kind = "inventory-mismatch"
	KindTimeFallback  Kind = "even-interval-fallback"
	KindAdjusted      Kind = "parent-span-adjusted"
)

// Entry is one reported finding.
type Entry struct {
	Kind     Kind
	RecordID string
	Detail   string
}

// Collector accumulates findings for one command invocation. Every run gets
// a fresh UUID so journal rows from different runs stay distinguishable.
type Collector struct {
	RunID   string
	Command string
	Started time.Time

	entries []Entry
}

// New returns a collector for one command invocation.
func New(command string) *Collector {
	return &Collector{
		RunID:   uuid.NewString(),
		Command: command,
		Started: time.Now().UTC(),
	}
}

// Add records one finding.
func (c *Collector) Add(kind Kind, recordID, detail string) {
	c.entries = append(c.entries, Entry{Kind: kind, RecordID: recordID, Detail: detail})
}

// Addf records one finding with a formatted detail.
func (c *Collector) Addf(kind Kind, recordID, format string, args ...interface{}) {
	c.Add(kind, recordID, fmt.Sprintf(format, args...))
}

// Entries returns all findings in the order they were added.
func (c *Collector) Entries() []Entry {
	return c.entries
}

// Count returns the number of findings of one kind.
func (c *Collector) Count(kind Kind) int {
	n := 0
	for _, e := range c.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Empty reports whether nothing was collected.
func (c *Collector) Empty() bool {
	return len(c.entries) == 0
}

// summaryOrder fixes the order of the per-kind counts in the summary.
var summaryOrder = []struct {
	kind  Kind
	label string
}{
	{KindUnmappedChar, "unmapped characters passed through"},
	{KindEmptyWord, "words without phonemes"},
	{KindOverlap, "overlapping utterances"},
	{KindFailedSegment, "failed segments"},
	{KindTimeConflict, "time order conflicts"},
	{KindShadowedRule, "shadowed rules"},
	{KindInventory, "symbols outside the inventory"},
	{KindTimeFallback, "records with evenly distributed word times"},
	{KindAdjusted, "utterance spans adjusted outward"},
}

// WriteSummary renders the per-kind counts followed by every finding.
func (c *Collector) WriteSummary(w io.Writer) {
	if c.Empty() {
		fmt.Fprintln(w, "no anomalies")
		return
	}
	for _, s := range summaryOrder {
		if n := c.Count(s.kind); n > 0 {
			fmt.Fprintf(w, "%d %s\n", n, s.label)
		}
	}
	for _, e := range c.entries {
		if e.RecordID != "" {
			fmt.Fprintf(w, "  [%s] record %s: %s\n", e.Kind, e.RecordID, e.Detail)
			continue
		}
		fmt.Fprintf(w, "  [%s] %s\n", e.Kind, e.Detail)
	}
}
