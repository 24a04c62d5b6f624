package elan

import (
	"fmt"
	"math"
	"sort"

	"github.com/lingtools/mausalign/core/align"
	"github.com/lingtools/mausalign/core/errors"
)

// TimeOrderConflict reports two slots whose staged time values violate the
// timeline order. The assignments of the offending record are not applied.
type TimeOrderConflict struct {
	RecordID string
	SlotA    string
	SlotB    string
	ValueA   int
	ValueB   int
}

func (c TimeOrderConflict) String() string {
	return fmt.Sprintf("record %q: slot %s (%d ms) would precede slot %s (%d ms)",
		c.RecordID, c.SlotB, c.ValueB, c.SlotA, c.ValueA)
}

// ImportWarning is a reportable, non-fatal finding from the time import.
type ImportWarning struct {
	RecordID string
	Message  string
}

// ImportTimes anchors the word time slots of a flexibilized graph with the
// spans computed for each record, matching utterance annotations to records
// by the annotation value (the reference string). Utterances without a
// matching record, records without a matching utterance and records carrying
// no times are reported and skipped. Word slots falling outside their
// parent's span adjust the parent slot outward. Assignments violating the
// timeline order are reported as conflicts and skipped for the whole record;
// all other records still import.
func ImportTimes(g *Graph, utteranceTierID, wordTierID string, times []align.RecordTimes) ([]TimeOrderConflict, []ImportWarning, error) {
	utterances := g.TierByID(utteranceTierID)
	if utterances == nil {
		return nil, nil, errors.NewValidation("utterance tier",
			fmt.Sprintf("tier %q not found", utteranceTierID))
	}
	words := g.TierByID(wordTierID)
	if words == nil {
		return nil, nil, errors.NewValidation("word tier",
			fmt.Sprintf("tier %q not found", wordTierID))
	}
	if lt := g.TypeByID(words.Type); lt == nil || lt.Constraints != StereotypeTimeSubdivision {
		return nil, nil, errors.NewValidation("word tier",
			fmt.Sprintf("tier %q is not flexibilized", wordTierID))
	}
	byID := make(map[string]align.RecordTimes, len(times))
	for _, rt := range times {
		byID[rt.ID] = rt
	}

	slotPos := make(map[string]int, len(g.SlotOrder))
	for i, id := range g.SlotOrder {
		slotPos[id] = i
	}

	var conflicts []TimeOrderConflict
	var warnings []ImportWarning
	matched := make(map[string]bool, len(times))

	for _, parent := range utterances.Annotations {
		rt, ok := byID[parent.Value]
		if !ok {
			warnings = append(warnings, ImportWarning{
				RecordID: parent.Value,
				Message:  fmt.Sprintf("utterance %q has no matching record, skipped", parent.Value),
			})
			continue
		}
		matched[rt.ID] = true

		children, err := wordsOf(g, words, parent, slotPos)
		if err != nil {
			return conflicts, warnings, err
		}
		if len(children) != len(rt.Words) {
			return conflicts, warnings, errors.NewValidation("word count",
				fmt.Sprintf("utterance %q has %d word annotations but record %q has %d words",
					parent.ID, len(children), rt.ID, len(rt.Words)))
		}

		if untimed(rt) {
			warnings = append(warnings, ImportWarning{
				RecordID: rt.ID,
				Message:  "record carries no times, its slots stay unanchored",
			})
			continue
		}

		staged := map[string]int{}
		for j, child := range children {
			span := rt.Words[j].Span
			if span == nil {
				warnings = append(warnings, ImportWarning{
					RecordID: rt.ID,
					Message:  fmt.Sprintf("word %q has no time, its slots stay unanchored", rt.Words[j].Surface),
				})
				continue
			}
			staged[child.Start] = toMillis(span.Start)
			staged[child.End] = toMillis(span.End)
		}
		if len(staged) == 0 {
			continue
		}

		adjustParentOutward(g, parent, children, staged, rt.ID, &warnings)

		if conflict, ok := findOrderConflict(g, staged, rt.ID); ok {
			conflicts = append(conflicts, conflict)
			continue
		}
		for id, ms := range staged {
			v := ms
			g.Slots[id].Value = &v
		}
	}

	for _, rt := range times {
		if !matched[rt.ID] {
			warnings = append(warnings, ImportWarning{
				RecordID: rt.ID,
				Message:  "record matches no utterance annotation, skipped",
			})
		}
	}

	return conflicts, warnings, nil
}

// untimed reports whether a record carries neither word times nor an
// utterance span.
func untimed(rt align.RecordTimes) bool {
	if rt.Span != nil {
		return false
	}
	for _, w := range rt.Words {
		if w.Span != nil {
			return false
		}
	}
	return true
}

// wordsOf returns the word annotations whose time slots lie within the
// parent's slot interval, in timeline order.
func wordsOf(g *Graph, tier *Tier, parent *Annotation, slotPos map[string]int) ([]*Annotation, error) {
	if !parent.Alignable() {
		return nil, errors.NewValidation("annotation graph",
			fmt.Sprintf("utterance annotation %q owns no time slots", parent.ID))
	}
	begin, okB := slotPos[parent.Start]
	end, okE := slotPos[parent.End]
	if !okB || !okE {
		return nil, errors.NewValidation("annotation graph",
			fmt.Sprintf("utterance annotation %q references slots missing from the timeline", parent.ID))
	}

	var children []*Annotation
	for _, ann := range tier.Annotations {
		if !ann.Alignable() {
			continue
		}
		s, okS := slotPos[ann.Start]
		e, okN := slotPos[ann.End]
		if !okS || !okN {
			continue
		}
		if s > begin && e < end {
			children = append(children, ann)
		}
	}
	sort.SliceStable(children, func(i, j int) bool {
		return slotPos[children[i].Start] < slotPos[children[j].Start]
	})
	return children, nil
}

// adjustParentOutward widens the parent annotation's anchored slots when the
// first word starts before or the last word ends after them.
func adjustParentOutward(g *Graph, parent *Annotation, children []*Annotation, staged map[string]int, recordID string, warnings *[]ImportWarning) {
	first, last := -1, -1
	for j := range children {
		if _, ok := staged[children[j].Start]; !ok {
			continue
		}
		if first < 0 {
			first = j
		}
		last = j
	}
	if first < 0 {
		return
	}

	beginSlot := g.Slots[parent.Start]
	if beginSlot.Value != nil && staged[children[first].Start] < *beginSlot.Value {
		staged[parent.Start] = staged[children[first].Start]
		*warnings = append(*warnings, ImportWarning{
			RecordID: recordID,
			Message:  "first word starts before its utterance, utterance begin moved out",
		})
	}
	endSlot := g.Slots[parent.End]
	if endSlot.Value != nil && staged[children[last].End] > *endSlot.Value {
		staged[parent.End] = staged[children[last].End]
		*warnings = append(*warnings, ImportWarning{
			RecordID: recordID,
			Message:  "last word ends after its utterance, utterance end moved out",
		})
	}
}

// findOrderConflict walks the timeline with the staged values overlaid and
// returns the first pair of anchored slots out of order.
func findOrderConflict(g *Graph, staged map[string]int, recordID string) (TimeOrderConflict, bool) {
	lastID := ""
	lastValue := 0
	anchored := false
	for _, id := range g.SlotOrder {
		value, ok := staged[id]
		if !ok {
			slot := g.Slots[id]
			if slot.Value == nil {
				continue
			}
			value = *slot.Value
		}
		if anchored && value < lastValue {
			return TimeOrderConflict{
				RecordID: recordID,
				SlotA:    lastID,
				SlotB:    id,
				ValueA:   lastValue,
				ValueB:   value,
			}, true
		}
		lastID, lastValue, anchored = id, value, true
	}
	return TimeOrderConflict{}, false
}

func toMillis(seconds float64) int {
	return int(math.Round(seconds * 1000))
}
