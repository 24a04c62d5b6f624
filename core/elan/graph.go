// Package elan models ELAN annotation-graph (EAF) files: a shared timeline of
// time slots plus tiers of annotations referencing them. It implements the
// tier-graph flexibilization that gives word annotations their own time slots
// and the time import that anchors those slots.
package elan

import (
	"fmt"
	"strconv"
	"strings"
)

// Tier stereotype constraints used by the flexibilizer.
const (
	StereotypeSymbolicAssociation = "Symbolic_Association"
	StereotypeTimeSubdivision     = "Time_Subdivision"
)

// TimeSlot is one ordered point on the shared timeline. Value is the time in
// milliseconds; nil means unanchored, ordered only.
type TimeSlot struct {
	ID    string
	Value *int
}

// Annotation is one annotation. Alignable annotations reference a begin and
// end slot; reference annotations instead point at a parent annotation and
// optionally at their preceding sibling.
type Annotation struct {
	ID    string
	Value string

	// Start and End are time slot IDs, set on alignable annotations.
	Start string
	End   string

	// Ref and Prev are annotation IDs, set on reference annotations.
	Ref  string
	Prev string
}

// Alignable reports whether the annotation owns its own time slots.
func (a *Annotation) Alignable() bool {
	return a.Ref == ""
}

// Tier is one named tier with its annotations in document order.
type Tier struct {
	ID          string
	Type        string
	Parent      string
	Participant string
	Annotations []*Annotation
}

// LinguisticType declares the constraint stereotype of the tiers that
// reference it.
type LinguisticType struct {
	ID            string
	Constraints   string
	TimeAlignable bool
}

// Constraint is one of the stereotype declarations of the document.
type Constraint struct {
	Stereotype  string
	Description string
}

// MediaDescriptor and Property carry EAF header content through unchanged.
type MediaDescriptor struct {
	MediaURL         string
	MimeType         string
	RelativeMediaURL string
}

type Property struct {
	Name  string
	Value string
}

// Graph is the arena holding one EAF document: slots and annotations by ID,
// with ordering kept as ID lists.
type Graph struct {
	Author  string
	Date    string
	Format  string
	Version string

	MediaDescriptors []MediaDescriptor
	Properties       []Property

	// SlotOrder is the timeline: slot IDs in document order.
	SlotOrder []string
	Slots     map[string]*TimeSlot

	Tiers       []*Tier
	Types       []*LinguisticType
	Constraints []Constraint

	annotations map[string]*Annotation
	slotSeq     int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Slots:       map[string]*TimeSlot{},
		annotations: map[string]*Annotation{},
	}
}

// TierByID returns the tier with the given ID, or nil.
func (g *Graph) TierByID(id string) *Tier {
	for _, t := range g.Tiers {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// TypeByID returns the linguistic type with the given ID, or nil.
func (g *Graph) TypeByID(id string) *LinguisticType {
	for _, lt := range g.Types {
		if lt.ID == id {
			return lt
		}
	}
	return nil
}

// AnnotationByID returns the annotation with the given ID, or nil.
func (g *Graph) AnnotationByID(id string) *Annotation {
	return g.annotations[id]
}

func (g *Graph) registerAnnotation(a *Annotation) {
	g.annotations[a.ID] = a
}

func (g *Graph) registerSlot(s *TimeSlot) {
	g.Slots[s.ID] = s
	g.SlotOrder = append(g.SlotOrder, s.ID)
	if n, ok := slotNumber(s.ID); ok && n > g.slotSeq {
		g.slotSeq = n
	}
}

func slotNumber(id string) (int, bool) {
	rest, found := strings.CutPrefix(id, "ts")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// newSlot allocates a fresh unanchored time slot, registered in Slots but not
// yet placed on the timeline.
func (g *Graph) newSlot() *TimeSlot {
	g.slotSeq++
	s := &TimeSlot{ID: fmt.Sprintf("ts%d", g.slotSeq)}
	g.Slots[s.ID] = s
	return s
}

// insertSlotsBefore places slot IDs on the timeline immediately before the
// anchor slot, keeping their given order.
func (g *Graph) insertSlotsBefore(anchor string, ids []string) error {
	for i, existing := range g.SlotOrder {
		if existing != anchor {
			continue
		}
		order := make([]string, 0, len(g.SlotOrder)+len(ids))
		order = append(order, g.SlotOrder[:i]...)
		order = append(order, ids...)
		order = append(order, g.SlotOrder[i:]...)
		g.SlotOrder = order
		return nil
	}
	return fmt.Errorf("time slot %q is not on the timeline", anchor)
}

// childrenOf returns the reference annotations of tier pointing at parent,
// ordered by their previous-annotation chain when present, falling back to
// tier order.
func childrenOf(tier *Tier, parent string) []*Annotation {
	var children []*Annotation
	for _, a := range tier.Annotations {
		if a.Ref == parent {
			children = append(children, a)
		}
	}
	if len(children) < 2 {
		return children
	}

	byPrev := make(map[string]*Annotation, len(children))
	ids := make(map[string]bool, len(children))
	for _, a := range children {
		ids[a.ID] = true
	}
	var first *Annotation
	for _, a := range children {
		if a.Prev == "" || !ids[a.Prev] {
			if first != nil {
				// Broken chain, keep tier order.
				return children
			}
			first = a
			continue
		}
		byPrev[a.Prev] = a
	}
	if first == nil {
		return children
	}

	ordered := make([]*Annotation, 0, len(children))
	for a := first; a != nil; a = byPrev[a.ID] {
		ordered = append(ordered, a)
	}
	if len(ordered) != len(children) {
		return children
	}
	return ordered
}
