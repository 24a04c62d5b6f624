package elan

import (
	"fmt"

	"github.com/lingtools/mausalign/core/errors"
)

// flexTypeSuffix names the time-subdivision linguistic type derived from a
// symbolic-association type.
const flexTypeSuffix = "-sub"

// Flexibilize rewrites every symbolic-association tier under a time-alignable
// parent so each of its annotations owns a private begin/end time slot pair,
// inserted unanchored between the parent annotation's slots. Tiers whose type
// is already a time subdivision are left alone, so running the pass twice is
// a no-op. Returns the number of tiers rewritten.
func Flexibilize(g *Graph) (int, error) {
	rewritten := 0
	for _, tier := range g.Tiers {
		if tier.Parent == "" {
			continue
		}
		lt := g.TypeByID(tier.Type)
		if lt == nil {
			return rewritten, errors.NewValidation("linguistic type",
				fmt.Sprintf("tier %q references unknown linguistic type %q", tier.ID, tier.Type))
		}
		switch lt.Constraints {
		case StereotypeTimeSubdivision:
			// Already flexibilized.
			continue
		case StereotypeSymbolicAssociation:
		default:
			continue
		}

		if err := flexibilizeTier(g, tier); err != nil {
			return rewritten, err
		}
		tier.Type = flexType(g, lt)
		rewritten++
	}
	return rewritten, nil
}

func flexibilizeTier(g *Graph, tier *Tier) error {
	// Group children by parent annotation, preserving parent encounter order.
	var parents []*Annotation
	seen := map[string]bool{}
	for _, ann := range tier.Annotations {
		if ann.Ref == "" || seen[ann.Ref] {
			continue
		}
		seen[ann.Ref] = true
		parent := g.AnnotationByID(ann.Ref)
		if parent == nil {
			return errors.NewValidation("annotation graph",
				fmt.Sprintf("annotation %q references unknown parent %q", ann.ID, ann.Ref))
		}
		if !parent.Alignable() {
			return errors.NewValidation("annotation graph",
				fmt.Sprintf("parent annotation %q of tier %q owns no time slots", parent.ID, tier.ID))
		}
		parents = append(parents, parent)
	}

	var ordered []*Annotation
	for _, parent := range parents {
		children := childrenOf(tier, parent.ID)

		newSlots := make([]string, 0, 2*len(children))
		for _, child := range children {
			begin := g.newSlot()
			end := g.newSlot()
			child.Start = begin.ID
			child.End = end.ID
			child.Ref = ""
			child.Prev = ""
			newSlots = append(newSlots, begin.ID, end.ID)
		}
		if err := g.insertSlotsBefore(parent.End, newSlots); err != nil {
			return err
		}
		ordered = append(ordered, children...)
	}

	tier.Annotations = ordered
	return nil
}

// flexType returns the ID of the time-subdivision type replacing lt, creating
// the type and its constraint declaration on first use.
func flexType(g *Graph, lt *LinguisticType) string {
	id := lt.ID + flexTypeSuffix
	if g.TypeByID(id) == nil {
		g.Types = append(g.Types, &LinguisticType{
			ID:            id,
			Constraints:   StereotypeTimeSubdivision,
			TimeAlignable: true,
		})
	}
	for _, c := range g.Constraints {
		if c.Stereotype == StereotypeTimeSubdivision {
			return id
		}
	}
	g.Constraints = append(g.Constraints, Constraint{
		Stereotype:  StereotypeTimeSubdivision,
		Description: "Time subdivision of parent annotation's time interval, no time gaps allowed within this interval",
	})
	return id
}
