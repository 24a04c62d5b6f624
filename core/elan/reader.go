package elan

import (
	"fmt"
	"strconv"

	"github.com/lingtools/mausalign/core/errors"
	"github.com/lingtools/mausalign/core/xml"
)

// Read parses an EAF file into a Graph.
func Read(data []byte, path string) (*Graph, error) {
	if err := xml.CheckWellFormed(data); err != nil {
		return nil, errors.NewParse("EAF", path, err.Error())
	}
	doc, err := xml.Parse(data)
	if err != nil {
		return nil, errors.NewParse("EAF", path, err.Error())
	}

	root, err := doc.XPathFirst("/ANNOTATION_DOCUMENT")
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, errors.NewParse("EAF", path, "no ANNOTATION_DOCUMENT element")
	}

	g := NewGraph()
	g.Author = root.Attr("AUTHOR")
	g.Date = root.Attr("DATE")
	g.Format = root.Attr("FORMAT")
	g.Version = root.Attr("VERSION")

	descriptors, err := root.XPath("HEADER/MEDIA_DESCRIPTOR")
	if err != nil {
		return nil, err
	}
	for _, d := range descriptors {
		g.MediaDescriptors = append(g.MediaDescriptors, MediaDescriptor{
			MediaURL:         d.Attr("MEDIA_URL"),
			MimeType:         d.Attr("MIME_TYPE"),
			RelativeMediaURL: d.Attr("RELATIVE_MEDIA_URL"),
		})
	}
	properties, err := root.XPath("HEADER/PROPERTY")
	if err != nil {
		return nil, err
	}
	for _, p := range properties {
		g.Properties = append(g.Properties, Property{Name: p.Attr("NAME"), Value: p.Text()})
	}

	slots, err := root.XPath("TIME_ORDER/TIME_SLOT")
	if err != nil {
		return nil, err
	}
	for _, s := range slots {
		slot := &TimeSlot{ID: s.Attr("TIME_SLOT_ID")}
		if slot.ID == "" {
			return nil, errors.NewParse("EAF", path, "TIME_SLOT without TIME_SLOT_ID")
		}
		if s.HasAttr("TIME_VALUE") {
			ms, err := strconv.Atoi(s.Attr("TIME_VALUE"))
			if err != nil {
				return nil, errors.NewParse("EAF", path,
					fmt.Sprintf("time slot %q has non-numeric TIME_VALUE %q", slot.ID, s.Attr("TIME_VALUE")))
			}
			slot.Value = &ms
		}
		if _, dup := g.Slots[slot.ID]; dup {
			return nil, errors.NewParse("EAF", path, fmt.Sprintf("duplicate time slot ID %q", slot.ID))
		}
		g.registerSlot(slot)
	}

	tiers, err := root.XPath("TIER")
	if err != nil {
		return nil, err
	}
	for _, t := range tiers {
		tier := &Tier{
			ID:          t.Attr("TIER_ID"),
			Type:        t.Attr("LINGUISTIC_TYPE_REF"),
			Parent:      t.Attr("PARENT_REF"),
			Participant: t.Attr("PARTICIPANT"),
		}
		if tier.ID == "" {
			return nil, errors.NewParse("EAF", path, "TIER without TIER_ID")
		}

		wrapped, err := t.XPath("ANNOTATION/*")
		if err != nil {
			return nil, err
		}
		for _, a := range wrapped {
			if a.Name() != "ALIGNABLE_ANNOTATION" && a.Name() != "REF_ANNOTATION" {
				continue
			}
			ann := &Annotation{ID: a.Attr("ANNOTATION_ID")}
			if ann.ID == "" {
				return nil, errors.NewParse("EAF", path,
					fmt.Sprintf("annotation without ANNOTATION_ID in tier %q", tier.ID))
			}
			value, err := a.XPathFirst("ANNOTATION_VALUE")
			if err != nil {
				return nil, err
			}
			if value != nil {
				ann.Value = value.Text()
			}

			switch a.Name() {
			case "ALIGNABLE_ANNOTATION":
				ann.Start = a.Attr("TIME_SLOT_REF1")
				ann.End = a.Attr("TIME_SLOT_REF2")
				if _, ok := g.Slots[ann.Start]; !ok {
					return nil, errors.NewParse("EAF", path,
						fmt.Sprintf("annotation %q references unknown time slot %q", ann.ID, ann.Start))
				}
				if _, ok := g.Slots[ann.End]; !ok {
					return nil, errors.NewParse("EAF", path,
						fmt.Sprintf("annotation %q references unknown time slot %q", ann.ID, ann.End))
				}
			case "REF_ANNOTATION":
				ann.Ref = a.Attr("ANNOTATION_REF")
				ann.Prev = a.Attr("PREVIOUS_ANNOTATION")
			}

			tier.Annotations = append(tier.Annotations, ann)
			g.registerAnnotation(ann)
		}

		g.Tiers = append(g.Tiers, tier)
	}

	types, err := root.XPath("LINGUISTIC_TYPE")
	if err != nil {
		return nil, err
	}
	for _, lt := range types {
		g.Types = append(g.Types, &LinguisticType{
			ID:            lt.Attr("LINGUISTIC_TYPE_ID"),
			Constraints:   lt.Attr("CONSTRAINTS"),
			TimeAlignable: lt.Attr("TIME_ALIGNABLE") == "true",
		})
	}

	constraints, err := root.XPath("CONSTRAINT")
	if err != nil {
		return nil, err
	}
	for _, c := range constraints {
		g.Constraints = append(g.Constraints, Constraint{
			Stereotype:  c.Attr("STEREOTYPE"),
			Description: c.Attr("DESCRIPTION"),
		})
	}

	// Referenced parents must resolve.
	for _, tier := range g.Tiers {
		for _, ann := range tier.Annotations {
			if ann.Ref != "" && g.AnnotationByID(ann.Ref) == nil {
				return nil, errors.NewParse("EAF", path,
					fmt.Sprintf("annotation %q references unknown annotation %q", ann.ID, ann.Ref))
			}
		}
	}

	return g, nil
}
