package elan

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/lingtools/mausalign/core/encoding"
)

// Write renders the graph as an EAF file: header, time order, tiers,
// linguistic types and constraints, in that order.
func Write(g *Graph) []byte {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&buf, `<ANNOTATION_DOCUMENT AUTHOR="%s" DATE="%s" FORMAT="%s" VERSION="%s"`,
		encoding.EscapeXMLAttr(g.Author), encoding.EscapeXMLAttr(g.Date),
		encoding.EscapeXMLAttr(g.Format), encoding.EscapeXMLAttr(g.Version))
	buf.WriteString(` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"` +
		` xsi:noNamespaceSchemaLocation="http://www.mpi.nl/tools/elan/EAFv3.0.xsd">` + "\n")

	buf.WriteString(`    <HEADER MEDIA_FILE="" TIME_UNITS="milliseconds">` + "\n")
	for _, d := range g.MediaDescriptors {
		fmt.Fprintf(&buf, `        <MEDIA_DESCRIPTOR MEDIA_URL="%s" MIME_TYPE="%s"`,
			encoding.EscapeXMLAttr(d.MediaURL), encoding.EscapeXMLAttr(d.MimeType))
		if d.RelativeMediaURL != "" {
			fmt.Fprintf(&buf, ` RELATIVE_MEDIA_URL="%s"`, encoding.EscapeXMLAttr(d.RelativeMediaURL))
		}
		buf.WriteString("/>\n")
	}
	for _, p := range g.Properties {
		fmt.Fprintf(&buf, `        <PROPERTY NAME="%s">%s</PROPERTY>`+"\n",
			encoding.EscapeXMLAttr(p.Name), encoding.EscapeXMLText(p.Value))
	}
	buf.WriteString("    </HEADER>\n")

	buf.WriteString("    <TIME_ORDER>\n")
	for _, id := range g.SlotOrder {
		slot := g.Slots[id]
		if slot.Value != nil {
			fmt.Fprintf(&buf, `        <TIME_SLOT TIME_SLOT_ID="%s" TIME_VALUE="%d"/>`+"\n",
				encoding.EscapeXMLAttr(slot.ID), *slot.Value)
			continue
		}
		fmt.Fprintf(&buf, `        <TIME_SLOT TIME_SLOT_ID="%s"/>`+"\n", encoding.EscapeXMLAttr(slot.ID))
	}
	buf.WriteString("    </TIME_ORDER>\n")

	for _, tier := range g.Tiers {
		fmt.Fprintf(&buf, `    <TIER LINGUISTIC_TYPE_REF="%s"`, encoding.EscapeXMLAttr(tier.Type))
		if tier.Parent != "" {
			fmt.Fprintf(&buf, ` PARENT_REF="%s"`, encoding.EscapeXMLAttr(tier.Parent))
		}
		if tier.Participant != "" {
			fmt.Fprintf(&buf, ` PARTICIPANT="%s"`, encoding.EscapeXMLAttr(tier.Participant))
		}
		fmt.Fprintf(&buf, ` TIER_ID="%s">`+"\n", encoding.EscapeXMLAttr(tier.ID))

		for _, ann := range tier.Annotations {
			buf.WriteString("        <ANNOTATION>\n")
			if ann.Alignable() {
				fmt.Fprintf(&buf, `            <ALIGNABLE_ANNOTATION ANNOTATION_ID="%s" TIME_SLOT_REF1="%s" TIME_SLOT_REF2="%s">`+"\n",
					encoding.EscapeXMLAttr(ann.ID), encoding.EscapeXMLAttr(ann.Start), encoding.EscapeXMLAttr(ann.End))
				fmt.Fprintf(&buf, "                <ANNOTATION_VALUE>%s</ANNOTATION_VALUE>\n",
					encoding.EscapeXMLText(ann.Value))
				buf.WriteString("            </ALIGNABLE_ANNOTATION>\n")
			} else {
				fmt.Fprintf(&buf, `            <REF_ANNOTATION ANNOTATION_ID="%s" ANNOTATION_REF="%s"`,
					encoding.EscapeXMLAttr(ann.ID), encoding.EscapeXMLAttr(ann.Ref))
				if ann.Prev != "" {
					fmt.Fprintf(&buf, ` PREVIOUS_ANNOTATION="%s"`, encoding.EscapeXMLAttr(ann.Prev))
				}
				buf.WriteString(">\n")
				fmt.Fprintf(&buf, "                <ANNOTATION_VALUE>%s</ANNOTATION_VALUE>\n",
					encoding.EscapeXMLText(ann.Value))
				buf.WriteString("            </REF_ANNOTATION>\n")
			}
			buf.WriteString("        </ANNOTATION>\n")
		}
		buf.WriteString("    </TIER>\n")
	}

	for _, lt := range g.Types {
		buf.WriteString("    <LINGUISTIC_TYPE")
		if lt.Constraints != "" {
			fmt.Fprintf(&buf, ` CONSTRAINTS="%s"`, encoding.EscapeXMLAttr(lt.Constraints))
		}
		fmt.Fprintf(&buf, ` GRAPHIC_REFERENCES="false" LINGUISTIC_TYPE_ID="%s" TIME_ALIGNABLE="%s"/>`+"\n",
			encoding.EscapeXMLAttr(lt.ID), strconv.FormatBool(lt.TimeAlignable))
	}

	for _, c := range g.Constraints {
		fmt.Fprintf(&buf, `    <CONSTRAINT DESCRIPTION="%s" STEREOTYPE="%s"/>`+"\n",
			encoding.EscapeXMLAttr(c.Description), encoding.EscapeXMLAttr(c.Stereotype))
	}

	buf.WriteString("</ANNOTATION_DOCUMENT>\n")
	return buf.Bytes()
}
