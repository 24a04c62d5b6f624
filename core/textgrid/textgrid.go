// Package textgrid renders Praat TextGrid files from aligned phone, word and
// utterance spans.
package textgrid

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/lingtools/mausalign/core/align"
	"github.com/lingtools/mausalign/core/errors"
	"github.com/lingtools/mausalign/core/partitur"
)

// Interval is one labeled interval of an interval tier, in seconds.
type Interval struct {
	Start float64
	End   float64
	Label string
}

// Tier is one named interval tier.
type Tier struct {
	Name      string
	Intervals []Interval
}

// FromAlignment builds the phone, word and utterance tiers of one aligned
// file. Failed segments and unaligned words contribute no intervals.
func FromAlignment(doc *partitur.Document, segments []partitur.PhoneSegment, records []align.RecordTimes) []Tier {
	rate := float64(doc.Header.SAM)

	phones := Tier{Name: "phone"}
	for _, seg := range segments {
		if seg.Failed {
			continue
		}
		phones.Intervals = append(phones.Intervals, Interval{
			Start: float64(seg.Start) / rate,
			End:   float64(seg.Start+seg.Duration) / rate,
			Label: seg.Symbol,
		})
	}

	words := Tier{Name: "word"}
	utterances := Tier{Name: "utterance"}
	for _, rt := range records {
		for _, w := range rt.Words {
			if w.Span == nil {
				continue
			}
			words.Intervals = append(words.Intervals, Interval{Start: w.Span.Start, End: w.Span.End, Label: w.Surface})
		}
		if rt.Span != nil {
			utterances.Intervals = append(utterances.Intervals, Interval{Start: rt.Span.Start, End: rt.Span.End, Label: rt.ID})
		}
	}

	return []Tier{phones, words, utterances}
}

// Render writes the long TextGrid form. Gaps between intervals are filled
// with empty intervals so every tier covers [xmin, xmax] completely.
// Overlapping intervals within a tier are rejected.
func Render(xmin, xmax float64, tiers []Tier) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("File type = \"ooTextFile\"\n")
	buf.WriteString("Object class = \"TextGrid\"\n\n")
	fmt.Fprintf(&buf, "xmin = %s\n", number(xmin))
	fmt.Fprintf(&buf, "xmax = %s\n", number(xmax))
	buf.WriteString("tiers? <exists>\n")
	fmt.Fprintf(&buf, "size = %d\n", len(tiers))
	buf.WriteString("item []:\n")

	for i, tier := range tiers {
		filled, err := fillGaps(tier, xmin, xmax)
		if err != nil {
			return nil, err
		}

		fmt.Fprintf(&buf, "    item [%d]:\n", i+1)
		buf.WriteString("        class = \"IntervalTier\"\n")
		fmt.Fprintf(&buf, "        name = %q\n", tier.Name)
		fmt.Fprintf(&buf, "        xmin = %s\n", number(xmin))
		fmt.Fprintf(&buf, "        xmax = %s\n", number(xmax))
		fmt.Fprintf(&buf, "        intervals: size = %d\n", len(filled))
		for j, iv := range filled {
			fmt.Fprintf(&buf, "        intervals [%d]:\n", j+1)
			fmt.Fprintf(&buf, "            xmin = %s\n", number(iv.Start))
			fmt.Fprintf(&buf, "            xmax = %s\n", number(iv.End))
			fmt.Fprintf(&buf, "            text = %q\n", iv.Label)
		}
	}

	return buf.Bytes(), nil
}

// fillGaps pads a tier with empty intervals so it covers [xmin, xmax].
func fillGaps(tier Tier, xmin, xmax float64) ([]Interval, error) {
	var out []Interval
	cursor := xmin
	for _, iv := range tier.Intervals {
		if iv.Start < cursor {
			return nil, errors.NewValidation("textgrid tier",
				fmt.Sprintf("tier %q: interval %q at %s overlaps the preceding one",
					tier.Name, iv.Label, number(iv.Start)))
		}
		if iv.Start > cursor {
			out = append(out, Interval{Start: cursor, End: iv.Start})
		}
		out = append(out, iv)
		cursor = iv.End
	}
	if cursor < xmax {
		out = append(out, Interval{Start: cursor, End: xmax})
	}
	if len(out) == 0 {
		out = []Interval{{Start: xmin, End: xmax}}
	}
	return out, nil
}

// number formats seconds trimming trailing zeros, the way Praat writes them.
func number(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
