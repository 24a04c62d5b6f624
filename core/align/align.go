// Package align reconstructs word and utterance time spans from the phone
// segments returned by the external aligner, using the slot table of the
// pre-alignment Partitur document as the identity channel.
package align

import (
	"fmt"

	"github.com/lingtools/mausalign/core/partitur"
)

// Span is a closed time interval in seconds.
type Span struct {
	Start float64
	End   float64
}

// WordTimes is one word with its computed time span. Span is nil when every
// phone segment of the word was marked failed by the aligner.
type WordTimes struct {
	Ordinal int
	Surface string
	Span    *Span
}

// RecordTimes is one record (utterance) with its computed span and per-word
// times. Span is nil when no word of the record received a time.
type RecordTimes struct {
	ID    string
	Span  *Span
	Words []WordTimes
}

// Options selects reconstruction behavior.
type Options struct {
	// KeepUtteranceTimes keeps the prior TRN time constraint of each record
	// as its span instead of the min/max over its words. Records without a
	// prior constraint still get the computed span.
	KeepUtteranceTimes bool
}

// Warning is a reportable finding from reconstruction: a word or record
// excluded from time computation because the aligner failed its segments.
type Warning struct {
	RecordID string
	Ordinal  int
	Word     string
	Message  string
}

// Reconstruct groups the aligned phone segments by their back-referenced
// words and records. It first verifies that the segments cover the slot table
// exactly; any mismatch is fatal. Words whose segments all failed carry no
// span and are excluded from their record's min/max.
func Reconstruct(doc *partitur.Document, segments []partitur.PhoneSegment, opts Options) ([]RecordTimes, []Warning, error) {
	if err := partitur.VerifyAlignment(doc, segments); err != nil {
		return nil, nil, err
	}

	rate := float64(doc.Header.SAM)
	var warnings []Warning

	// VerifyAlignment guarantees one segment per slot in index order, so
	// segments[i] belongs to doc.Slots[i].
	wordSpans := make([]*Span, len(doc.Words))
	for _, w := range doc.Words {
		var span *Span
		for p := range w.Phonemes {
			seg := segments[w.SlotStart+p]
			if seg.Failed {
				continue
			}
			start := float64(seg.Start) / rate
			end := float64(seg.Start+seg.Duration) / rate
			if span == nil {
				span = &Span{Start: start, End: end}
				continue
			}
			if start < span.Start {
				span.Start = start
			}
			if end > span.End {
				span.End = end
			}
		}
		if span == nil {
			warnings = append(warnings, Warning{
				RecordID: w.RecordID,
				Ordinal:  w.Ordinal,
				Word:     w.Surface,
				Message:  "all phone segments failed, word has no time",
			})
		}
		wordSpans[w.Index] = span
	}

	var out []RecordTimes
	for _, rec := range doc.Records {
		rt := RecordTimes{ID: rec.ID}

		var recSpan *Span
		for _, idx := range rec.WordIndexes {
			w, ok := doc.WordByIndex(idx)
			if !ok {
				continue
			}
			span := wordSpans[idx]
			rt.Words = append(rt.Words, WordTimes{Ordinal: w.Ordinal, Surface: w.Surface, Span: span})
			if span == nil {
				continue
			}
			if recSpan == nil {
				recSpan = &Span{Start: span.Start, End: span.End}
				continue
			}
			if span.Start < recSpan.Start {
				recSpan.Start = span.Start
			}
			if span.End > recSpan.End {
				recSpan.End = span.End
			}
		}

		if opts.KeepUtteranceTimes && rec.Start != nil && rec.Duration != nil {
			recSpan = &Span{
				Start: float64(*rec.Start) / rate,
				End:   float64(*rec.Start+*rec.Duration) / rate,
			}
		}
		if recSpan == nil {
			warnings = append(warnings, Warning{
				RecordID: rec.ID,
				Ordinal:  -1,
				Message:  fmt.Sprintf("no word of record %q has a time, record has no span", rec.ID),
			})
		}
		rt.Span = recSpan
		out = append(out, rt)
	}

	return out, warnings, nil
}

// evenMargin keeps evenly distributed word intervals strictly inside the
// utterance span.
const evenMargin = 0.010

// EvenSpans distributes n word intervals evenly over an utterance span,
// leaving a 10 ms margin at both ends. It is the fallback used when some
// words of a record carry no computed time but word-level tiers were
// requested anyway.
func EvenSpans(span Span, n int) []Span {
	if n <= 0 {
		return nil
	}
	start := span.Start + evenMargin
	end := span.End - evenMargin
	if end <= start {
		start, end = span.Start, span.End
	}
	step := (end - start) / float64(n)
	out := make([]Span, n)
	for i := range out {
		out[i] = Span{Start: start + float64(i)*step, End: start + float64(i+1)*step}
	}
	return out
}
