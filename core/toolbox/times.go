package toolbox

import (
	"fmt"

	"github.com/lingtools/mausalign/core/align"
	"github.com/lingtools/mausalign/core/errors"
)

// RecordTimesFromTiers rebuilds per-record and per-word time spans from the
// time tiers of an annotated Toolbox document. Utterance spans come from the
// configured start/end time markers; word spans from the word begin/end tiers
// when present. Word tier value counts must match the transcription's word
// count.
func RecordTimesFromTiers(doc *Document, tiers TierNames) ([]align.RecordTimes, error) {
	out := make([]align.RecordTimes, 0, len(doc.Records))

	for i := range doc.Records {
		rec := &doc.Records[i]
		rt := align.RecordTimes{ID: rec.ID}
		if rec.Start != nil && rec.End != nil {
			rt.Span = &align.Span{Start: *rec.Start, End: *rec.End}
		}

		begins, err := timeList(rec, tiers.WordBegin)
		if err != nil {
			return nil, err
		}
		ends, err := timeList(rec, tiers.WordEnd)
		if err != nil {
			return nil, err
		}

		surfaces := rec.Words()
		if begins != nil || ends != nil {
			if len(begins) != len(ends) {
				return nil, errors.NewValidation("word time tiers",
					fmt.Sprintf("record %q has %d word begin times but %d end times", rec.ID, len(begins), len(ends)))
			}
			if len(begins) != len(surfaces) {
				return nil, errors.NewValidation("word time tiers",
					fmt.Sprintf("record %q has %d words but %d word times", rec.ID, len(surfaces), len(begins)))
			}
		}

		for j, surface := range surfaces {
			wt := align.WordTimes{Ordinal: j, Surface: surface}
			if j < len(begins) {
				wt.Span = &align.Span{Start: begins[j], End: ends[j]}
			}
			rt.Words = append(rt.Words, wt)
		}

		out = append(out, rt)
	}

	return out, nil
}

// timeList parses the space-separated time values of a tier, nil when the
// record has no such tier.
func timeList(rec *Record, marker string) ([]float64, error) {
	for _, tier := range rec.Tiers {
		if tier.Marker != marker {
			continue
		}
		fields := fieldsOf(tier.Value)
		values := make([]float64, len(fields))
		for i, f := range fields {
			seconds, err := ParseTimecode(f)
			if err != nil {
				return nil, errors.NewValidation("word time tiers",
					fmt.Sprintf("record %q: %v", rec.ID, err))
			}
			values[i] = seconds
		}
		return values, nil
	}
	return nil, nil
}
