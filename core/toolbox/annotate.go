package toolbox

import (
	"fmt"
	"strings"

	"github.com/lingtools/mausalign/core/align"
	"github.com/lingtools/mausalign/core/errors"
)

// Line is one physical line of a Toolbox file with its original line ending,
// so annotation can reproduce untouched lines byte-identically.
type Line struct {
	Raw    string
	Ending string
}

// ReadLines splits a file into lines, preserving each line's ending.
func ReadLines(data []byte) []Line {
	var lines []Line
	text := string(data)
	for len(text) > 0 {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, Line{Raw: text})
			break
		}
		raw, ending := text[:i], "\n"
		if strings.HasSuffix(raw, "\r") {
			raw, ending = raw[:len(raw)-1], "\r\n"
		}
		lines = append(lines, Line{Raw: raw, Ending: ending})
		text = text[i+1:]
	}
	return lines
}

// TierNames names the time tiers written into Toolbox output.
type TierNames struct {
	UtteranceBegin string
	UtteranceEnd   string
	WordBegin      string
	WordEnd        string
}

// DefaultTierNames are the tier names ELAN's Toolbox import expects.
func DefaultTierNames() TierNames {
	return TierNames{
		UtteranceBegin: "ELANBegin",
		UtteranceEnd:   "ELANEnd",
		WordBegin:      "WordBegin",
		WordEnd:        "WordEnd",
	}
}

// AnnotateOptions controls the line-preserving annotation pass.
type AnnotateOptions struct {
	RecordMarker string
	Tiers        TierNames

	// WordTimes also writes per-word begin/end tiers.
	WordTimes bool

	// KeepUtteranceTimes passes existing utterance time tier lines through
	// unchanged instead of replacing them with computed spans.
	KeepUtteranceTimes bool
}

// Warning is a reportable, non-fatal finding from writing time tiers.
type Warning struct {
	RecordID string
	Message  string
}

// AnnotateTimes rewrites a Toolbox file with computed time tiers. Every line
// of the original passes through byte-identically except old time tier lines,
// which are dropped; the computed tier lines are written directly after each
// record's marker line. Records without computed times keep their block
// untouched. A record marker that never occurs in the file is an error.
func AnnotateTimes(data []byte, times []align.RecordTimes, opts AnnotateOptions) ([]byte, []Warning, error) {
	byID := make(map[string]align.RecordTimes, len(times))
	for _, rt := range times {
		byID[rt.ID] = rt
	}

	var out strings.Builder
	var warnings []Warning

	curID := ""
	ending := "\n"
	records := 0
	matched := 0

	for _, line := range ReadLines(data) {
		if line.Ending != "" {
			ending = line.Ending
		}
		marker, value, ok := splitMarkerLine(strings.TrimSpace(line.Raw))
		if ok {
			switch marker {
			case opts.RecordMarker:
				records++
				curID = normalizeSpace(value)
				if rt, found := byID[curID]; found {
					matched++
					e := line.Ending
					if e == "" {
						e = ending
					}
					out.WriteString(line.Raw)
					out.WriteString(e)
					lines, w := timeTierLines(rt, opts.Tiers, opts.WordTimes, opts.KeepUtteranceTimes)
					warnings = append(warnings, w...)
					for _, l := range lines {
						out.WriteString(l)
						out.WriteString(e)
					}
					continue
				}
			case opts.Tiers.UtteranceBegin, opts.Tiers.UtteranceEnd:
				if _, found := byID[curID]; found && !opts.KeepUtteranceTimes {
					continue
				}
			case opts.Tiers.WordBegin, opts.Tiers.WordEnd:
				if _, found := byID[curID]; found {
					continue
				}
			}
		}
		out.WriteString(line.Raw)
		out.WriteString(line.Ending)
	}

	if records == 0 {
		return nil, nil, errors.NewValidation("record marker",
			fmt.Sprintf("marker %q does not occur in the file", opts.RecordMarker))
	}
	if matched == 0 && len(times) > 0 {
		warnings = append(warnings, Warning{
			Message: "no computed time span matched any record",
		})
	}

	return []byte(out.String()), warnings, nil
}

// timeTierLines renders the time tier lines for one record. When a word span
// is missing, all words fall back to evenly distributed intervals over the
// utterance span.
func timeTierLines(rt align.RecordTimes, tiers TierNames, wordTimes, keepUtteranceTimes bool) ([]string, []Warning) {
	if rt.Span == nil {
		return nil, nil
	}

	var lines []string
	var warnings []Warning

	if !keepUtteranceTimes {
		lines = append(lines,
			fmt.Sprintf("\\%s %s", tiers.UtteranceBegin, FormatSeconds(rt.Span.Start)),
			fmt.Sprintf("\\%s %s", tiers.UtteranceEnd, FormatSeconds(rt.Span.End)))
	}

	if wordTimes && len(rt.Words) > 0 {
		spans := make([]align.Span, len(rt.Words))
		complete := true
		for i, w := range rt.Words {
			if w.Span == nil {
				complete = false
				break
			}
			spans[i] = *w.Span
		}
		if !complete {
			spans = align.EvenSpans(*rt.Span, len(rt.Words))
			warnings = append(warnings, Warning{
				RecordID: rt.ID,
				Message:  "some words have no aligned time, word intervals distributed evenly",
			})
		}

		if spans[0].Start < rt.Span.Start {
			warnings = append(warnings, Warning{
				RecordID: rt.ID,
				Message:  "first word starts before its utterance",
			})
		}
		if spans[len(spans)-1].End > rt.Span.End {
			warnings = append(warnings, Warning{
				RecordID: rt.ID,
				Message:  "last word ends after its utterance",
			})
		}

		begins := make([]string, len(spans))
		ends := make([]string, len(spans))
		for i, s := range spans {
			begins[i] = FormatSeconds(s.Start)
			ends[i] = FormatSeconds(s.End)
		}
		lines = append(lines,
			fmt.Sprintf("\\%s %s", tiers.WordBegin, strings.Join(begins, " ")),
			fmt.Sprintf("\\%s %s", tiers.WordEnd, strings.Join(ends, " ")))
	}

	return lines, warnings
}
