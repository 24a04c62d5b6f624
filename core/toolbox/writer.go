package toolbox

import (
	"fmt"
	"strings"

	"github.com/lingtools/mausalign/core/align"
)

// WriteOptions controls writing a Toolbox file from scratch.
type WriteOptions struct {
	RecordMarker        string
	TranscriptionMarker string

	// Type is the database type name of the "\_sh" header line.
	Type string

	Tiers     TierNames
	WordTimes bool
}

// Write renders a new Toolbox file: the "\_sh v3.0 400 TYPE" header, then one
// block per record with its marker line, transcription tier, pass-through
// tiers in original order, and the computed time tiers. Toolbox files use
// CRLF line endings.
func Write(doc *Document, times []align.RecordTimes, opts WriteOptions) ([]byte, []Warning) {
	byID := make(map[string]align.RecordTimes, len(times))
	for _, rt := range times {
		byID[rt.ID] = rt
	}

	var out strings.Builder
	var warnings []Warning
	crlf := "\r\n"

	fmt.Fprintf(&out, "\\_sh v3.0 400 %s%s%s", opts.Type, crlf, crlf)

	for i := range doc.Records {
		rec := &doc.Records[i]

		fmt.Fprintf(&out, "\\%s %s%s", opts.RecordMarker, rec.ID, crlf)
		fmt.Fprintf(&out, "\\%s %s%s", opts.TranscriptionMarker, rec.Transcription, crlf)
		for _, tier := range rec.Tiers {
			if tier.Value == "" {
				fmt.Fprintf(&out, "\\%s%s", tier.Marker, crlf)
				continue
			}
			fmt.Fprintf(&out, "\\%s %s%s", tier.Marker, tier.Value, crlf)
		}

		if rt, ok := byID[rec.ID]; ok {
			lines, w := timeTierLines(rt, opts.Tiers, opts.WordTimes, false)
			warnings = append(warnings, w...)
			for _, l := range lines {
				out.WriteString(l)
				out.WriteString(crlf)
			}
		}

		out.WriteString(crlf)
	}

	return []byte(out.String()), warnings
}
