package toolbox

import (
	"fmt"
	"strings"

	"github.com/lingtools/mausalign/core/errors"
)

// ReadOptions selects the structural markers of a Toolbox file.
type ReadOptions struct {
	// RecordMarker is the record/reference marker (e.g. "ref").
	RecordMarker string
	// TranscriptionMarker is the designated transcription tier (e.g. "t").
	TranscriptionMarker string
	// StartTimeMarker and EndTimeMarker name the tiers holding prior
	// utterance start/end times. Both empty or both set.
	StartTimeMarker string
	EndTimeMarker   string
	// OptionalTimes keeps records lacking their time tiers instead of
	// failing; their Start/End stay nil. Annotated files legitimately carry
	// untimed records when alignment failed for every word.
	OptionalTimes bool
}

func fieldsOf(s string) []string {
	return strings.Fields(s)
}

// normalizeSpace collapses runs of whitespace into single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitMarkerLine splits a Toolbox line "\marker value" into its marker and
// value. Returns ok=false for lines without a marker.
func splitMarkerLine(line string) (marker, value string, ok bool) {
	if !strings.HasPrefix(line, "\\") {
		return "", "", false
	}
	rest := line[1:]
	if rest == "" {
		return "", "", false
	}
	if i := strings.IndexAny(rest, " \t"); i >= 0 {
		return rest[:i], strings.TrimSpace(rest[i+1:]), true
	}
	return rest, "", true
}

// ReadDocument parses a Toolbox file into records. A record starts at each
// record-marker line; transcription tier content spanning several lines is
// concatenated. When time markers are configured, every non-empty record must
// carry both a start and an end time unless OptionalTimes is set.
func ReadDocument(data []byte, path string, opts ReadOptions) (*Document, error) {
	if (opts.StartTimeMarker == "") != (opts.EndTimeMarker == "") {
		return nil, errors.NewValidation("time markers",
			"start and end time markers must be given together")
	}

	doc := &Document{}
	var cur *Record

	flush := func() error {
		if cur == nil || cur.ID == "" || cur.Transcription == "" {
			return nil
		}
		if opts.StartTimeMarker != "" && !opts.OptionalTimes && (cur.Start == nil || cur.End == nil) {
			return errors.NewParse("Toolbox", path,
				fmt.Sprintf("missing utterance start and/or end time for record %q", cur.ID))
		}
		doc.Records = append(doc.Records, *cur)
		return nil
	}

	for i, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		marker, value, ok := splitMarkerLine(line)
		if !ok {
			continue
		}

		switch marker {
		case opts.RecordMarker:
			if err := flush(); err != nil {
				return nil, err
			}
			cur = &Record{ID: normalizeSpace(value)}

		case opts.TranscriptionMarker:
			if cur == nil {
				continue
			}
			text := normalizeSpace(value)
			if cur.Transcription == "" {
				cur.Transcription = text
			} else {
				cur.Transcription = cur.Transcription + " " + text
			}

		case opts.StartTimeMarker:
			if opts.StartTimeMarker == "" || cur == nil {
				break
			}
			seconds, err := ParseTimecode(value)
			if err != nil {
				return nil, errors.NewParseLine("Toolbox", path, i+1, err.Error())
			}
			cur.Start = &seconds

		case opts.EndTimeMarker:
			if opts.EndTimeMarker == "" || cur == nil {
				break
			}
			seconds, err := ParseTimecode(value)
			if err != nil {
				return nil, errors.NewParseLine("Toolbox", path, i+1, err.Error())
			}
			cur.End = &seconds

		default:
			if cur != nil {
				cur.Tiers = append(cur.Tiers, TierValue{Marker: marker, Value: value})
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return doc, nil
}

// SliceByOrdinal returns the records from start to end (1-based, inclusive).
// end <= 0 means "through the last record".
func (d *Document) SliceByOrdinal(start, end int) (*Document, error) {
	if start < 1 {
		start = 1
	}
	if end <= 0 || end > len(d.Records) {
		end = len(d.Records)
	}
	if start > end {
		return nil, errors.NewValidation("record range",
			fmt.Sprintf("first record %d is after last record %d", start, end))
	}
	return &Document{Records: d.Records[start-1 : end]}, nil
}

// SliceByID returns the records from startID to endID (inclusive). Empty IDs
// mean "from the first record" / "through the last record".
func (d *Document) SliceByID(startID, endID string) (*Document, error) {
	start, end := 0, len(d.Records)-1
	if startID != "" {
		start = d.indexOf(startID)
		if start < 0 {
			return nil, errors.NewValidation("start-id", fmt.Sprintf("record %q not found", startID))
		}
	}
	if endID != "" {
		end = d.indexOf(endID)
		if end < 0 {
			return nil, errors.NewValidation("end-id", fmt.Sprintf("record %q not found", endID))
		}
	}
	if start > end {
		return nil, errors.NewValidation("record range",
			fmt.Sprintf("record %q comes after record %q", startID, endID))
	}
	return &Document{Records: d.Records[start : end+1]}, nil
}

func (d *Document) indexOf(id string) int {
	for i := range d.Records {
		if d.Records[i].ID == id {
			return i
		}
	}
	return -1
}
