package partitur

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lingtools/mausalign/core/errors"
)

// PhoneSegment is one time-aligned phoneme returned by the external aligner.
// SlotIndex matches a slot of the pre-alignment file; Start and Duration are
// in samples. Failed marks segments the aligner could not place.
type PhoneSegment struct {
	SlotIndex int
	Start     int
	Duration  int
	Symbol    string
	Failed    bool
}

// pauseIndex marks MAU segments not belonging to any slot (pauses, noise).
const pauseIndex = -1

// ReadMAU parses the MAU tier of an aligned BAS Partitur file. Lines have
// the form "MAU: start duration slotIndex symbol". Segments with slot index
// -1 (pauses and noise between words) are dropped. A negative start or
// duration marks a failed segment.
func ReadMAU(data []byte, path string) ([]PhoneSegment, error) {
	var segments []PhoneSegment

	for i, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || !strings.HasPrefix(line, "MAU:") {
			continue
		}
		lineNo := i + 1

		fields := strings.Fields(strings.TrimPrefix(line, "MAU:"))
		if len(fields) != 4 {
			return nil, errors.NewParseLine("BAS Partitur", path, lineNo,
				"MAU line must contain start, duration, slot index and symbol")
		}
		start, err1 := strconv.Atoi(fields[0])
		duration, err2 := strconv.Atoi(fields[1])
		slotIndex, err3 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, errors.NewParseLine("BAS Partitur", path, lineNo,
				"MAU start, duration and slot index must be integers")
		}
		if slotIndex == pauseIndex {
			continue
		}

		segments = append(segments, PhoneSegment{
			SlotIndex: slotIndex,
			Start:     start,
			Duration:  duration,
			Symbol:    fields[3],
			Failed:    start < 0 || duration < 0,
		})
	}

	return segments, nil
}

// VerifyAlignment checks the hard precondition for time reconstruction: the
// aligned segments must cover the slot table exactly, one segment per slot,
// in non-decreasing index order. Any mismatch means the MAU file does not
// originate from this writer invocation, and reconstruction aborts.
func VerifyAlignment(doc *Document, segments []PhoneSegment) error {
	if len(segments) != len(doc.Slots) {
		return &MisalignedOutputError{Expected: len(doc.Slots), Got: len(segments)}
	}

	prev := -1
	seen := make([]bool, len(doc.Slots))
	for _, seg := range segments {
		if seg.SlotIndex < 0 || seg.SlotIndex >= len(doc.Slots) {
			return &MisalignedOutputError{
				Expected: len(doc.Slots),
				Got:      len(segments),
				Message:  fmt.Sprintf("slot index %d out of range", seg.SlotIndex),
			}
		}
		if seg.SlotIndex < prev {
			return &MisalignedOutputError{
				Expected: len(doc.Slots),
				Got:      len(segments),
				Message:  fmt.Sprintf("slot index %d after %d: segments out of order", seg.SlotIndex, prev),
			}
		}
		if seen[seg.SlotIndex] {
			return &MisalignedOutputError{
				Expected: len(doc.Slots),
				Got:      len(segments),
				Message:  fmt.Sprintf("duplicate segment for slot index %d", seg.SlotIndex),
			}
		}
		seen[seg.SlotIndex] = true
		prev = seg.SlotIndex
	}

	return nil
}
