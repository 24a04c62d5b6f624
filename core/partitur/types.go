// Package partitur implements the BAS Partitur exchange format around the
// forced-alignment step: writing the pre-alignment file (header, ORT, KAN,
// RID and TRN tiers) with a global phoneme slot table, and reading the
// post-alignment MAU tier back into phone segments keyed by slot index.
//
// The slot table is the sole channel by which word and record identity
// survives the external aligner: slots are numbered contiguously in emission
// order and each slot carries a back-reference to (record ID, word ordinal,
// phoneme ordinal). The aligner sees only the flat sequence and returns one
// time segment per slot index.
package partitur

import "fmt"

// Header holds the BAS Partitur header fields.
// See http://www.bas.uni-muenchen.de/forschung/Bas/BasFormatsdeu.html#Partitur
type Header struct {
	LHD string // format label, "Partitur 1.2"
	REP string // recording place
	SNB int    // bytes per sample
	SAM int    // sample rate in Hz
	SBF string // byte order, "01"
	SSB int    // bits per sample
	NCH int    // number of channels
	SPN string // speaker name
	DBN string // database (source file) name
	SRC string // associated wave file name
	SPA string // phonetic alphabet, "SAM-PA"

	// BEG and END delimit the transcribed sample range, if known.
	BEG *int
	END *int
}

// DefaultHeader returns a header with the conventional defaults for MAUS
// input files. bitDepth is in bits per sample.
func DefaultHeader(sampleRate, channels, bitDepth int) Header {
	return Header{
		LHD: "Partitur 1.2",
		REP: "unknown",
		SNB: bitDepth / 8,
		SAM: sampleRate,
		SBF: "01",
		SSB: bitDepth,
		NCH: channels,
		SPN: "unknown",
		SPA: "SAM-PA",
	}
}

// Word is one orthographic word with its transliterated phoneme sequence.
// Index is the global ORT/KAN/RID index, unique and increasing across the
// whole file; Ordinal is the word's position within its record.
type Word struct {
	Index    int
	Ordinal  int
	RecordID string
	Surface  string
	Phonemes []string
	// SlotStart is the index of the word's first phoneme slot. The word owns
	// slots SlotStart..SlotStart+len(Phonemes)-1.
	SlotStart int
}

// Slot is one emitted phoneme token. Slot indices are contiguous and
// strictly increasing in emission order across the whole file.
type Slot struct {
	Index          int
	RecordID       string
	WordIndex      int
	WordOrdinal    int
	PhonemeOrdinal int
	Symbol         string
}

// RecordRef groups the word indices of one record, with the optional prior
// time constraint (TRN tier) in samples.
type RecordRef struct {
	ID          string
	WordIndexes []int
	// Start and Duration are the TRN constraint in samples, nil when the
	// record carries no prior times.
	Start    *int
	Duration *int
}

// Document is a complete BAS Partitur file: the header, the words in index
// order, the record grouping and the derived slot table.
type Document struct {
	Header  Header
	Words   []Word
	Records []RecordRef
	Slots   []Slot
}

// SlotsOf returns the slots owned by the given word.
func (d *Document) SlotsOf(w Word) []Slot {
	return d.Slots[w.SlotStart : w.SlotStart+len(w.Phonemes)]
}

// WordByIndex returns the word with the given global index.
func (d *Document) WordByIndex(index int) (Word, bool) {
	if index < 0 || index >= len(d.Words) {
		return Word{}, false
	}
	// Words are stored in index order with contiguous indices.
	return d.Words[index], true
}

// Counter assigns strictly increasing indices. It is threaded explicitly
// through the writer so index assignment stays per-call, not process-wide.
type Counter struct {
	next int
}

// Next returns the next index.
func (c *Counter) Next() int {
	n := c.next
	c.next++
	return n
}

// MisalignedOutputError reports that a post-alignment MAU file does not
// correspond to the pre-alignment slot table: wrong segment count, duplicate
// or out-of-range indices, or decreasing index order. There is no recovery
// short of re-running the aligner on the matching input.
type MisalignedOutputError struct {
	Expected int    // number of slots in the table
	Got      int    // number of segments read
	Message  string // detail of the first mismatch
}

func (e *MisalignedOutputError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("aligned output does not match phoneme slot table: %s", e.Message)
	}
	return fmt.Sprintf("aligned output does not match phoneme slot table: expected %d segments, got %d",
		e.Expected, e.Got)
}
