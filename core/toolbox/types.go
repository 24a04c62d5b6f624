// Package toolbox implements the tiered transcript model: reading Toolbox
// files into records, annotating an existing file with computed time tiers,
// and writing new Toolbox files from scratch.
package toolbox

// TierValue is one non-structural tier line of a record, kept in file order.
// Unknown markers pass through conversions opaquely.
type TierValue struct {
	Marker string
	Value  string
}

// Record is one tiered utterance. It owns its transcription text and any
// prior time constraint read from dedicated time tiers.
type Record struct {
	// ID is the content of the record/reference marker line.
	ID string

	// Transcription is the whitespace-normalized content of the designated
	// transcription tier. Tier content spanning several lines is joined with
	// single spaces.
	Transcription string

	// Tiers holds all other marker lines of the record in file order.
	Tiers []TierValue

	// Start and End are the prior utterance time constraints in seconds,
	// present only when the reader was given start/end time markers.
	Start *float64
	End   *float64
}

// Words splits the transcription tier into words at whitespace.
func (r *Record) Words() []string {
	return fieldsOf(r.Transcription)
}

// Document is an ordered sequence of records read from one Toolbox file.
type Document struct {
	Records []Record
}
