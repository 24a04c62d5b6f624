package partitur

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lingtools/mausalign/core/errors"
	"github.com/lingtools/mausalign/core/translit"
)

// nibToken is emitted when transliteration yields no phonemes for a word, so
// the word still owns exactly one slot and indexing stays contiguous.
const nibToken = "<nib>"

// Utterance is the writer's view of one record: its ID, the words of the
// transcription tier in order, and the optional prior time constraint in
// seconds.
type Utterance struct {
	ID    string
	Words []string
	Start *float64
	End   *float64
}

// Anomaly kinds reported by Build. These are content-level findings that do
// not abort the conversion.
const (
	AnomalyUnmappedChar = "unmapped-character"
	AnomalyEmptyWord    = "empty-transliteration"
	AnomalyOverlap      = "overlapping-utterances"
)

// Anomaly is a reportable, non-fatal finding from building a Partitur file.
type Anomaly struct {
	Kind     string
	RecordID string
	Word     string
	Message  string
}

// Build transliterates every word of every utterance and assembles the
// Partitur document: words get global indices in emission order, and one slot
// per phoneme is appended to the slot table with its back-reference. Records
// with prior times get a TRN constraint converted to samples.
func Build(utterances []Utterance, tr *translit.Transliterator, hdr Header) (*Document, []Anomaly, error) {
	doc := &Document{Header: hdr}
	var anomalies []Anomaly

	var wordCounter, slotCounter Counter
	lastEndSample := 0

	for _, utt := range utterances {
		ref := RecordRef{ID: utt.ID}

		for ordinal, surface := range utt.Words {
			phonemes, unmapped := tr.Word(surface)
			for _, u := range unmapped {
				anomalies = append(anomalies, Anomaly{
					Kind:     AnomalyUnmappedChar,
					RecordID: utt.ID,
					Word:     surface,
					Message:  fmt.Sprintf("character %q at position %d matches no rule, passed through", u.Char, u.Pos),
				})
			}
			if len(phonemes) == 0 {
				phonemes = []string{nibToken}
				anomalies = append(anomalies, Anomaly{
					Kind:     AnomalyEmptyWord,
					RecordID: utt.ID,
					Word:     surface,
					Message:  "transliteration produced no phonemes, emitted " + nibToken,
				})
			}

			word := Word{
				Index:     wordCounter.Next(),
				Ordinal:   ordinal,
				RecordID:  utt.ID,
				Surface:   surface,
				Phonemes:  phonemes,
				SlotStart: len(doc.Slots),
			}
			for p, sym := range phonemes {
				doc.Slots = append(doc.Slots, Slot{
					Index:          slotCounter.Next(),
					RecordID:       utt.ID,
					WordIndex:      word.Index,
					WordOrdinal:    ordinal,
					PhonemeOrdinal: p,
					Symbol:         sym,
				})
			}
			doc.Words = append(doc.Words, word)
			ref.WordIndexes = append(ref.WordIndexes, word.Index)
		}

		if utt.Start != nil && utt.End != nil {
			startSample := secondsToSamples(*utt.Start, hdr.SAM)
			endSample := secondsToSamples(*utt.End, hdr.SAM)
			if startSample >= endSample {
				return nil, anomalies, errors.NewValidation("utterance times",
					fmt.Sprintf("start time of record %q is at or after its end time", utt.ID))
			}
			if startSample < lastEndSample {
				anomalies = append(anomalies, Anomaly{
					Kind:     AnomalyOverlap,
					RecordID: utt.ID,
					Message:  "utterance overlaps the preceding one",
				})
			}
			lastEndSample = endSample
			duration := endSample - startSample
			ref.Start = &startSample
			ref.Duration = &duration
		}

		doc.Records = append(doc.Records, ref)
	}

	return doc, anomalies, nil
}

func secondsToSamples(seconds float64, sampleRate int) int {
	return int(math.Round(seconds * float64(sampleRate)))
}

// Format renders the document as BAS Partitur text: the header, then the
// ORT, KAN, RID and TRN tiers separated by blank lines. TRN lines appear
// only for records carrying a prior time constraint.
func Format(doc *Document) []byte {
	var buf bytes.Buffer

	writeHeader(&buf, doc.Header)
	buf.WriteByte('\n')

	for _, w := range doc.Words {
		fmt.Fprintf(&buf, "ORT: %d %s\n", w.Index, w.Surface)
	}
	buf.WriteByte('\n')

	for _, w := range doc.Words {
		fmt.Fprintf(&buf, "KAN: %d %s\n", w.Index, strings.Join(w.Phonemes, " "))
	}
	buf.WriteByte('\n')

	for _, rec := range doc.Records {
		if len(rec.WordIndexes) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "RID: %s %s\n", joinIndexes(rec.WordIndexes), rec.ID)
	}

	wroteBlank := false
	for _, rec := range doc.Records {
		if rec.Start == nil || rec.Duration == nil || len(rec.WordIndexes) == 0 {
			continue
		}
		if !wroteBlank {
			buf.WriteByte('\n')
			wroteBlank = true
		}
		fmt.Fprintf(&buf, "TRN: %d %d %s %s\n", *rec.Start, *rec.Duration, joinIndexes(rec.WordIndexes), rec.ID)
	}

	return buf.Bytes()
}

func writeHeader(buf *bytes.Buffer, h Header) {
	fmt.Fprintf(buf, "LHD: %s\n", h.LHD)
	fmt.Fprintf(buf, "REP: %s\n", h.REP)
	fmt.Fprintf(buf, "SNB: %d\n", h.SNB)
	fmt.Fprintf(buf, "SAM: %d\n", h.SAM)
	fmt.Fprintf(buf, "SBF: %s\n", h.SBF)
	fmt.Fprintf(buf, "SSB: %d\n", h.SSB)
	fmt.Fprintf(buf, "NCH: %d\n", h.NCH)
	fmt.Fprintf(buf, "SPN: %s\n", h.SPN)
	fmt.Fprintf(buf, "DBN: %s\n", h.DBN)
	if h.BEG != nil {
		fmt.Fprintf(buf, "BEG: %d\n", *h.BEG)
	}
	if h.END != nil {
		fmt.Fprintf(buf, "END: %d\n", *h.END)
	}
	if h.SRC != "" {
		fmt.Fprintf(buf, "SRC: %s\n", h.SRC)
	}
	fmt.Fprintf(buf, "SPA: %s\n", h.SPA)
	buf.WriteString("LBD:\n")
}

func joinIndexes(indexes []int) string {
	parts := make([]string, len(indexes))
	for i, idx := range indexes {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}
