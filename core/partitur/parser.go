package partitur

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lingtools/mausalign/core/errors"
)

// Parse reads a BAS Partitur file written by Format back into a Document,
// rebuilding the phoneme slot table from the KAN and RID tiers. The slot
// table is derived in the same emission order the writer used, so a reparsed
// original file yields the identical slot numbering.
func Parse(data []byte, path string) (*Document, error) {
	doc := &Document{}

	ort := map[int]string{}
	kan := map[int][]string{}
	type ridEntry struct {
		id      string
		indexes []int
	}
	var rids []ridEntry
	trnStart := map[string]int{}
	trnDuration := map[string]int{}

	for i, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		lineNo := i + 1
		if line == "" {
			continue
		}

		key, rest, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		rest = strings.TrimSpace(rest)

		switch key {
		case "LHD":
			doc.Header.LHD = rest
		case "REP":
			doc.Header.REP = rest
		case "SBF":
			doc.Header.SBF = rest
		case "SPN":
			doc.Header.SPN = rest
		case "DBN":
			doc.Header.DBN = rest
		case "SRC":
			doc.Header.SRC = rest
		case "SPA":
			doc.Header.SPA = rest
		case "LBD":
			// body label, no value
		case "SNB", "SAM", "SSB", "NCH", "BEG", "END":
			n, err := strconv.Atoi(rest)
			if err != nil {
				return nil, errors.NewParseLine("BAS Partitur", path, lineNo,
					fmt.Sprintf("header field %s is not a number: %q", key, rest))
			}
			switch key {
			case "SNB":
				doc.Header.SNB = n
			case "SAM":
				doc.Header.SAM = n
			case "SSB":
				doc.Header.SSB = n
			case "NCH":
				doc.Header.NCH = n
			case "BEG":
				doc.Header.BEG = &n
			case "END":
				doc.Header.END = &n
			}

		case "ORT":
			fields := strings.Fields(rest)
			if len(fields) != 2 {
				return nil, errors.NewParseLine("BAS Partitur", path, lineNo,
					"ORT line must contain an index and a word")
			}
			idx, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, errors.NewParseLine("BAS Partitur", path, lineNo,
					fmt.Sprintf("ORT index is not a number: %q", fields[0]))
			}
			ort[idx] = fields[1]

		case "KAN":
			fields := strings.Fields(rest)
			if len(fields) < 2 {
				return nil, errors.NewParseLine("BAS Partitur", path, lineNo,
					"KAN line must contain an index and at least one symbol")
			}
			idx, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, errors.NewParseLine("BAS Partitur", path, lineNo,
					fmt.Sprintf("KAN index is not a number: %q", fields[0]))
			}
			kan[idx] = fields[1:]

		case "RID":
			fields := strings.Fields(rest)
			if len(fields) < 2 {
				return nil, errors.NewParseLine("BAS Partitur", path, lineNo,
					"RID line must contain word indexes and a record ID")
			}
			indexes, err := splitIndexes(fields[0])
			if err != nil {
				return nil, errors.NewParseLine("BAS Partitur", path, lineNo, err.Error())
			}
			rids = append(rids, ridEntry{
				id:      strings.Join(fields[1:], " "),
				indexes: indexes,
			})

		case "TRN":
			fields := strings.Fields(rest)
			if len(fields) < 4 {
				return nil, errors.NewParseLine("BAS Partitur", path, lineNo,
					"TRN line must contain start, duration, word indexes and a record ID")
			}
			start, err1 := strconv.Atoi(fields[0])
			duration, err2 := strconv.Atoi(fields[1])
			if err1 != nil || err2 != nil {
				return nil, errors.NewParseLine("BAS Partitur", path, lineNo,
					"TRN start and duration must be sample counts")
			}
			id := strings.Join(fields[3:], " ")
			trnStart[id] = start
			trnDuration[id] = duration
		}
	}

	if len(ort) != len(kan) {
		return nil, errors.NewParse("BAS Partitur", path,
			fmt.Sprintf("ORT tier has %d words but KAN tier has %d", len(ort), len(kan)))
	}

	// Word indices must be contiguous from 0.
	indexes := make([]int, 0, len(ort))
	for idx := range ort {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for want, idx := range indexes {
		if idx != want {
			return nil, errors.NewParse("BAS Partitur", path,
				fmt.Sprintf("word indices are not contiguous: expected %d, found %d", want, idx))
		}
	}

	wordRecord := map[int]string{}
	wordOrdinal := map[int]int{}
	for _, rid := range rids {
		ref := RecordRef{ID: rid.id, WordIndexes: rid.indexes}
		if start, ok := trnStart[rid.id]; ok {
			s := start
			d := trnDuration[rid.id]
			ref.Start = &s
			ref.Duration = &d
		}
		doc.Records = append(doc.Records, ref)
		for ordinal, idx := range rid.indexes {
			if _, seen := wordRecord[idx]; seen {
				return nil, errors.NewParse("BAS Partitur", path,
					fmt.Sprintf("word index %d appears in more than one RID line", idx))
			}
			wordRecord[idx] = rid.id
			wordOrdinal[idx] = ordinal
		}
	}

	var slotCounter Counter
	for _, idx := range indexes {
		phonemes, ok := kan[idx]
		if !ok {
			return nil, errors.NewParse("BAS Partitur", path,
				fmt.Sprintf("word index %d has an ORT entry but no KAN entry", idx))
		}
		recordID, ok := wordRecord[idx]
		if !ok {
			return nil, errors.NewParse("BAS Partitur", path,
				fmt.Sprintf("word index %d is not grouped by any RID line", idx))
		}

		word := Word{
			Index:     idx,
			Ordinal:   wordOrdinal[idx],
			RecordID:  recordID,
			Surface:   ort[idx],
			Phonemes:  phonemes,
			SlotStart: len(doc.Slots),
		}
		for p, sym := range phonemes {
			doc.Slots = append(doc.Slots, Slot{
				Index:          slotCounter.Next(),
				RecordID:       recordID,
				WordIndex:      idx,
				WordOrdinal:    word.Ordinal,
				PhonemeOrdinal: p,
				Symbol:         sym,
			})
		}
		doc.Words = append(doc.Words, word)
	}

	return doc, nil
}

func splitIndexes(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	indexes := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("word index is not a number: %q", part)
		}
		indexes = append(indexes, n)
	}
	return indexes, nil
}
