package partitur

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/lingtools/mausalign/core/translit"
)

func testTransliterator(t *testing.T) *translit.Transliterator {
	t.Helper()
	table, err := translit.ParseTable([]byte("C --> k\nc --> k\na --> a\ns --> s\nt --> t\nh --> h\n. --\n"))
	if err != nil {
		t.Fatal(err)
	}
	return translit.New(table)
}

func buildTestDoc(t *testing.T) *Document {
	t.Helper()
	start1, end1 := 0.5, 1.5
	utterances := []Utterance{
		{ID: "rec1", Words: []string{"Casa.", "chat"}, Start: &start1, End: &end1},
		{ID: "rec2", Words: []string{"sat"}},
	}
	doc, anomalies, err := Build(utterances, testTransliterator(t), DefaultHeader(44100, 1, 16))
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range anomalies {
		t.Logf("anomaly: %+v", a)
	}
	return doc
}

func TestBuildIndexing(t *testing.T) {
	doc := buildTestDoc(t)

	if len(doc.Words) != 3 {
		t.Fatalf("expected 3 words, got %d", len(doc.Words))
	}
	for i, w := range doc.Words {
		if w.Index != i {
			t.Errorf("word %d has index %d", i, w.Index)
		}
	}

	// Casa. -> k a s a (4), chat -> k h a t (4), sat -> s a t (3)
	if len(doc.Slots) != 11 {
		t.Fatalf("expected 11 slots, got %d", len(doc.Slots))
	}
	for i, s := range doc.Slots {
		if s.Index != i {
			t.Errorf("slot %d has index %d", i, s.Index)
		}
	}

	// Slot back-references never cross word boundaries.
	for _, w := range doc.Words {
		slots := doc.SlotsOf(w)
		if len(slots) != len(w.Phonemes) {
			t.Errorf("word %q owns %d slots, want %d", w.Surface, len(slots), len(w.Phonemes))
		}
		for p, s := range slots {
			if s.RecordID != w.RecordID || s.WordIndex != w.Index || s.PhonemeOrdinal != p {
				t.Errorf("slot %d has wrong back-reference: %+v", s.Index, s)
			}
			if s.Symbol != w.Phonemes[p] {
				t.Errorf("slot %d symbol %q, want %q", s.Index, s.Symbol, w.Phonemes[p])
			}
		}
	}
}

func TestBuildTRNConstraint(t *testing.T) {
	doc := buildTestDoc(t)

	rec := doc.Records[0]
	if rec.Start == nil || rec.Duration == nil {
		t.Fatal("rec1 should carry a TRN constraint")
	}
	if *rec.Start != 22050 || *rec.Duration != 44100 {
		t.Errorf("TRN constraint = (%d, %d), want (22050, 44100)", *rec.Start, *rec.Duration)
	}
	if doc.Records[1].Start != nil {
		t.Error("rec2 should carry no TRN constraint")
	}
}

func TestBuildRejectsInvertedTimes(t *testing.T) {
	start, end := 2.0, 1.0
	_, _, err := Build([]Utterance{{ID: "r", Words: []string{"sat"}, Start: &start, End: &end}},
		testTransliterator(t), DefaultHeader(44100, 1, 16))
	if err == nil {
		t.Fatal("inverted utterance times should be fatal")
	}
}

func TestBuildEmptyWordGetsNib(t *testing.T) {
	table, err := translit.ParseTable([]byte(". --\n"))
	if err != nil {
		t.Fatal(err)
	}
	doc, anomalies, err := Build([]Utterance{{ID: "r", Words: []string{"..."}}},
		translit.New(table), DefaultHeader(44100, 1, 16))
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Words[0].Phonemes; !reflect.DeepEqual(got, []string{"<nib>"}) {
		t.Errorf("phonemes = %v, want [<nib>]", got)
	}
	found := false
	for _, a := range anomalies {
		if a.Kind == AnomalyEmptyWord {
			found = true
		}
	}
	if !found {
		t.Error("empty transliteration should be reported")
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	doc := buildTestDoc(t)
	text := Format(doc)

	reparsed, err := Parse(text, "test.par")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !reflect.DeepEqual(reparsed.Words, doc.Words) {
		t.Errorf("words differ after round trip:\n got %+v\nwant %+v", reparsed.Words, doc.Words)
	}
	if !reflect.DeepEqual(reparsed.Slots, doc.Slots) {
		t.Errorf("slot table differs after round trip")
	}
	if !reflect.DeepEqual(reparsed.Records, doc.Records) {
		t.Errorf("records differ after round trip:\n got %+v\nwant %+v", reparsed.Records, doc.Records)
	}
	if Fingerprint(reparsed) != Fingerprint(doc) {
		t.Error("fingerprint should survive the round trip")
	}
}

func TestFormatTiers(t *testing.T) {
	text := string(Format(buildTestDoc(t)))

	for _, want := range []string{
		"ORT: 0 Casa.",
		"KAN: 0 k a s a",
		"RID: 0,1 rec1",
		"RID: 2 rec2",
		"TRN: 22050 44100 0,1 rec1",
		"SAM: 44100",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestParseRejectsGappyIndices(t *testing.T) {
	text := "ORT: 0 a\nORT: 2 b\nKAN: 0 a\nKAN: 2 b\nRID: 0,2 r\n"
	if _, err := Parse([]byte(text), "bad.par"); err == nil {
		t.Fatal("non-contiguous word indices should be rejected")
	}
}

func TestParseRejectsUngroupedWord(t *testing.T) {
	text := "ORT: 0 a\nKAN: 0 a\n"
	if _, err := Parse([]byte(text), "bad.par"); err == nil {
		t.Fatal("a word missing from every RID line should be rejected")
	}
}

func TestReadMAU(t *testing.T) {
	text := `LHD: Partitur 1.2
MAU: 0 4409 0 k
MAU: 4410 5291 1 a
MAU: 9702 3527 -1 <p:>
MAU: 13230 3527 2 s
MAU: -1 -1 3 a
`
	segments, err := ReadMAU([]byte(text), "aligned.par")
	if err != nil {
		t.Fatalf("ReadMAU: %v", err)
	}
	if len(segments) != 4 {
		t.Fatalf("expected 4 segments (pause dropped), got %d", len(segments))
	}
	if segments[2].SlotIndex != 2 || segments[2].Start != 13230 {
		t.Errorf("unexpected segment: %+v", segments[2])
	}
	if !segments[3].Failed {
		t.Error("negative start/duration should mark the segment failed")
	}
}

func TestVerifyAlignment(t *testing.T) {
	doc := buildTestDoc(t)

	good := make([]PhoneSegment, len(doc.Slots))
	for i := range good {
		good[i] = PhoneSegment{SlotIndex: i, Start: i * 100, Duration: 100}
	}
	if err := VerifyAlignment(doc, good); err != nil {
		t.Errorf("matching segments rejected: %v", err)
	}

	var misaligned *MisalignedOutputError

	short := good[:len(good)-1]
	if err := VerifyAlignment(doc, short); !errors.As(err, &misaligned) {
		t.Errorf("missing segment should be a MisalignedOutputError, got %v", err)
	}

	dup := append([]PhoneSegment{}, good...)
	dup[1].SlotIndex = 0
	if err := VerifyAlignment(doc, dup); !errors.As(err, &misaligned) {
		t.Errorf("duplicate slot index should be a MisalignedOutputError, got %v", err)
	}

	swapped := append([]PhoneSegment{}, good...)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	if err := VerifyAlignment(doc, swapped); !errors.As(err, &misaligned) {
		t.Errorf("decreasing indices should be a MisalignedOutputError, got %v", err)
	}
}

func TestFingerprintDistinguishesContent(t *testing.T) {
	doc := buildTestDoc(t)
	other := buildTestDoc(t)
	other.Words[0].Phonemes = []string{"k", "o", "s", "a"}
	if Fingerprint(doc) == Fingerprint(other) {
		t.Error("differing KAN content should change the fingerprint")
	}
}
