package toolbox

import (
	"testing"
)

func readTimedDoc(t *testing.T, input string) *Document {
	t.Helper()
	doc, err := ReadDocument([]byte(input), "in.txt", ReadOptions{
		RecordMarker:        "ref",
		TranscriptionMarker: "t",
		StartTimeMarker:     "ELANBegin",
		EndTimeMarker:       "ELANEnd",
	})
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestRecordTimesFromTiers(t *testing.T) {
	input := "\\ref 1\n\\t Casa blanca\n\\ELANBegin 0.000\n\\ELANEnd 0.450\n" +
		"\\WordBegin 0.000 0.300\n\\WordEnd 0.300 0.450\n"
	doc := readTimedDoc(t, input)

	times, err := RecordTimesFromTiers(doc, DefaultTierNames())
	if err != nil {
		t.Fatal(err)
	}
	if len(times) != 1 {
		t.Fatalf("times = %+v", times)
	}
	rt := times[0]
	if rt.Span == nil || !approx(rt.Span.Start, 0.0) || !approx(rt.Span.End, 0.45) {
		t.Errorf("record span = %+v", rt.Span)
	}
	if len(rt.Words) != 2 {
		t.Fatalf("words = %+v", rt.Words)
	}
	if rt.Words[1].Surface != "blanca" || rt.Words[1].Span == nil || !approx(rt.Words[1].Span.Start, 0.3) {
		t.Errorf("word 1 = %+v", rt.Words[1])
	}
}

func TestRecordTimesFromTiersWithoutWordTiers(t *testing.T) {
	doc := readTimedDoc(t, "\\ref 1\n\\t Casa blanca\n\\ELANBegin 0.000\n\\ELANEnd 0.450\n")

	times, err := RecordTimesFromTiers(doc, DefaultTierNames())
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range times[0].Words {
		if w.Span != nil {
			t.Errorf("word %q should carry no span: %+v", w.Surface, w.Span)
		}
	}
}

func TestRecordTimesFromTiersCountMismatch(t *testing.T) {
	input := "\\ref 1\n\\t Casa blanca\n\\ELANBegin 0.000\n\\ELANEnd 0.450\n" +
		"\\WordBegin 0.000\n\\WordEnd 0.300\n"
	doc := readTimedDoc(t, input)

	if _, err := RecordTimesFromTiers(doc, DefaultTierNames()); err == nil {
		t.Error("word time count not matching the word count should be rejected")
	}
}
