package textgrid

import (
	"strings"
	"testing"

	"github.com/lingtools/mausalign/core/align"
	"github.com/lingtools/mausalign/core/partitur"
	"github.com/lingtools/mausalign/core/translit"
)

func testDoc(t *testing.T) *partitur.Document {
	t.Helper()
	table, err := translit.ParseTable([]byte("C --> k\na --> a\n"))
	if err != nil {
		t.Fatal(err)
	}
	doc, _, err := partitur.Build([]partitur.Utterance{{ID: "1", Words: []string{"Ca"}}},
		translit.New(table), partitur.DefaultHeader(1000, 1, 16))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func testSegments() []partitur.PhoneSegment {
	return []partitur.PhoneSegment{
		{SlotIndex: 0, Start: 0, Duration: 100, Symbol: "k"},
		{SlotIndex: 1, Start: 100, Duration: 200, Symbol: "a"},
		{SlotIndex: 2, Start: -1, Duration: -1, Symbol: "r", Failed: true},
	}
}

func TestRenderFillsGaps(t *testing.T) {
	tiers := []Tier{{
		Name: "word",
		Intervals: []Interval{
			{Start: 0.5, End: 1.0, Label: "Casa"},
			{Start: 1.2, End: 1.5, Label: "blanca"},
		},
	}}

	out, err := Render(0, 2, tiers)
	if err != nil {
		t.Fatal(err)
	}
	text := string(out)

	if !strings.HasPrefix(text, "File type = \"ooTextFile\"\n") {
		t.Errorf("missing preamble:\n%s", text)
	}
	// Leading gap, two labels, middle gap, trailing gap.
	if !strings.Contains(text, "intervals: size = 5") {
		t.Errorf("gap filling wrong:\n%s", text)
	}
	for _, want := range []string{
		"name = \"word\"",
		"text = \"Casa\"",
		"text = \"blanca\"",
		"xmax = 2\n",
		"xmin = 1.2\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRenderEmptyTier(t *testing.T) {
	out, err := Render(0, 1.5, []Tier{{Name: "phone"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "intervals: size = 1") {
		t.Errorf("empty tier should cover the whole range:\n%s", out)
	}
}

func TestRenderRejectsOverlap(t *testing.T) {
	tiers := []Tier{{
		Name: "word",
		Intervals: []Interval{
			{Start: 0, End: 1, Label: "a"},
			{Start: 0.5, End: 2, Label: "b"},
		},
	}}
	if _, err := Render(0, 2, tiers); err == nil {
		t.Error("overlapping intervals should be rejected")
	}
}

func TestFromAlignmentSkipsFailed(t *testing.T) {
	span := func(s, e float64) *align.Span { return &align.Span{Start: s, End: e} }
	records := []align.RecordTimes{{
		ID:   "1",
		Span: span(0, 0.45),
		Words: []align.WordTimes{
			{Surface: "Casa", Span: span(0, 0.3)},
			{Surface: "rota", Span: nil},
		},
	}}

	tiers := FromAlignment(testDoc(t), testSegments(), records)
	if len(tiers) != 3 {
		t.Fatalf("expected phone/word/utterance tiers, got %d", len(tiers))
	}
	if len(tiers[0].Intervals) != 2 {
		t.Errorf("failed phone segment should be skipped: %+v", tiers[0].Intervals)
	}
	if len(tiers[1].Intervals) != 1 || tiers[1].Intervals[0].Label != "Casa" {
		t.Errorf("unaligned word should be skipped: %+v", tiers[1].Intervals)
	}
	if len(tiers[2].Intervals) != 1 || tiers[2].Intervals[0].Label != "1" {
		t.Errorf("utterance tier wrong: %+v", tiers[2].Intervals)
	}
}
