package toolbox

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParseTimecode(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"0", 0},
		{"12.345", 12.345},
		{"0:01:02.5", 62.5},
		{"1:02:03", 3723},
		{" 7.5 ", 7.5},
	}
	for _, c := range cases {
		got, err := ParseTimecode(c.in)
		if err != nil {
			t.Errorf("ParseTimecode(%q): %v", c.in, err)
			continue
		}
		if !approx(got, c.want) {
			t.Errorf("ParseTimecode(%q) = %v, want %v", c.in, got, c.want)
		}
	}

	for _, bad := range []string{"", "1:2", "abc", "1:xx:03"} {
		if _, err := ParseTimecode(bad); err == nil {
			t.Errorf("ParseTimecode(%q) should fail", bad)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := FormatSeconds(1.5); got != "1.500" {
		t.Errorf("FormatSeconds(1.5) = %q", got)
	}
	if got := FormatSeconds(0); got != "0.000" {
		t.Errorf("FormatSeconds(0) = %q", got)
	}
}

const sampleToolbox = `\_sh v3.0 400 Text

\ref 1
\t Casa blanca
\m casa blanca
\ge house white

\ref 2
\t hola
\t amigo
\note multi-line transcription
`

func TestReadDocument(t *testing.T) {
	doc, err := ReadDocument([]byte(sampleToolbox), "sample.txt", ReadOptions{
		RecordMarker:        "ref",
		TranscriptionMarker: "t",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(doc.Records))
	}

	r1 := doc.Records[0]
	if r1.ID != "1" || r1.Transcription != "Casa blanca" {
		t.Errorf("record 1 = %+v", r1)
	}
	if !reflect.DeepEqual(r1.Words(), []string{"Casa", "blanca"}) {
		t.Errorf("words = %v", r1.Words())
	}
	wantTiers := []TierValue{{Marker: "m", Value: "casa blanca"}, {Marker: "ge", Value: "house white"}}
	if !reflect.DeepEqual(r1.Tiers, wantTiers) {
		t.Errorf("tiers = %+v", r1.Tiers)
	}

	// Transcription content on several lines is joined.
	if doc.Records[1].Transcription != "hola amigo" {
		t.Errorf("record 2 transcription = %q", doc.Records[1].Transcription)
	}
}

func TestReadDocumentTimeMarkers(t *testing.T) {
	input := "\\ref 1\n\\t hola\n\\ELANBegin 0:00:01.5\n\\ELANEnd 2.25\n"
	doc, err := ReadDocument([]byte(input), "in.txt", ReadOptions{
		RecordMarker:        "ref",
		TranscriptionMarker: "t",
		StartTimeMarker:     "ELANBegin",
		EndTimeMarker:       "ELANEnd",
	})
	if err != nil {
		t.Fatal(err)
	}
	rec := doc.Records[0]
	if rec.Start == nil || !approx(*rec.Start, 1.5) {
		t.Errorf("start = %v", rec.Start)
	}
	if rec.End == nil || !approx(*rec.End, 2.25) {
		t.Errorf("end = %v", rec.End)
	}

	missing := "\\ref 1\n\\t hola\n\\ELANBegin 1.5\n"
	if _, err := ReadDocument([]byte(missing), "in.txt", ReadOptions{
		RecordMarker:        "ref",
		TranscriptionMarker: "t",
		StartTimeMarker:     "ELANBegin",
		EndTimeMarker:       "ELANEnd",
	}); err == nil {
		t.Error("record missing its end time should be rejected")
	}

	if _, err := ReadDocument([]byte(input), "in.txt", ReadOptions{
		RecordMarker:        "ref",
		TranscriptionMarker: "t",
		StartTimeMarker:     "ELANBegin",
	}); err == nil {
		t.Error("start marker without end marker should be rejected")
	}
}

func TestReadDocumentOptionalTimes(t *testing.T) {
	// Record 2 carries no time tiers, the way an annotated file leaves
	// records whose alignment failed entirely.
	input := "\\ref 1\n\\t Casa blanca\n\\ELANBegin 0.000\n\\ELANEnd 0.450\n\n\\ref 2\n\\t hola\n"
	opts := ReadOptions{
		RecordMarker:        "ref",
		TranscriptionMarker: "t",
		StartTimeMarker:     "ELANBegin",
		EndTimeMarker:       "ELANEnd",
	}

	if _, err := ReadDocument([]byte(input), "in.txt", opts); err == nil {
		t.Error("untimed record should be rejected by default")
	}

	opts.OptionalTimes = true
	doc, err := ReadDocument([]byte(input), "in.txt", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(doc.Records))
	}
	if doc.Records[0].Start == nil || doc.Records[0].End == nil {
		t.Errorf("timed record lost its times: %+v", doc.Records[0])
	}
	if doc.Records[1].Start != nil || doc.Records[1].End != nil {
		t.Errorf("untimed record should keep nil times: %+v", doc.Records[1])
	}
}

func TestSliceByOrdinal(t *testing.T) {
	doc := &Document{Records: []Record{{ID: "a"}, {ID: "b"}, {ID: "c"}}}

	got, err := doc.SliceByOrdinal(2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Records) != 2 || got.Records[0].ID != "b" {
		t.Errorf("slice = %+v", got.Records)
	}

	all, err := doc.SliceByOrdinal(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Records) != 3 {
		t.Errorf("open range should keep all records, got %d", len(all.Records))
	}

	if _, err := doc.SliceByOrdinal(3, 2); err == nil {
		t.Error("inverted range should be rejected")
	}
}

func TestSliceByID(t *testing.T) {
	doc := &Document{Records: []Record{{ID: "a"}, {ID: "b"}, {ID: "c"}}}

	got, err := doc.SliceByID("b", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Records) != 2 || got.Records[0].ID != "b" {
		t.Errorf("slice = %+v", got.Records)
	}

	if _, err := doc.SliceByID("x", ""); err == nil {
		t.Error("unknown start ID should be rejected")
	}
	if _, err := doc.SliceByID("c", "a"); err == nil {
		t.Error("inverted ID range should be rejected")
	}
}

func TestReadLinesPreservesEndings(t *testing.T) {
	lines := ReadLines([]byte("a\r\nb\nc"))
	want := []Line{{Raw: "a", Ending: "\r\n"}, {Raw: "b", Ending: "\n"}, {Raw: "c"}}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %+v", lines)
	}

	var out strings.Builder
	for _, l := range lines {
		out.WriteString(l.Raw)
		out.WriteString(l.Ending)
	}
	if out.String() != "a\r\nb\nc" {
		t.Errorf("reassembly lost bytes: %q", out.String())
	}
}
