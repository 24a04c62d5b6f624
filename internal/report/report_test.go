package report

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
)

func TestCollector(t *testing.T) {
	c := New("partitur write")
	if c.RunID == "" {
		t.Fatal("run ID missing")
	}
	if !c.Empty() {
		t.Error("fresh collector should be empty")
	}

	c.Add(KindUnmappedChar, "1", `character 'x' at position 2`)
	c.Addf(KindFailedSegment, "2", "word %q has no time", "casa")
	c.Add(KindUnmappedChar, "3", `character 'y' at position 0`)

	if c.Count(KindUnmappedChar) != 2 || c.Count(KindFailedSegment) != 1 {
		t.Errorf("counts wrong: %+v", c.Entries())
	}

	var out strings.Builder
	c.WriteSummary(&out)
	text := out.String()
	if !strings.Contains(text, "2 unmapped characters passed through") {
		t.Errorf("summary missing count line:\n%s", text)
	}
	if !strings.Contains(text, "record 2: word \"casa\" has no time") {
		t.Errorf("summary missing detail line:\n%s", text)
	}
}

func TestWriteSummaryEmpty(t *testing.T) {
	var out strings.Builder
	New("x").WriteSummary(&out)
	if !strings.Contains(out.String(), "no anomalies") {
		t.Errorf("summary = %q", out.String())
	}
}

func TestJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	c := New("toolbox import")
	c.Add(KindTimeConflict, "5", "slot ts9 would precede slot ts8")
	if err := c.Journal(path); err != nil {
		t.Fatal(err)
	}

	// A second run appends rather than overwrites.
	d := New("toolbox import")
	if err := d.Journal(path); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var runs int
	if err := db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs); err != nil {
		t.Fatal(err)
	}
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}

	var kind, record string
	if err := db.QueryRow(`SELECT kind, record_id FROM findings WHERE run_id = ?`, c.RunID).
		Scan(&kind, &record); err != nil {
		t.Fatal(err)
	}
	if kind != string(KindTimeConflict) || record != "5" {
		t.Errorf("finding = %s/%s", kind, record)
	}
}
