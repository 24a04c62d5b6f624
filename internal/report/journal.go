package report

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/lingtools/mausalign/core/errors"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id      TEXT PRIMARY KEY,
	command TEXT NOT NULL,
	started TEXT NOT NULL,
	entries INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS findings (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	kind      TEXT NOT NULL,
	record_id TEXT,
	detail    TEXT
);
`

// Journal appends the run and its findings to a SQLite journal file, so
// anomaly reports from long conversion batches survive the terminal.
func (c *Collector) Journal(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return errors.NewIO("open journal", path, err)
	}
	defer db.Close()

	if _, err := db.Exec(journalSchema); err != nil {
		return errors.NewIO("initialize journal", path, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.NewIO("write journal", path, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, command, started, entries) VALUES (?, ?, ?, ?)`,
		c.RunID, c.Command, c.Started.Format("2006-01-02T15:04:05Z"), len(c.entries),
	); err != nil {
		return errors.NewIO("write journal", path, err)
	}
	for _, e := range c.entries {
		if _, err := tx.Exec(
			`INSERT INTO findings (run_id, kind, record_id, detail) VALUES (?, ?, ?, ?)`,
			c.RunID, string(e.Kind), e.RecordID, e.Detail,
		); err != nil {
			return errors.NewIO("write journal", path, err)
		}
	}
	return tx.Commit()
}
