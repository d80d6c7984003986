package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordSubmission(r SubmissionRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO submissions
		(attempt_id, item, price, block_time, state, tx_id, reason, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.AttemptID, r.Item, r.Price, r.BlockTime,
		r.State, r.TxID, r.Reason, r.SubmittedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ListSubmissions returns the most recent records first. limit <= 0 means all.
func (j *SQLiteJournal) ListSubmissions(limit int) ([]SubmissionRecord, error) {
	q := `SELECT attempt_id, item, price, block_time, state, tx_id, reason, submitted_at
		FROM submissions ORDER BY attempt_id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []SubmissionRecord
	for rows.Next() {
		var r SubmissionRecord
		var submitted string
		if err := rows.Scan(&r.AttemptID, &r.Item, &r.Price, &r.BlockTime,
			&r.State, &r.TxID, &r.Reason, &submitted); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, submitted); err == nil {
			r.SubmittedAt = t
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
