package journal

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{
	"attempt_id", "item", "price", "block_time", "state", "tx_id", "reason", "submitted_at",
}

type CSVJournal struct {
	path string
	w    *csv.Writer
	f    *os.File
}

// NewCSV opens (or creates) an append-mode CSV journal. The header is written
// only when the file starts empty.
func NewCSV(path string) (*CSVJournal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &CSVJournal{path: path, w: w, f: f}, nil
}

func (j *CSVJournal) RecordSubmission(r SubmissionRecord) error {
	err := j.w.Write([]string{
		r.AttemptID,
		r.Item,
		r.Price,
		strconv.FormatInt(r.BlockTime, 10),
		r.State,
		r.TxID,
		r.Reason,
		r.SubmittedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

// ListSubmissions re-reads the file, newest first. limit <= 0 means all.
func (j *CSVJournal) ListSubmissions(limit int) ([]SubmissionRecord, error) {
	f, err := os.Open(j.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	var recs []SubmissionRecord
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			continue // header
		}
		if len(row) != len(csvHeader) {
			continue
		}
		blockTime, _ := strconv.ParseInt(row[3], 10, 64)
		submitted, _ := time.Parse(time.RFC3339, row[7])
		recs = append(recs, SubmissionRecord{
			AttemptID:   row[0],
			Item:        row[1],
			Price:       row[2],
			BlockTime:   blockTime,
			State:       row[4],
			TxID:        row[5],
			Reason:      row[6],
			SubmittedAt: submitted,
		})
	}

	// Newest first, matching the sqlite journal.
	for i, k := 0, len(recs)-1; i < k; i, k = i+1, k-1 {
		recs[i], recs[k] = recs[k], recs[i]
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (j *CSVJournal) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Close()
}
