package source

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// OpenCSV loads a CSV (or TSV) export of the jokes table into an in-memory
// SQLite database so it answers the same queries as a database file.
//
// Required columns: jokeid, date, venue. Optional: score (empty means no
// score) and position (or id). Without a position column rows are numbered
// in file order, so jokes of one set must be contiguous for predecessor lookups.
func OpenCSV(path string) (*SQLite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrUpstream, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if hasExt(path, ".tsv") {
		r.Comma = '\t'
	}
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	return loadMemory(path, r)
}

// rowReader yields one record per call and io.EOF at the end.
// *csv.Reader satisfies it.
type rowReader interface {
	Read() ([]string, error)
}

// loadMemory reads every row from r into a fresh in-memory database.
func loadMemory(path string, r rowReader) (*SQLite, error) {
	recs, err := readRows(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, path, err)
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("%w: in-memory store: %w", ErrUpstream, err)
	}
	// every connection to :memory: is a distinct database
	db.SetMaxOpenConns(1)
	if err := load(context.Background(), db, recs); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: load %s: %w", ErrUpstream, path, err)
	}
	return &SQLite{db: db, path: path}, nil
}

type csvRow struct {
	id     int64
	jokeid string
	date   string
	venue  string
	score  sql.NullFloat64
}

func readRows(r rowReader) ([]csvRow, error) {
	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, need := range []string{"jokeid", "date", "venue"} {
		if _, ok := col[need]; !ok {
			return nil, fmt.Errorf("missing %q column", need)
		}
	}
	posCol, hasPos := col["position"]
	if !hasPos {
		posCol, hasPos = col["id"]
	}
	scoreCol, hasScore := col["score"]

	field := func(rec []string, i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var rows []csvRow
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row := csvRow{
			id:     int64(line - 1),
			jokeid: field(rec, col["jokeid"]),
			date:   field(rec, col["date"]),
			venue:  field(rec, col["venue"]),
		}
		if row.jokeid == "" {
			return nil, fmt.Errorf("line %d: empty jokeid", line)
		}
		if hasPos {
			if v := field(rec, posCol); v != "" {
				n, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: position %q: %w", line, v, err)
				}
				row.id = n
			}
		}
		if hasScore {
			if v := field(rec, scoreCol); v != "" {
				s, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: score %q: %w", line, v, err)
				}
				row.score = sql.NullFloat64{Float64: s, Valid: true}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func load(ctx context.Context, db *sql.DB, rows []csvRow) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO jokes (id, jokeid, date, venue, score) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.id, r.jokeid, r.date, r.venue, r.score); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

type csvOpener struct{}

func (csvOpener) CanOpen(path string) bool { return hasExt(path, ".csv", ".tsv") }

func (csvOpener) Open(path string) (Source, error) { return OpenCSV(path) }
