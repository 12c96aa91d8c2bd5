package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/KaramelBytes/setlist-cli/internal/model"
)

// Schema is the jokes table every source reads from.
const Schema = `
CREATE TABLE IF NOT EXISTS jokes (
	id     INTEGER,
	jokeid TEXT NOT NULL,
	date   TEXT,
	venue  TEXT,
	score  REAL
)`

const scoredQuery = `
	SELECT id, jokeid, date, venue, score, NULL
	FROM jokes
	WHERE score IS NOT NULL
	ORDER BY rowid`

const precedingQuery = `
	SELECT j1.id, j1.jokeid, j1.date, j1.venue, j1.score, j2.jokeid
	FROM jokes j1
	JOIN jokes j2
	ON j1.date = j2.date AND j1.venue = j2.venue AND j1.id = j2.id + 1
	WHERE j1.jokeid IN (
		SELECT jokeid FROM jokes GROUP BY jokeid HAVING COUNT(*) >= ?
	)
	AND j2.jokeid IN (
		SELECT jokeid FROM jokes GROUP BY jokeid HAVING COUNT(*) >= ?
	)
	AND j1.score IS NOT NULL
	ORDER BY j1.rowid`

const anchorQuery = `
	SELECT t1.id, t1.jokeid, t1.date, t1.venue, t1.score, NULL
	FROM jokes AS t1
	JOIN (
		SELECT DISTINCT date, venue
		FROM jokes
		WHERE jokeid = ? AND score > (SELECT AVG(score) FROM jokes WHERE jokeid = ?)
	) AS anchor_sets
	ON t1.date = anchor_sets.date AND t1.venue = anchor_sets.venue
	WHERE t1.jokeid != ?
	ORDER BY t1.date, t1.venue, t1.score DESC, t1.rowid`

// SQLite reads events from a jokes table.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens the database at path read-only and checks that it is reachable.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrUpstream, path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: connect %s: %w", ErrUpstream, path, err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// Events runs the query selected by q.Kind.
func (s *SQLite) Events(ctx context.Context, q Query) ([]model.Event, error) {
	var (
		query string
		args  []any
	)
	switch q.Kind {
	case Scored:
		query = scoredQuery
	case Preceding:
		floor := q.MinOccurrences
		if floor <= 0 {
			floor = DefaultMinOccurrences
		}
		query, args = precedingQuery, []any{floor, floor}
	case AnchorSets:
		if q.Anchor == "" {
			return nil, fmt.Errorf("anchor-sets query needs an anchor joke")
		}
		query, args = anchorQuery, []any{q.Anchor, q.Anchor, q.Anchor}
	default:
		return nil, fmt.Errorf("unknown query kind %s", q.Kind)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s query on %s: %w", ErrUpstream, q.Kind, s.path, err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var (
			id    sql.NullInt64
			e     model.Event
			date  sql.NullString
			venue sql.NullString
			score sql.NullFloat64
			pred  sql.NullString
		)
		if err := rows.Scan(&id, &e.ID, &date, &venue, &score, &pred); err != nil {
			return nil, fmt.Errorf("%w: scan %s row: %w", ErrUpstream, q.Kind, err)
		}
		e.Seq = int(id.Int64)
		e.Key = model.SetKey{Date: date.String, Venue: venue.String}
		if score.Valid {
			e.Score = model.Float(score.Float64)
		}
		if pred.Valid {
			e.Predecessor = model.Str(pred.String)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s rows: %w", ErrUpstream, q.Kind, err)
	}
	return out, nil
}

type sqliteOpener struct{}

func (sqliteOpener) CanOpen(path string) bool {
	return hasExt(path, ".db", ".sqlite", ".sqlite3")
}

func (sqliteOpener) Open(path string) (Source, error) { return OpenSQLite(path) }
