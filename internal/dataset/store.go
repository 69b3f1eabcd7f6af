package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/lassa-tracker/constants"
	"github.com/joseph-ayodele/lassa-tracker/internal/llm"
)

// Store persists accepted records and per-page outcomes in SQLite so a
// re-run can skip finished pages and an auditor can query the gaps.
// Counts are stored as text to keep the "unknown" sentinel intact.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS records (
	year       INTEGER NOT NULL,
	week       INTEGER NOT NULL,
	state      TEXT    NOT NULL,
	suspected  TEXT    NOT NULL,
	confirmed  TEXT    NOT NULL,
	probable   TEXT    NOT NULL,
	hcw        TEXT    NOT NULL,
	deaths     TEXT    NOT NULL,
	updated_at TEXT    NOT NULL,
	PRIMARY KEY (year, week, state)
);
CREATE TABLE IF NOT EXISTS pages (
	doc_id     TEXT    NOT NULL,
	year       INTEGER NOT NULL,
	page       INTEGER NOT NULL,
	status     TEXT    NOT NULL,
	detail     TEXT,
	updated_at TEXT    NOT NULL,
	PRIMARY KEY (doc_id, year, page)
);`

// OpenStore opens (and if needed initializes) the dataset database.
// Pass ":memory:" for an ephemeral store.
func OpenStore(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open dataset db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init dataset schema: %w", err)
	}
	logger.Info("dataset.store.open", "path", path)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertRecords writes accepted records, last write winning per
// (year, week, state), in one transaction per batch.
func (s *Store) UpsertRecords(ctx context.Context, recs []llm.CandidateRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (year, week, state, suspected, confirmed, probable, hcw, deaths, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (year, week, state) DO UPDATE SET
			suspected = excluded.suspected,
			confirmed = excluded.confirmed,
			probable  = excluded.probable,
			hcw       = excluded.hcw,
			deaths    = excluded.deaths,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx, r.Year, r.Week, r.State,
			r.Suspected.String(), r.Confirmed.String(), r.Probable.String(),
			r.HCW.String(), r.Deaths.String(), now); err != nil {
			return fmt.Errorf("upsert %d W%d %s: %w", r.Year, r.Week, r.State, err)
		}
	}
	return tx.Commit()
}

// MarkPage records the outcome of one page pipeline.
func (s *Store) MarkPage(ctx context.Context, docID string, year, page int, status constants.PageStatus, detail string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (doc_id, year, page, status, detail, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (doc_id, year, page) DO UPDATE SET
			status = excluded.status,
			detail = excluded.detail,
			updated_at = excluded.updated_at`,
		docID, year, page, string(status), detail, now)
	if err != nil {
		return fmt.Errorf("mark page %s/%d: %w", docID, page, err)
	}
	return nil
}

// PageStatus returns the recorded status for a page, or "" if none.
func (s *Store) PageStatus(ctx context.Context, docID string, year, page int) (constants.PageStatus, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM pages WHERE doc_id = ? AND year = ? AND page = ?`,
		docID, year, page).Scan(&status)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("page status %s/%d: %w", docID, page, err)
	}
	return constants.PageStatus(status), nil
}

// LoadRecords reads the persisted dataset back, ordered like
// Sink.Snapshot, for export without re-running extraction.
func (s *Store) LoadRecords(ctx context.Context) ([]llm.CandidateRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, week, state, suspected, confirmed, probable, hcw, deaths
		FROM records
		ORDER BY year, week, state = 'total', state`)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []llm.CandidateRecord
	for rows.Next() {
		var rec llm.CandidateRecord
		var sus, con, pro, hcw, dea string
		if err := rows.Scan(&rec.Year, &rec.Week, &rec.State, &sus, &con, &pro, &hcw, &dea); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Suspected = llm.ParseCount(sus)
		rec.Confirmed = llm.ParseCount(con)
		rec.Probable = llm.ParseCount(pro)
		rec.HCW = llm.ParseCount(hcw)
		rec.Deaths = llm.ParseCount(dea)
		out = append(out, rec)
	}
	return out, rows.Err()
}
