// Package store persists extraction runs to a local sqlite database so past
// responses can be listed, re-exported, and compared.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("extraction not found")

type Store struct {
	conn *sql.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &Store{conn: conn}
	if err := s.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS extractions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  documentUrl TEXT NOT NULL,
  requestedAt TEXT NOT NULL,
  isSuccess INTEGER NOT NULL,
  itemCount INTEGER NOT NULL,
  reconciledAmount TEXT NOT NULL,
  responseJson TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_extractions_requestedAt ON extractions(requestedAt);
`
	_, err := s.conn.Exec(schema)
	return err
}

// ExtractionRecord is one persisted extraction run.
type ExtractionRecord struct {
	ID               int64
	DocumentURL      string
	RequestedAt      time.Time
	Success          bool
	ItemCount        int
	ReconciledAmount string // decimal string, two fractional digits
	ResponseJSON     []byte
}

func (s *Store) SaveExtraction(ctx context.Context, rec ExtractionRecord) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `
INSERT INTO extractions (documentUrl, requestedAt, isSuccess, itemCount, reconciledAmount, responseJson)
VALUES (?, ?, ?, ?, ?, ?)`,
		rec.DocumentURL,
		rec.RequestedAt.UTC().Format(time.RFC3339),
		boolToInt(rec.Success),
		rec.ItemCount,
		rec.ReconciledAmount,
		string(rec.ResponseJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("insert extraction: %w", err)
	}
	return res.LastInsertId()
}

// ListExtractions returns the most recent runs, newest first, without their
// response bodies.
func (s *Store) ListExtractions(ctx context.Context, limit int) ([]ExtractionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.QueryContext(ctx, `
SELECT id, documentUrl, requestedAt, isSuccess, itemCount, reconciledAmount
FROM extractions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list extractions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []ExtractionRecord
	for rows.Next() {
		var rec ExtractionRecord
		var requestedAt string
		var success int
		if err := rows.Scan(&rec.ID, &rec.DocumentURL, &requestedAt, &success,
			&rec.ItemCount, &rec.ReconciledAmount); err != nil {
			return nil, err
		}
		rec.RequestedAt, _ = time.Parse(time.RFC3339, requestedAt)
		rec.Success = success != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) GetExtraction(ctx context.Context, id int64) (*ExtractionRecord, error) {
	var rec ExtractionRecord
	var requestedAt, responseJSON string
	var success int
	err := s.conn.QueryRowContext(ctx, `
SELECT id, documentUrl, requestedAt, isSuccess, itemCount, reconciledAmount, responseJson
FROM extractions WHERE id = ?`, id).Scan(
		&rec.ID, &rec.DocumentURL, &requestedAt, &success,
		&rec.ItemCount, &rec.ReconciledAmount, &responseJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get extraction: %w", err)
	}
	rec.RequestedAt, _ = time.Parse(time.RFC3339, requestedAt)
	rec.Success = success != 0
	rec.ResponseJSON = []byte(responseJSON)
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
