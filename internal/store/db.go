// Package store keeps the load history: one row per attempt to turn a
// question into a warehouse table, plus the errors each stage raised.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sql-playground/internal/model"
)

var ErrNotFound = errors.New("load not found")

const defaultListLimit = 50

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the SQLite file at path (":memory:" for tests) and applies
// migrations.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create store dir: %w", err)
			}
		}
		dsn = path + "?_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func encodeExpected(eo *model.ExpectedOutput) (string, error) {
	if eo == nil {
		return "", nil
	}
	b, err := json.Marshal(eo)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SaveLoad stores a new load record. Empty status defaults to pending.
func (s *Store) SaveLoad(rec model.LoadRecord) error {
	if rec.ID == "" {
		return errors.New("load id is required")
	}
	if rec.Status == "" {
		rec.Status = model.LoadPending
	}
	expected, err := encodeExpected(rec.ExpectedOutput)
	if err != nil {
		return err
	}

	now := s.now()
	_, err = s.db.Exec(`INSERT INTO loads (id, table_name, full_table_name, dataset_id, status,
		row_count, column_count, rows_inserted, expected_output, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TableName, rec.FullTableName, rec.DatasetID, rec.Status,
		rec.RowCount, rec.ColumnCount, rec.RowsInserted, expected, now, now)
	return err
}

// UpdateLoad overwrites the descriptive fields of an existing record.
func (s *Store) UpdateLoad(rec model.LoadRecord) error {
	expected, err := encodeExpected(rec.ExpectedOutput)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`UPDATE loads SET table_name = ?, full_table_name = ?, dataset_id = ?,
		status = ?, row_count = ?, column_count = ?, rows_inserted = ?, expected_output = ?, updated_at = ?
		WHERE id = ?`,
		rec.TableName, rec.FullTableName, rec.DatasetID, rec.Status, rec.RowCount, rec.ColumnCount,
		rec.RowsInserted, expected, s.now(), rec.ID)
	if err != nil {
		return err
	}
	return requireAffected(res, rec.ID)
}

// UpdateLoadStatus updates load status and the inserted row count
func (s *Store) UpdateLoadStatus(loadID, status string, rowsInserted int) error {
	res, err := s.db.Exec(`UPDATE loads SET status = ?, rows_inserted = ?, updated_at = ? WHERE id = ?`,
		status, rowsInserted, s.now(), loadID)
	if err != nil {
		return err
	}
	return requireAffected(res, loadID)
}

func requireAffected(res sql.Result, loadID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, loadID)
	}
	return nil
}

// SaveLoadError records an error for a load at the given stage
func (s *Store) SaveLoadError(loadID, stage string, err error) error {
	if err == nil {
		return nil
	}
	_, e := s.db.Exec(`INSERT INTO load_errors (load_id, stage, error_message, created_at) VALUES (?, ?, ?, ?)`,
		loadID, stage, err.Error(), s.now())
	return e
}

const loadColumns = `id, table_name, full_table_name, dataset_id, status, row_count, column_count,
	rows_inserted, expected_output, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLoad(row scanner) (model.LoadRecord, error) {
	var rec model.LoadRecord
	var expected string
	err := row.Scan(&rec.ID, &rec.TableName, &rec.FullTableName, &rec.DatasetID, &rec.Status,
		&rec.RowCount, &rec.ColumnCount, &rec.RowsInserted, &expected, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return rec, err
	}
	if expected != "" {
		var eo model.ExpectedOutput
		if err := json.Unmarshal([]byte(expected), &eo); err != nil {
			return rec, fmt.Errorf("decode expected output of load %s: %w", rec.ID, err)
		}
		rec.ExpectedOutput = &eo
	}
	return rec, nil
}

// ListLoads returns the most recent loads first
func (s *Store) ListLoads(limit int) ([]model.LoadRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.Query(`SELECT `+loadColumns+` FROM loads ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loads := []model.LoadRecord{}
	for rows.Next() {
		rec, err := scanLoad(rows)
		if err != nil {
			return nil, err
		}
		loads = append(loads, rec)
	}
	return loads, rows.Err()
}

// GetLoad fetches one load record
func (s *Store) GetLoad(loadID string) (*model.LoadRecord, error) {
	rec, err := scanLoad(s.db.QueryRow(`SELECT `+loadColumns+` FROM loads WHERE id = ?`, loadID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loadID)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetLoadErrors returns the errors recorded for a load, oldest first
func (s *Store) GetLoadErrors(loadID string) ([]model.ErrorDetail, error) {
	rows, err := s.db.Query(`SELECT id, load_id, stage, error_message, created_at
		FROM load_errors WHERE load_id = ? ORDER BY id`, loadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := []model.ErrorDetail{}
	for rows.Next() {
		var d model.ErrorDetail
		if err := rows.Scan(&d.ID, &d.LoadID, &d.Stage, &d.Message, &d.Timestamp); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
