package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"hoardgen.ai/internal/sim/catalogs"
	"hoardgen.ai/internal/sim/tuning"
)

const schemaVersion = "1"

// SQLiteIndex is a read model of the reference tables a run was generated
// from, plus one row of metadata per run. Generated items are never stored.
type SQLiteIndex struct {
	db   *sql.DB
	once sync.Once
}

// CatalogRow is one indexed reference table.
type CatalogRow struct {
	Name      string
	Digest    string
	Rows      int
	JSON      string
	UpdatedAt string
}

// RunRow describes one generation run.
type RunRow struct {
	RunID         string
	Kind          string
	Requested     int
	Produced      int
	Seed          int64
	CatalogDigest string
	Error         string
	RecordedAt    string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			requested INTEGER NOT NULL,
			produced INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			catalog_digest TEXT NOT NULL,
			error TEXT,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_kind_time ON runs(kind, recorded_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.once.Do(func() {
		err = s.db.Close()
	})
	return err
}

// UpsertCatalogs stores each table as canonical JSON keyed by file name,
// along with the tuning actually applied.
func (s *SQLiteIndex) UpsertCatalogs(ctx context.Context, refs []catalogs.TableRef, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		rows   int
		json   []byte
	}
	rows := make([]kv, 0, len(refs)+1)
	for _, r := range refs {
		b, err := json.Marshal(r.Rows)
		if err != nil {
			return fmt.Errorf("%s: %w", r.Name, err)
		}
		rows = append(rows, kv{name: r.Name, digest: r.Digest, rows: r.Count, json: b})
	}
	{
		b, err := json.Marshal(tune)
		if err != nil {
			return fmt.Errorf("tuning: %w", err)
		}
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), rows: 1, json: b})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version',?)`, schemaVersion); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO catalogs(name,digest,row_count,json,updated_at) VALUES(?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.ExecContext(ctx, r.name, r.digest, r.rows, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) RecordRun(ctx context.Context, r RunRow) error {
	if s == nil {
		return nil
	}
	if r.RunID == "" || r.Kind == "" {
		return fmt.Errorf("run id and kind are required")
	}
	if r.RecordedAt == "" {
		r.RecordedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	var errText any
	if r.Error != "" {
		errText = r.Error
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs(run_id,kind,requested,produced,seed,catalog_digest,error,recorded_at) VALUES(?,?,?,?,?,?,?,?)`,
		r.RunID, r.Kind, r.Requested, r.Produced, r.Seed, r.CatalogDigest, errText, r.RecordedAt,
	)
	return err
}

func (s *SQLiteIndex) Catalogs(ctx context.Context) ([]CatalogRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name,digest,row_count,json,updated_at FROM catalogs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CatalogRow
	for rows.Next() {
		var c CatalogRow
		if err := rows.Scan(&c.Name, &c.Digest, &c.Rows, &c.JSON, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Runs returns the most recent runs first.
func (s *SQLiteIndex) Runs(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id,kind,requested,produced,seed,catalog_digest,COALESCE(error,''),recorded_at FROM runs ORDER BY recorded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.RunID, &r.Kind, &r.Requested, &r.Produced, &r.Seed, &r.CatalogDigest, &r.Error, &r.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
