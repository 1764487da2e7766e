// Package duckdb records reduction runs in a DuckDB database so calls, masks
// and coverage can be queried across samples.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for run results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id VARCHAR PRIMARY KEY,
			input_path VARCHAR,
			input_size BIGINT,
			input_mtime TIMESTAMP,
			started_at TIMESTAMP,
			min_depth BIGINT,
			lower_af DOUBLE,
			upper_af DOUBLE,
			records BIGINT,
			ref_blocks BIGINT,
			discarded BIGINT,
			ambiguous BIGINT,
			consensus BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS calls (
			run_id VARCHAR,
			record_index BIGINT,
			chrom VARCHAR,
			pos BIGINT,
			end_pos BIGINT,
			ref VARCHAR,
			alt VARCHAR,
			variant_type VARCHAR,
			ref_reads BIGINT,
			alt_reads BIGINT,
			af DOUBLE,
			decision VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS mask_intervals (
			run_id VARCHAR,
			interval_index BIGINT,
			chrom VARCHAR,
			start_pos BIGINT,
			end_pos BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS contig_coverage (
			run_id VARCHAR,
			chrom VARCHAR,
			length BIGINT,
			masked_bases BIGINT,
			mask_intervals BIGINT,
			mean_depth DOUBLE,
			median_depth DOUBLE,
			max_depth INTEGER
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
