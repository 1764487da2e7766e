package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/gvcf-reduce/internal/classify"
	"github.com/inodb/gvcf-reduce/internal/mask"
	"github.com/inodb/gvcf-reduce/internal/pipeline"
)

// Run identifies one reduction of one input file.
type Run struct {
	ID        uuid.UUID
	Input     FileFingerprint
	StartedAt time.Time
	Config    pipeline.Config
}

// NewRun creates a run with a fresh identifier.
func NewRun(input FileFingerprint, cfg pipeline.Config) Run {
	return Run{
		ID:        uuid.New(),
		Input:     input,
		StartedAt: time.Now().UTC(),
		Config:    cfg,
	}
}

// RunRecord is a stored run with its summary counts.
type RunRecord struct {
	ID        uuid.UUID
	InputPath string
	StartedAt time.Time
	MinDepth  int64
	Lower     float64
	Upper     float64
	Records   int64
	RefBlocks int64
	Discarded int64
	Ambiguous int64
	Consensus int64
}

// WriteRun stores a completed run: its summary, every classified call, the
// coverage mask and per-contig coverage.
func (s *Store) WriteRun(run Run, res *pipeline.Result) error {
	ctx := context.Background()
	sum := res.Summary

	if _, err := s.db.ExecContext(ctx, `INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Input.Path, run.Input.Size, run.Input.ModTime, run.StartedAt,
		run.Config.MinDepth, run.Config.Thresholds.Lower, run.Config.Thresholds.Upper,
		sum.Records, sum.RefBlocks, sum.Discarded, sum.Ambiguous, sum.Consensus,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	id := run.ID.String()
	if err := s.appendRows(ctx, "calls", len(res.Calls), func(i int) []driver.Value {
		c := res.Calls[i]
		return []driver.Value{
			id, int64(c.Index), c.Chrom, c.Pos, c.End, c.Ref, c.Alt,
			c.Type.String(), c.RefReads, c.AltReads, c.AF, c.Decision.String(),
		}
	}); err != nil {
		return fmt.Errorf("append calls: %w", err)
	}

	if err := s.appendRows(ctx, "mask_intervals", len(res.Mask), func(i int) []driver.Value {
		iv := res.Mask[i]
		return []driver.Value{id, int64(i), iv.Contig, iv.Start, iv.End}
	}); err != nil {
		return fmt.Errorf("append mask intervals: %w", err)
	}

	if err := s.appendRows(ctx, "contig_coverage", len(sum.Contigs), func(i int) []driver.Value {
		c := sum.Contigs[i]
		return []driver.Value{
			id, c.Contig, c.Length, c.MaskedBases, int64(c.Intervals),
			c.MeanDepth, c.MedianDepth, c.MaxDepth,
		}
	}); err != nil {
		return fmt.Errorf("append contig coverage: %w", err)
	}

	return nil
}

// appendRows bulk-inserts n rows into table using the Appender API.
func (s *Store) appendRows(ctx context.Context, table string, n int, row func(i int) []driver.Value) error {
	if n == 0 {
		return nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i := range n {
		if err := appender.AppendRow(row(i)...); err != nil {
			return err
		}
	}

	return appender.Flush()
}

// Runs returns all stored runs, oldest first.
func (s *Store) Runs() ([]RunRecord, error) {
	rows, err := s.db.Query(`SELECT
		run_id, input_path, started_at, min_depth, lower_af, upper_af,
		records, ref_blocks, discarded, ambiguous, consensus
		FROM runs ORDER BY started_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var id string
		if err := rows.Scan(
			&id, &r.InputPath, &r.StartedAt, &r.MinDepth, &r.Lower, &r.Upper,
			&r.Records, &r.RefBlocks, &r.Discarded, &r.Ambiguous, &r.Consensus,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", id, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Calls returns the calls of a run with the given decision, in record order.
func (s *Store) Calls(runID uuid.UUID, decision classify.Decision) ([]pipeline.Call, error) {
	rows, err := s.db.Query(`SELECT
		record_index, chrom, pos, end_pos, ref, alt, variant_type,
		ref_reads, alt_reads, af
		FROM calls
		WHERE run_id=? AND decision=?
		ORDER BY record_index`, runID.String(), decision.String())
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	var calls []pipeline.Call
	for rows.Next() {
		c := pipeline.Call{Decision: decision}
		var index int64
		var typ string
		if err := rows.Scan(
			&index, &c.Chrom, &c.Pos, &c.End, &c.Ref, &c.Alt, &typ,
			&c.RefReads, &c.AltReads, &c.AF,
		); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		c.Index = int(index)
		if c.Type, err = classify.ParseVariantType(typ); err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, nil
}

// Mask returns the coverage mask of a run in its original order.
func (s *Store) Mask(runID uuid.UUID) ([]mask.Interval, error) {
	rows, err := s.db.Query(`SELECT chrom, start_pos, end_pos
		FROM mask_intervals WHERE run_id=?
		ORDER BY interval_index`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("query mask: %w", err)
	}
	defer rows.Close()

	var intervals []mask.Interval
	for rows.Next() {
		var iv mask.Interval
		if err := rows.Scan(&iv.Contig, &iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("scan mask interval: %w", err)
		}
		intervals = append(intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mask: %w", err)
	}
	return intervals, nil
}

// MaskedBases returns masked base counts per contig for a run.
func (s *Store) MaskedBases(runID uuid.UUID) (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT chrom, masked_bases
		FROM contig_coverage WHERE run_id=?`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("query coverage: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var chrom string
		var n int64
		if err := rows.Scan(&chrom, &n); err != nil {
			return nil, fmt.Errorf("scan coverage: %w", err)
		}
		out[chrom] = n
	}
	return out, rows.Err()
}

// CallCounts returns the number of calls per decision for a run.
func (s *Store) CallCounts(runID uuid.UUID) (map[classify.Decision]int64, error) {
	rows, err := s.db.Query(`SELECT decision, count(*)
		FROM calls WHERE run_id=? GROUP BY decision`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("query call counts: %w", err)
	}
	defer rows.Close()

	out := make(map[classify.Decision]int64)
	for rows.Next() {
		var name string
		var n int64
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan call count: %w", err)
		}
		d, err := classify.ParseDecision(name)
		if err != nil {
			return nil, err
		}
		out[d] = n
	}
	return out, rows.Err()
}
