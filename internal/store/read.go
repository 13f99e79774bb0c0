package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, seq, suite, suite_id, tool_version, format_version, total, passed, failed, created_at`

// ListRuns returns all runs ordered by seq ASC.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun retrieves a single run by ID.
// Returns ErrRunNotFound if there is none.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ReadResults returns the case results of a run ordered by seq ASC.
// Returns ErrRunNotFound if the run does not exist.
func (s *Store) ReadResults(ctx context.Context, runID string) ([]CaseResult, error) {
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, name, query, request_id, expected, equivalent, passed, mismatches, uncovered, error
		FROM case_results
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query case results: %w", err)
	}
	defer rows.Close()

	results := []CaseResult{}
	for rows.Next() {
		var (
			r                     CaseResult
			mismatches, uncovered string
		)
		if err := rows.Scan(
			&r.Seq, &r.Name, &r.Query, &r.RequestID, &r.Expected,
			&r.Equivalent, &r.Passed, &mismatches, &uncovered, &r.Error,
		); err != nil {
			return nil, fmt.Errorf("scan case result: %w", err)
		}
		if r.Mismatches, err = unmarshalFields(mismatches); err != nil {
			return nil, err
		}
		if r.Uncovered, err = unmarshalFields(uncovered); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case results: %w", err)
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run     Run
		created string
	)
	if err := row.Scan(
		&run.ID, &run.Seq, &run.Suite, &run.SuiteID, &run.ToolVersion,
		&run.FormatVersion, &run.Total, &run.Passed, &run.Failed, &created,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("scan run %s: created_at: %w", run.ID, err)
	}
	run.CreatedAt = t
	return run, nil
}
