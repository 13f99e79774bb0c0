package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/pql2/internal/ir"
)

// Run is one recorded execution of a suite.
type Run struct {
	ID            string    `json:"id"`
	Seq           int64     `json:"seq"`
	Suite         string    `json:"suite"`
	SuiteID       string    `json:"suite_id"`
	ToolVersion   string    `json:"tool_version"`
	FormatVersion string    `json:"format_version"`
	Total         int       `json:"total"`
	Passed        int       `json:"passed"`
	Failed        int       `json:"failed"`
	CreatedAt     time.Time `json:"created_at"`
}

// CaseResult is the outcome of one suite case within a run.
type CaseResult struct {
	Seq        int      `json:"seq"`
	Name       string   `json:"name"`
	Query      string   `json:"query"`
	RequestID  string   `json:"request_id"`
	Expected   bool     `json:"expected"`
	Equivalent bool     `json:"equivalent"`
	Passed     bool     `json:"passed"`
	Mismatches []string `json:"mismatches,omitempty"`
	Uncovered  []string `json:"uncovered,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// ErrEmptySuite is returned when a run is written without a suite name.
var ErrEmptySuite = errors.New("run has no suite name")

// NewRunID returns a time-ordered run identifier.
func NewRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("new run id: %w", err)
	}
	return id.String(), nil
}

// WriteRun inserts a run and its results in one transaction. When run.ID is
// empty a new ID is assigned. Totals are derived from results. Result seq
// values are assigned from slice order.
//
// Returns the stored run, including its ID and seq.
func (s *Store) WriteRun(ctx context.Context, run Run, results []CaseResult) (Run, error) {
	if run.Suite == "" {
		return Run{}, ErrEmptySuite
	}
	if run.ID == "" {
		id, err := NewRunID()
		if err != nil {
			return Run{}, err
		}
		run.ID = id
	}
	if run.ToolVersion == "" {
		run.ToolVersion = ir.ToolVersion
	}
	if run.FormatVersion == "" {
		run.FormatVersion = ir.FormatVersion
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.Total, run.Passed, run.Failed = len(results), 0, 0
	for _, r := range results {
		if r.Passed {
			run.Passed++
		} else {
			run.Failed++
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, suite, suite_id, tool_version, format_version, total, passed, failed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Suite,
		run.SuiteID,
		run.ToolVersion,
		run.FormatVersion,
		run.Total,
		run.Passed,
		run.Failed,
		run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("write run: insert run: %w", err)
	}
	if run.Seq, err = res.LastInsertId(); err != nil {
		return Run{}, fmt.Errorf("write run: last insert id: %w", err)
	}

	for i, r := range results {
		mismatches, err := marshalFields(r.Mismatches)
		if err != nil {
			return Run{}, fmt.Errorf("write run: case %q: %w", r.Name, err)
		}
		uncovered, err := marshalFields(r.Uncovered)
		if err != nil {
			return Run{}, fmt.Errorf("write run: case %q: %w", r.Name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO case_results
			(run_id, seq, name, query, request_id, expected, equivalent, passed, mismatches, uncovered, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			i+1,
			r.Name,
			r.Query,
			r.RequestID,
			r.Expected,
			r.Equivalent,
			r.Passed,
			mismatches,
			uncovered,
			r.Error,
		)
		if err != nil {
			return Run{}, fmt.Errorf("write run: insert case %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: commit: %w", err)
	}
	return run, nil
}
