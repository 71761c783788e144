package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run ID does not resolve.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded execution.
type Run struct {
	ID string `json:"id"`

	// Seq is assigned by RecordRun and orders runs.
	Seq int64 `json:"seq"`

	// Config names the policy source, e.g. a file path or "builtin:fix42".
	Config string `json:"config"`

	Selector    string `json:"selector,omitempty"`
	Fingerprint string `json:"fingerprint"`
	CaseCount   int    `json:"case_count"`
}

// RunSummary is a run with its result counts.
type RunSummary struct {
	Run
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
}

// CaseRecord is one case of a run's enumeration.
type CaseRecord struct {
	// Seq is the case's 1-based position in the materialized list.
	Seq         int64  `json:"seq"`
	Corpus      string `json:"corpus"`
	Version     string `json:"version"`
	Identifier  string `json:"identifier"`
	Environment string `json:"environment"`
}

// Key renders the case as "corpus/version/identifier".
func (c CaseRecord) Key() string {
	return c.Corpus + "/" + c.Version + "/" + c.Identifier
}

// ResultRecord is the outcome of one run case.
type ResultRecord struct {
	RunID  string `json:"run_id"`
	Seq    int64  `json:"seq"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Output string `json:"output,omitempty"`
}

// RunCase is a case joined with its result. Status is empty when no
// result was recorded.
type RunCase struct {
	CaseRecord
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NewRunID generates a time-ordered run ID.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// RecordRun inserts a run and its enumeration in one transaction.
//
// If run.ID is empty a new ID is generated. The run's Seq and CaseCount
// are assigned here; the returned Run carries them.
func (s *Store) RecordRun(ctx context.Context, run Run, cases []CaseRecord) (Run, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	run.CaseCount = len(cases)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("record run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, config, selector, fingerprint, case_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Seq, run.Config, run.Selector, run.Fingerprint, run.CaseCount)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_cases (run_id, seq, corpus, version, identifier, environment)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Run{}, fmt.Errorf("record run: prepare cases: %w", err)
	}
	defer stmt.Close()

	for _, c := range cases {
		if _, err := stmt.ExecContext(ctx, run.ID, c.Seq, c.Corpus, c.Version, c.Identifier, c.Environment); err != nil {
			return Run{}, fmt.Errorf("record run: case %d %s: %w", c.Seq, c.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

// RecordResult stores the outcome of one case.
// Uses ON CONFLICT DO NOTHING for idempotency - the first result for a
// case wins. The case must already exist (foreign key constraint).
func (s *Store) RecordResult(ctx context.Context, res ResultRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO case_results (run_id, seq, status, error, output)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`, res.RunID, res.Seq, res.Status, res.Error, res.Output)
	if err != nil {
		return fmt.Errorf("record result %s#%d: %w", res.RunID, res.Seq, err)
	}
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, config, selector, fingerprint, case_count
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Seq, &run.Config, &run.Selector, &run.Fingerprint, &run.CaseCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ResolveRun accepts a full run ID, a unique ID prefix, or "latest".
func (s *Store) ResolveRun(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrRunNotFound)
	}

	if ref == "latest" {
		var id string
		err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY seq DESC LIMIT 1`).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: no runs recorded", ErrRunNotFound)
		}
		if err != nil {
			return "", fmt.Errorf("resolve run %q: %w", ref, err)
		}
		return id, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM runs
		WHERE substr(id, 1, length(?)) = ?
		ORDER BY seq ASC
		LIMIT 2
	`, ref, ref)
	if err != nil {
		return "", fmt.Errorf("resolve run %q: %w", ref, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("resolve run %q: %w", ref, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve run %q: %w", ref, err)
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, ref)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("run reference %q is ambiguous", ref)
	}
}

// ListRuns returns all runs with result counts, oldest first.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.seq, r.config, r.selector, r.fingerprint, r.case_count,
			COALESCE(SUM(CASE WHEN cr.status = 'pass' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN cr.status = 'fail' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN cr.status = 'error' THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN case_results cr ON cr.run_id = r.id
		GROUP BY r.id
		ORDER BY r.seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Seq, &r.Config, &r.Selector, &r.Fingerprint, &r.CaseCount,
			&r.Passed, &r.Failed, &r.Errored); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// RunCases returns a run's cases in materialized order with their
// results.
func (s *Store) RunCases(ctx context.Context, runID string) ([]RunCase, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rc.seq, rc.corpus, rc.version, rc.identifier, rc.environment,
			COALESCE(cr.status, ''), COALESCE(cr.error, '')
		FROM run_cases rc
		LEFT JOIN case_results cr ON cr.run_id = rc.run_id AND cr.seq = rc.seq
		WHERE rc.run_id = ?
		ORDER BY rc.seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run cases: %w", err)
	}
	defer rows.Close()

	cases := []RunCase{}
	for rows.Next() {
		var c RunCase
		if err := rows.Scan(&c.Seq, &c.Corpus, &c.Version, &c.Identifier, &c.Environment, &c.Status, &c.Error); err != nil {
			return nil, fmt.Errorf("scan run case: %w", err)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run cases: %w", err)
	}
	return cases, nil
}
