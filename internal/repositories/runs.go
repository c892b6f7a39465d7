package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/wpx/internal/shared"
	"github.com/desertthunder/wpx/internal/tasks"
)

const defaultListLimit = 20

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID            string    `json:"id"`
	Kinds         []string  `json:"kinds"`
	Total         int       `json:"total"`
	Submitted     int       `json:"submitted"`
	Failed        int       `json:"failed"`
	AssetFailures int       `json:"asset_failures"`
	FetchErrors   string    `json:"fetch_errors,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// EntityRecord is the stored outcome of one entity.
type EntityRecord struct {
	Kind          string `json:"kind"`
	SourceID      int64  `json:"source_id"`
	State         string `json:"state"`
	DestinationID string `json:"destination_id,omitempty"`
	AssetError    string `json:"asset_error,omitempty"`
	Error         string `json:"error,omitempty"`
}

// RunDetail is a run with every entity outcome it recorded.
type RunDetail struct {
	RunSummary
	Entities []EntityRecord `json:"entities"`
}

// Failures returns the entities that were not created.
func (d *RunDetail) Failures() []EntityRecord {
	var out []EntityRecord
	for _, e := range d.Entities {
		if e.State == tasks.StateFailed.String() {
			out = append(out, e)
		}
	}
	return out
}

// RunRepository stores finished run reports in the local ledger.
type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save writes the report and every outcome in one transaction.
func (r *RunRepository) Save(report *tasks.RunReport) error {
	if report == nil || report.ID == "" {
		return fmt.Errorf("%w: run report has no id", shared.ErrInvalidInput)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	kinds := make([]string, 0, len(report.Kinds))
	var fetchErrors []string
	for _, kr := range report.Kinds {
		kinds = append(kinds, string(kr.Kind))
		if kr.FetchError != "" {
			fetchErrors = append(fetchErrors, fmt.Sprintf("%s: %s", kr.Kind, kr.FetchError))
		}
	}
	total, submitted, failed, assetFailures := report.Totals()

	query := `
		INSERT INTO runs (id, kinds, total, submitted, failed, asset_failures, fetch_errors, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.Exec(query,
		report.ID, strings.Join(kinds, ","), total, submitted, failed, assetFailures,
		strings.Join(fetchErrors, "\n"), report.StartedAt.UTC(), report.FinishedAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_entities (run_id, kind, source_id, state, destination_id, asset_error, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare entity insert: %w", err)
	}
	defer stmt.Close()

	for _, kr := range report.Kinds {
		for _, o := range kr.Outcomes {
			if _, err := stmt.Exec(
				report.ID, string(o.Kind), o.SourceID, o.State.String(), o.Reference.ID, o.AssetError, o.Error,
			); err != nil {
				return fmt.Errorf("failed to insert %s %d: %w", o.Kind, o.SourceID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (r *RunRepository) List(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, kinds, total, submitted, failed, asset_failures, fetch_errors, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Get returns a run and its entities, or [shared.ErrRunNotFound].
func (r *RunRepository) Get(id string) (*RunDetail, error) {
	query := `
		SELECT id, kinds, total, submitted, failed, asset_failures, fetch_errors, started_at, finished_at
		FROM runs
		WHERE id = ?
	`
	summary, err := scanSummary(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT kind, source_id, state, destination_id, asset_error, error
		FROM run_entities
		WHERE run_id = ?
		ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run entities: %w", err)
	}
	defer rows.Close()

	detail := &RunDetail{RunSummary: *summary}
	for rows.Next() {
		var e EntityRecord
		if err := rows.Scan(&e.Kind, &e.SourceID, &e.State, &e.DestinationID, &e.AssetError, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run entity: %w", err)
		}
		detail.Entities = append(detail.Entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run entities: %w", err)
	}
	return detail, nil
}

// Delete removes a run; its entities go with it.
func (r *RunRepository) Delete(id string) error {
	if _, err := r.db.Exec("DELETE FROM run_entities WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete run entities: %w", err)
	}
	result, err := r.db.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (*RunSummary, error) {
	var (
		s     RunSummary
		kinds string
	)
	err := row.Scan(
		&s.ID, &kinds, &s.Total, &s.Submitted, &s.Failed, &s.AssetFailures,
		&s.FetchErrors, &s.StartedAt, &s.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if kinds != "" {
		s.Kinds = strings.Split(kinds, ",")
	}
	return &s, nil
}
