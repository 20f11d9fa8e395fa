// Package store persists assessment runs and delivery bookkeeping in SQLite.
//
// The store owns the two concurrency guarantees the scoring pipeline leans
// on: answer autosave is last-write-wins while a run is in progress, and the
// in_progress to completed transition is a compare-and-swap so concurrent
// finalizations cannot both trigger scoring and double-send reports.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brainworx/scorecard/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// ErrAlreadyCompleted is returned by FinalizeRun when the run was finalized
// before this call, by this process or another.
var ErrAlreadyCompleted = errors.New("run already completed")

// Store manages the SQLite database holding assessment runs.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) the database at dbPath and initializes the
// schema. ":memory:" gives an ephemeral store for tests.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise open its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	// busy_timeout first so the remaining pragmas wait on locks instead of
	// failing under concurrent initialization.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new run. Status defaults to in_progress and SubjectID
// to the run's own id when unset.
func (s *Store) CreateRun(ctx context.Context, run *models.AssessmentRun) error {
	if run.Status == "" {
		run.Status = models.RunInProgress
	}
	if run.Rater == "" {
		run.Rater = models.RaterSelf
	}
	if run.SubjectID == "" {
		run.SubjectID = run.ID
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	answers, err := json.Marshal(run.Answers)
	if err != nil {
		return storeErr(run.ID, "encode answers", err)
	}
	var completedAt any
	if !run.CompletedAt.IsZero() {
		completedAt = run.CompletedAt
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, variant, respondent_name, respondent_email,
			rater, subject_id, coach_email, status, answers, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Variant, run.Respondent.Name, run.Respondent.Email,
		string(run.Rater), run.SubjectID, run.CoachEmail, string(run.Status),
		string(answers), run.StartedAt, completedAt)
	if err != nil {
		return storeErr(run.ID, "create run", err)
	}
	return nil
}

// SaveAnswers overwrites the run's answer set while it is in progress.
// Concurrent autosaves race benignly: the last write wins. Saving against a
// completed run is rejected, completed runs are immutable.
func (s *Store) SaveAnswers(ctx context.Context, runID string, answers []models.Answer) error {
	encoded, err := json.Marshal(answers)
	if err != nil {
		return storeErr(runID, "encode answers", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET answers = ? WHERE id = ? AND status = ?`,
		string(encoded), runID, string(models.RunInProgress))
	if err != nil {
		return storeErr(runID, "save answers", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeErr(runID, "save answers", err)
	}
	if affected == 0 {
		return storeErr(runID, "save answers",
			fmt.Errorf("run missing or not in progress: %w", models.ErrRunNotFound))
	}
	return nil
}

// FinalizeRun transitions the run from in_progress to completed. The update
// is conditional on the current status, so of two concurrent finalizations
// exactly one succeeds; the loser gets ErrAlreadyCompleted and must not
// dispatch reports.
func (s *Store) FinalizeRun(ctx context.Context, runID string, completedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ? WHERE id = ? AND status = ?`,
		string(models.RunCompleted), completedAt.UTC(), runID, string(models.RunInProgress))
	if err != nil {
		return storeErr(runID, "finalize run", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeErr(runID, "finalize run", err)
	}
	if affected == 0 {
		run, err := s.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		if run.Completed() {
			return fmt.Errorf("finalize run %s: %w", runID, ErrAlreadyCompleted)
		}
		return storeErr(runID, "finalize run", fmt.Errorf("unexpected status %q", run.Status))
	}
	return nil
}

// GetRun loads one run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*models.AssessmentRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, variant, respondent_name, respondent_email, rater,
			subject_id, coach_email, status, answers, started_at, completed_at
		FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", runID, models.ErrRunNotFound)
		}
		return nil, storeErr(runID, "load run", err)
	}
	return run, nil
}

// RunsForSubject returns every run sharing a subject id, ordered by rater.
// Dual-rater variants use this to pair the two raters' runs.
func (s *Store) RunsForSubject(ctx context.Context, subjectID string) ([]*models.AssessmentRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, variant, respondent_name, respondent_email, rater,
			subject_id, coach_email, status, answers, started_at, completed_at
		FROM runs WHERE subject_id = ? ORDER BY rater, id`, subjectID)
	if err != nil {
		return nil, storeErr(subjectID, "load subject runs", err)
	}
	defer rows.Close()

	var runs []*models.AssessmentRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, storeErr(subjectID, "scan subject run", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(subjectID, "load subject runs", err)
	}
	return runs, nil
}

// ListRuns returns runs filtered by status ("" = all), newest first.
func (s *Store) ListRuns(ctx context.Context, status models.RunStatus) ([]*models.AssessmentRun, error) {
	query := `
		SELECT id, variant, respondent_name, respondent_email, rater,
			subject_id, coach_email, status, answers, started_at, completed_at
		FROM runs`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY started_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("", "list runs", err)
	}
	defer rows.Close()

	var runs []*models.AssessmentRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, storeErr("", "scan run", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("", "list runs", err)
	}
	return runs, nil
}

// MarkDelivered journals the settled delivery results and stamps the run's
// delivered marker. Called only after every recipient's attempt has settled;
// per the at-least-once contract it is advisory, not a lock.
func (s *Store) MarkDelivered(ctx context.Context, runID string, results []models.DeliveryResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(runID, "mark delivered", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO deliveries (run_id, recipient_role, address, status, error, attempted_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, string(r.Recipient.Role), r.Recipient.Address,
			string(r.Status), errText, now)
		if err != nil {
			return storeErr(runID, "journal delivery", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET delivered_at = ? WHERE id = ?`, now, runID); err != nil {
		return storeErr(runID, "mark delivered", err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr(runID, "mark delivered", err)
	}
	return nil
}

// Delivered reports whether the run carries a delivered marker.
func (s *Store) Delivered(ctx context.Context, runID string) (bool, error) {
	var deliveredAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT delivered_at FROM runs WHERE id = ?`, runID).Scan(&deliveredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("run %s: %w", runID, models.ErrRunNotFound)
		}
		return false, storeErr(runID, "load delivered marker", err)
	}
	return deliveredAt.Valid, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*models.AssessmentRun, error) {
	var run models.AssessmentRun
	var rater, status, answers string
	var completedAt sql.NullTime
	err := row.Scan(&run.ID, &run.Variant, &run.Respondent.Name, &run.Respondent.Email,
		&rater, &run.SubjectID, &run.CoachEmail, &status, &answers,
		&run.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	run.Rater = models.RaterRole(rater)
	run.Status = models.RunStatus(status)
	if completedAt.Valid {
		run.CompletedAt = completedAt.Time
	}
	if err := json.Unmarshal([]byte(answers), &run.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return &run, nil
}

func storeErr(runID, op string, err error) error {
	return &models.StoreError{RunID: runID, Op: op, Err: err}
}
