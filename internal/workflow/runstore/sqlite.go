package runstore

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lumapay/provision/internal/workflow"
)

// SQLiteStore is a run store backed by SQLite.
//
// It expects an *sql.DB opened with a SQLite driver; the caller is
// responsible for importing one, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

var _ workflow.RunStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database
// and returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS workflow_runs (
			id TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			workflow_name TEXT NOT NULL,
			status TEXT NOT NULL,
			current_step INTEGER NOT NULL,
			input BLOB,
			output BLOB,
			step_results BLOB,
			error TEXT,
			started_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
	)
	if err != nil {
		return err
	}

	// Uniqueness applies to open runs only: once a run is terminal a new
	// run may reuse its workflow id.
	_, err = s.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS workflow_runs_open_workflow_id
		ON workflow_runs (workflow_id)
		WHERE status IN ('QUEUED', 'RUNNING');`,
	)
	return err
}

func (s *SQLiteStore) SaveRun(run *workflow.Run) error {
	input, output, stepResults, errStr, err := encodeRun(run)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO workflow_runs
			(id, workflow_id, workflow_name, status, current_step, input, output, step_results, error, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.WorkflowID,
		run.Name,
		string(run.Status),
		run.CurrentStep,
		input,
		output,
		stepResults,
		errStr,
		run.StartedAt,
		run.UpdatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return workflow.ErrDuplicateRun
	}
	return err
}

func (s *SQLiteStore) UpdateRun(run *workflow.Run) error {
	input, output, stepResults, errStr, err := encodeRun(run)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`
		UPDATE workflow_runs
		SET status = ?, current_step = ?, input = ?, output = ?, step_results = ?, error = ?, updated_at = ?
		WHERE id = ?`,
		string(run.Status),
		run.CurrentStep,
		input,
		output,
		stepResults,
		errStr,
		time.Now().UTC(),
		run.ID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return workflow.ErrRunNotFound
	}
	return nil
}

func (s *SQLiteStore) GetRun(id string) (*workflow.Run, error) {
	row := s.db.QueryRow(selectRun+` WHERE id = ?`, id)
	return scanRun(row)
}

func (s *SQLiteStore) GetRunByWorkflowID(workflowID string) (*workflow.Run, error) {
	row := s.db.QueryRow(selectRun+` WHERE workflow_id = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`, workflowID)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(filter workflow.RunFilter) ([]*workflow.Run, error) {
	query := selectRun
	var args []any
	var clauses []string

	if filter.WorkflowName != "" {
		clauses = append(clauses, "workflow_name = ?")
		args = append(args, filter.WorkflowName)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*workflow.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

const selectRun = `
	SELECT id, workflow_id, workflow_name, status, current_step, input, output, step_results, error, started_at, updated_at
	FROM workflow_runs`

func encodeRun(run *workflow.Run) (input, output, stepResults []byte, errStr string, err error) {
	if input, err = EncodeValue(run.Input); err != nil {
		return
	}
	if output, err = EncodeValue(run.Output); err != nil {
		return
	}
	if stepResults, err = EncodeValue(run.StepResults); err != nil {
		return
	}
	if run.Err != nil {
		errStr = run.Err.Error()
	}
	return
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*workflow.Run, error) {
	var run workflow.Run
	var statusStr string
	var input, output, stepResults []byte
	var errStr sql.NullString

	err := row.Scan(
		&run.ID,
		&run.WorkflowID,
		&run.Name,
		&statusStr,
		&run.CurrentStep,
		&input,
		&output,
		&stepResults,
		&errStr,
		&run.StartedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, workflow.ErrRunNotFound
		}
		return nil, err
	}

	run.Status = workflow.Status(statusStr)

	if run.Input, err = DecodeValue[any](input); err != nil {
		return nil, err
	}
	if run.Output, err = DecodeValue[any](output); err != nil {
		return nil, err
	}
	if run.StepResults, err = DecodeValue[map[int]any](stepResults); err != nil {
		return nil, err
	}
	if errStr.Valid && errStr.String != "" {
		run.Err = errors.New(errStr.String)
	}
	return &run, nil
}
