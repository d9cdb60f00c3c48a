package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kurihiro0119/mosscheck/internal/domain"
	apperrors "github.com/kurihiro0119/mosscheck/internal/errors"
	"github.com/kurihiro0119/mosscheck/internal/storage"
)

// sqliteStorage implements the Storage interface for SQLite
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		assignment TEXT NOT NULL,
		name TEXT NOT NULL,
		language TEXT NOT NULL,
		base_files TEXT NOT NULL,
		files TEXT NOT NULL,
		report_path TEXT NOT NULL,
		report_url TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_assignment ON submissions(assignment);
	CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);

	CREATE TABLE IF NOT EXISTS checkouts (
		assignment TEXT NOT NULL,
		grp TEXT NOT NULL,
		project TEXT NOT NULL,
		path TEXT NOT NULL,
		branch TEXT NOT NULL DEFAULT '',
		cloned_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (assignment, grp, project)
	);

	CREATE INDEX IF NOT EXISTS idx_checkouts_assignment ON checkouts(assignment);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveSubmission saves a single submission
func (s *sqliteStorage) SaveSubmission(ctx context.Context, sub *domain.Submission) error {
	baseFiles, err := json.Marshal(sub.BaseFiles)
	if err != nil {
		return err
	}
	files, err := json.Marshal(sub.Files)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, assignment, name, language, base_files, files, report_path, report_url, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			report_url = excluded.report_url,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, sub.ID, sub.Assignment, sub.Name, sub.Language, string(baseFiles), string(files),
		sub.ReportPath, sub.ReportURL, string(sub.Status), sub.CreatedAt, sub.UpdatedAt)
	return err
}

// SaveSubmissions saves multiple submissions in a transaction
func (s *sqliteStorage) SaveSubmissions(ctx context.Context, subs []*domain.Submission) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO submissions (id, assignment, name, language, base_files, files, report_path, report_url, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			report_url = excluded.report_url,
			status = excluded.status,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sub := range subs {
		baseFiles, err := json.Marshal(sub.BaseFiles)
		if err != nil {
			return err
		}
		files, err := json.Marshal(sub.Files)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, sub.ID, sub.Assignment, sub.Name, sub.Language,
			string(baseFiles), string(files), sub.ReportPath, sub.ReportURL,
			string(sub.Status), sub.CreatedAt, sub.UpdatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetSubmission retrieves a submission by id
func (s *sqliteStorage) GetSubmission(ctx context.Context, id string) (*domain.Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, assignment, name, language, base_files, files, report_path, report_url, status, created_at, updated_at
		FROM submissions WHERE id = ?
	`, id)

	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("submission " + id)
	}
	return sub, err
}

// ListSubmissions retrieves all submissions for an assignment
func (s *sqliteStorage) ListSubmissions(ctx context.Context, assignment string) ([]*domain.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, assignment, name, language, base_files, files, report_path, report_url, status, created_at, updated_at
		FROM submissions WHERE assignment = ? ORDER BY created_at, name
	`, assignment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// MarkSubmissionDone marks a submission as done and records its report URL
func (s *sqliteStorage) MarkSubmissionDone(ctx context.Context, id, reportURL string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE submissions SET status = ?, report_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, string(domain.SubmissionStatusDone), reportURL, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("submission " + id)
	}
	return nil
}

// MarkSubmissionFailed marks a submission as failed
func (s *sqliteStorage) MarkSubmissionFailed(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE submissions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, string(domain.SubmissionStatusFailed), id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("submission " + id)
	}
	return nil
}

// DeleteSubmissions removes all submissions for an assignment
func (s *sqliteStorage) DeleteSubmissions(ctx context.Context, assignment string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE assignment = ?`, assignment)
	return err
}

// SaveCheckout records a local checkout
func (s *sqliteStorage) SaveCheckout(ctx context.Context, checkout *domain.Checkout) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkouts (assignment, grp, project, path, branch, cloned_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(assignment, grp, project) DO UPDATE SET
			path = excluded.path,
			branch = excluded.branch,
			cloned_at = excluded.cloned_at
	`, checkout.Assignment, checkout.Group, checkout.Project, checkout.Path, checkout.Branch, checkout.ClonedAt)
	return err
}

// ListCheckouts retrieves all checkouts for an assignment
func (s *sqliteStorage) ListCheckouts(ctx context.Context, assignment string) ([]*domain.Checkout, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT assignment, grp, project, path, branch, cloned_at
		FROM checkouts WHERE assignment = ? ORDER BY grp, project
	`, assignment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkouts []*domain.Checkout
	for rows.Next() {
		var c domain.Checkout
		if err := rows.Scan(&c.Assignment, &c.Group, &c.Project, &c.Path, &c.Branch, &c.ClonedAt); err != nil {
			return nil, err
		}
		checkouts = append(checkouts, &c)
	}
	return checkouts, rows.Err()
}

// Close closes the database connection
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*domain.Submission, error) {
	var sub domain.Submission
	var baseFiles, files, status string
	if err := row.Scan(&sub.ID, &sub.Assignment, &sub.Name, &sub.Language, &baseFiles, &files,
		&sub.ReportPath, &sub.ReportURL, &status, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(baseFiles), &sub.BaseFiles); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(files), &sub.Files); err != nil {
		return nil, err
	}
	sub.Status = domain.SubmissionStatus(status)
	return &sub, nil
}
