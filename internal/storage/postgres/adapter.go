package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/lib/pq"

	"github.com/kurihiro0119/mosscheck/internal/domain"
	apperrors "github.com/kurihiro0119/mosscheck/internal/errors"
	"github.com/kurihiro0119/mosscheck/internal/storage"
)

// postgresStorage implements the Storage interface for PostgreSQL.
// Used when several course staff share one submission database.
type postgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage creates a new PostgreSQL storage instance
func NewPostgresStorage(connStr string) (storage.Storage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &postgresStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *postgresStorage) Migrate(ctx context.Context) error {
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
func (s *postgresStorage) SaveSubmission(ctx context.Context, sub *domain.Submission) error {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			report_url = EXCLUDED.report_url,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, sub.ID, sub.Assignment, sub.Name, sub.Language, string(baseFiles), string(files),
		sub.ReportPath, sub.ReportURL, string(sub.Status), sub.CreatedAt, sub.UpdatedAt)
	return err
}

// SaveSubmissions saves multiple submissions in a transaction
func (s *postgresStorage) SaveSubmissions(ctx context.Context, subs []*domain.Submission) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO submissions (id, assignment, name, language, base_files, files, report_path, report_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			report_url = EXCLUDED.report_url,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
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
func (s *postgresStorage) GetSubmission(ctx context.Context, id string) (*domain.Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, assignment, name, language, base_files, files, report_path, report_url, status, created_at, updated_at
		FROM submissions WHERE id = $1
	`, id)

	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("submission " + id)
	}
	return sub, err
}

// ListSubmissions retrieves all submissions for an assignment
func (s *postgresStorage) ListSubmissions(ctx context.Context, assignment string) ([]*domain.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, assignment, name, language, base_files, files, report_path, report_url, status, created_at, updated_at
		FROM submissions WHERE assignment = $1 ORDER BY created_at, name
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
func (s *postgresStorage) MarkSubmissionDone(ctx context.Context, id, reportURL string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE submissions SET status = $1, report_url = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3
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
func (s *postgresStorage) MarkSubmissionFailed(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE submissions SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2
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
func (s *postgresStorage) DeleteSubmissions(ctx context.Context, assignment string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE assignment = $1`, assignment)
	return err
}

// SaveCheckout records a local checkout
func (s *postgresStorage) SaveCheckout(ctx context.Context, checkout *domain.Checkout) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkouts (assignment, grp, project, path, branch, cloned_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (assignment, grp, project) DO UPDATE SET
			path = EXCLUDED.path,
			branch = EXCLUDED.branch,
			cloned_at = EXCLUDED.cloned_at
	`, checkout.Assignment, checkout.Group, checkout.Project, checkout.Path, checkout.Branch, checkout.ClonedAt)
	return err
}

// ListCheckouts retrieves all checkouts for an assignment
func (s *postgresStorage) ListCheckouts(ctx context.Context, assignment string) ([]*domain.Checkout, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT assignment, grp, project, path, branch, cloned_at
		FROM checkouts WHERE assignment = $1 ORDER BY grp, project
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
func (s *postgresStorage) Close() error {
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
