package storage

import (
	"context"

	"github.com/kurihiro0119/mosscheck/internal/domain"
)

// Storage is the abstract interface for the persistence layer. It
// replaces the ad-hoc state file of earlier scripts: submissions are
// persisted so an interrupted run can resume without re-uploading
// batches MOSS already accepted.
type Storage interface {
	// Submission operations
	SaveSubmission(ctx context.Context, sub *domain.Submission) error
	SaveSubmissions(ctx context.Context, subs []*domain.Submission) error
	GetSubmission(ctx context.Context, id string) (*domain.Submission, error)
	ListSubmissions(ctx context.Context, assignment string) ([]*domain.Submission, error)
	MarkSubmissionDone(ctx context.Context, id, reportURL string) error
	MarkSubmissionFailed(ctx context.Context, id string) error
	DeleteSubmissions(ctx context.Context, assignment string) error

	// Checkout operations
	SaveCheckout(ctx context.Context, checkout *domain.Checkout) error
	ListCheckouts(ctx context.Context, assignment string) ([]*domain.Checkout, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
