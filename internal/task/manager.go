package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kurihiro0119/mosscheck/internal/domain"
	"github.com/kurihiro0119/mosscheck/internal/moss"
	"github.com/kurihiro0119/mosscheck/internal/storage"
)

// ReportFetcher downloads MOSS report pages
type ReportFetcher interface {
	SaveReport(ctx context.Context, reportURL, path string) error
	DownloadReport(ctx context.Context, reportURL, dir string, connections int) error
}

// Manager runs submissions sequentially, persisting their state so an
// interrupted run can resume without re-uploading finished batches.
type Manager struct {
	storage     storage.Storage
	submitter   Submitter
	fetcher     ReportFetcher
	cooldown    time.Duration
	download    bool
	connections int
}

// NewManager creates a new submission manager
func NewManager(store storage.Storage, submitter Submitter, fetcher ReportFetcher, cooldown time.Duration, download bool) *Manager {
	return &Manager{
		storage:     store,
		submitter:   submitter,
		fetcher:     fetcher,
		cooldown:    cooldown,
		download:    download,
		connections: 8,
	}
}

// Prepare reconciles the built submissions with stored state. On a
// fresh run the stored submissions for the assignment are replaced.
// With resume, submissions already marked done keep their stored
// record and are skipped by Run.
func (m *Manager) Prepare(ctx context.Context, assignment string, subs []*domain.Submission, resume bool) ([]*domain.Submission, error) {
	if !resume {
		if err := m.storage.DeleteSubmissions(ctx, assignment); err != nil {
			return nil, err
		}
		if err := m.storage.SaveSubmissions(ctx, subs); err != nil {
			return nil, err
		}
		return subs, nil
	}

	stored, err := m.storage.ListSubmissions(ctx, assignment)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*domain.Submission, len(stored))
	for _, s := range stored {
		byName[s.Name] = s
	}

	merged := make([]*domain.Submission, 0, len(subs))
	for _, sub := range subs {
		if prev, ok := byName[sub.Name]; ok {
			sub.ID = prev.ID
			sub.Status = prev.Status
			sub.ReportURL = prev.ReportURL
			sub.CreatedAt = prev.CreatedAt
		}
		merged = append(merged, sub)
	}
	if err := m.storage.SaveSubmissions(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Run submits every pending submission in order, waiting cooldown
// between submissions. A failed submission is recorded and does not
// stop the remaining ones.
func (m *Manager) Run(ctx context.Context, subs []*domain.Submission, onUpload moss.UploadCallback) error {
	for _, sub := range subs {
		if sub.Status == domain.SubmissionStatusDone {
			fmt.Printf("Skipping %s (already done)\n", sub.Name)
			continue
		}

		fmt.Printf("Running submission %s:\n", sub.Name)
		if err := m.runOne(ctx, sub, onUpload); err != nil {
			// keep going; the report directory of the failed
			// submission must not survive half-written
			m.clear(sub)
			if markErr := m.storage.MarkSubmissionFailed(ctx, sub.ID); markErr != nil {
				fmt.Printf("Warning: failed to record failure for %s: %v\n", sub.Name, markErr)
			}
			fmt.Printf("Submission %s failed: %v\n", sub.Name, err)
		} else {
			fmt.Printf("Submission %s done\n", sub.Name)
		}

		if err := m.wait(ctx); err != nil {
			return err
		}
	}
	fmt.Println("All submissions are done.")
	return nil
}

func (m *Manager) runOne(ctx context.Context, sub *domain.Submission, onUpload moss.UploadCallback) error {
	m.clear(sub)

	url, err := m.submitter.Submit(ctx, sub, onUpload)
	if err != nil {
		return err
	}
	fmt.Printf("Report URL: %s\n", url)

	if err := m.fetcher.SaveReport(ctx, url, filepath.Join(sub.ReportPath, "report.html")); err != nil {
		return err
	}
	if m.download {
		fmt.Println("Downloading the report pages...")
		if err := m.fetcher.DownloadReport(ctx, url, filepath.Join(sub.ReportPath, "report"), m.connections); err != nil {
			return err
		}
	}

	sub.Status = domain.SubmissionStatusDone
	sub.ReportURL = url
	return m.storage.MarkSubmissionDone(ctx, sub.ID, url)
}

// clear removes any previous report output for the submission
func (m *Manager) clear(sub *domain.Submission) {
	if sub.ReportPath != "" {
		_ = os.RemoveAll(sub.ReportPath)
	}
}

// wait sleeps for the configured cooldown between submissions so the
// MOSS service is not hammered. Honors context cancellation.
func (m *Manager) wait(ctx context.Context) error {
	if m.cooldown <= 0 {
		return nil
	}
	fmt.Printf("Waiting %s before the next submission...\n", m.cooldown)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.cooldown):
		return nil
	}
}
