package task

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kurihiro0119/mosscheck/internal/config"
	"github.com/kurihiro0119/mosscheck/internal/domain"
	apperrors "github.com/kurihiro0119/mosscheck/internal/errors"
	"github.com/kurihiro0119/mosscheck/internal/files"
)

// Build assembles the submission list for an assignment from the
// checkouts on disk. Every submission carries all current-quarter
// files for one file pattern; when previous-quarter groups are
// configured their files are split into parts so each submission
// stays within the MOSS file limit.
func Build(cfg *config.Assignment) ([]*domain.Submission, error) {
	basePath := filepath.Join(cfg.Output, "base")

	var baseFiles []string
	for _, pattern := range cfg.BaseFiles {
		matches, err := files.Collect(basePath, pattern, "")
		if err != nil {
			return nil, apperrors.NewSubmissionError("failed to collect base files", err)
		}
		baseFiles = append(baseFiles, files.FilterNonEmpty(matches)...)
	}

	var subs []*domain.Submission
	totalCurrent := 0
	now := time.Now()

	for _, pattern := range cfg.AssignmentFiles {
		var current []string
		for _, group := range cfg.ThisQuarterGroups {
			groupPath := filepath.Join(cfg.Files, group)
			matches, err := files.Collect(groupPath, pattern, cfg.AssignmentPath)
			if err != nil {
				return nil, apperrors.NewSubmissionError("failed to collect files for "+group, err)
			}
			current = append(current, files.FilterValid(matches, cfg.Lang)...)
		}
		totalCurrent += len(current)
		if len(current) == 0 {
			continue
		}

		if len(cfg.PreviousQuarterGroups) == 0 {
			name := submissionName(pattern, "", 0)
			subs = append(subs, newSubmission(cfg, name, baseFiles, current, now))
			continue
		}

		for _, group := range cfg.PreviousQuarterGroups {
			groupPath := filepath.Join(cfg.Files, group)
			matches, err := files.Collect(groupPath, pattern, cfg.AssignmentPath)
			if err != nil {
				return nil, apperrors.NewSubmissionError("failed to collect files for "+group, err)
			}
			prev := files.FilterValid(matches, cfg.Lang)

			batches := files.Batch(current, prev, files.FileLimit)
			if batches == nil {
				return nil, apperrors.NewSubmissionError(
					fmt.Sprintf("%d current files for pattern %s exceed the %d file limit", len(current), pattern, files.FileLimit), nil)
			}
			for i, batch := range batches {
				name := submissionName(pattern, group, i)
				sub := newSubmission(cfg, name, baseFiles, append(append([]string{}, current...), batch...), now)
				subs = append(subs, sub)
			}
		}
	}

	if totalCurrent == 0 {
		return nil, apperrors.NewSubmissionError("no source files found under "+cfg.Files+"; run clone mode first", nil)
	}
	return subs, nil
}

func newSubmission(cfg *config.Assignment, name string, baseFiles, fileList []string, now time.Time) *domain.Submission {
	return &domain.Submission{
		ID:         uuid.New().String(),
		Assignment: cfg.Name,
		Name:       name,
		Language:   cfg.Lang,
		BaseFiles:  baseFiles,
		Files:      fileList,
		ReportPath: filepath.Join(cfg.Output, name),
		Status:     domain.SubmissionStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// submissionName derives a filesystem-safe report directory name from
// the file pattern and the compared group
func submissionName(pattern, group string, part int) string {
	p := strings.NewReplacer("/", "_", "*", "all", ".", "").Replace(pattern)
	if group == "" {
		return fmt.Sprintf("%s_part%d_reports", p, part)
	}
	return fmt.Sprintf("%s_%s_part%d_reports", p, group, part)
}
