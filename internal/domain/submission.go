package domain

import "time"

// SubmissionStatus represents the state of a MOSS submission task
type SubmissionStatus string

const (
	SubmissionStatusPending SubmissionStatus = "pending"
	SubmissionStatusDone    SubmissionStatus = "done"
	SubmissionStatusFailed  SubmissionStatus = "failed"
)

// MossOptions holds the switches passed to the MOSS service.
// Field names follow the single-letter options of the original
// moss submission script.
type MossOptions struct {
	MaxMatches   int    `yaml:"m"` // passages shared by more than this many programs are ignored
	ShowResults  int    `yaml:"n"` // number of matching file pairs shown in the report
	Directory    int    `yaml:"d"` // directory mode: compare by submission directory
	Experimental int    `yaml:"x"` // use the experimental server
	Comment      string `yaml:"c"` // comment attached to the report
}

// DefaultMossOptions returns the options used when the config omits them
func DefaultMossOptions() MossOptions {
	return MossOptions{
		MaxMatches:  20,
		ShowResults: 1000,
	}
}

// Submission represents one batch of source files sent to MOSS
type Submission struct {
	ID         string
	Assignment string
	Name       string
	Language   string
	BaseFiles  []string
	Files      []string
	ReportPath string
	ReportURL  string
	Status     SubmissionStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AssignmentSummary aggregates stored state for one assignment
type AssignmentSummary struct {
	Assignment  string
	Checkouts   int
	Submissions int
	Done        int
	Failed      int
}
