package task

import (
	"context"
	"strings"

	"github.com/kurihiro0119/mosscheck/internal/domain"
	"github.com/kurihiro0119/mosscheck/internal/moss"
)

// Submitter sends one prepared submission to the MOSS service
type Submitter interface {
	Submit(ctx context.Context, sub *domain.Submission, onUpload moss.UploadCallback) (string, error)
}

// mossSubmitter opens a fresh MOSS connection per submission
type mossSubmitter struct {
	userID    string
	server    string
	options   domain.MossOptions
	filesRoot string
}

// NewMossSubmitter creates a Submitter backed by the MOSS service.
// filesRoot is stripped from display names so reports show paths
// relative to the working directory.
func NewMossSubmitter(userID, server string, options domain.MossOptions, filesRoot string) Submitter {
	return &mossSubmitter{
		userID:    userID,
		server:    server,
		options:   options,
		filesRoot: filesRoot,
	}
}

func (m *mossSubmitter) Submit(ctx context.Context, sub *domain.Submission, onUpload moss.UploadCallback) (string, error) {
	client, err := moss.NewClient(m.userID, m.server, sub.Language, m.options)
	if err != nil {
		return "", err
	}

	for _, baseFile := range sub.BaseFiles {
		client.AddBaseFile(baseFile)
	}
	for _, file := range sub.Files {
		client.AddFile(file, strings.TrimPrefix(file, m.filesRoot))
	}

	return client.Send(ctx, onUpload)
}
