package cloner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/kurihiro0119/mosscheck/internal/domain"
	apperrors "github.com/kurihiro0119/mosscheck/internal/errors"
)

// ProgressCallback is a callback function for reporting clone progress
type ProgressCallback func(project string, progress float64)

// GroupLister lists groups and their projects from GitLab
type GroupLister interface {
	GetGroups(ctx context.Context, names []string) ([]domain.Group, error)
	GetGroupProjects(ctx context.Context, groupID int) ([]domain.Project, error)
}

// cloneFunc performs a single clone. Replaced by a fake in tests.
type cloneFunc func(ctx context.Context, url, path, branch string, auth *githttp.BasicAuth) error

// Cloner clones student repositories into a local working directory
type Cloner struct {
	gitlab       GroupLister
	token        string
	abortOnError bool
	clone        cloneFunc
}

// New creates a new Cloner. abortOnError selects the failure policy:
// when false a failed clone is reported and skipped.
func New(gl GroupLister, token string, abortOnError bool) *Cloner {
	return &Cloner{
		gitlab:       gl,
		token:        token,
		abortOnError: abortOnError,
		clone:        gitClone,
	}
}

func gitClone(ctx context.Context, url, path, branch string, auth *githttp.BasicAuth) error {
	opts := &git.CloneOptions{
		URL:  url,
		Auth: auth,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}
	_, err := git.PlainCloneContext(ctx, path, false, opts)
	return err
}

// auth returns token credentials for HTTP cloning, or nil when no
// token is configured (public repositories).
func (c *Cloner) auth() *githttp.BasicAuth {
	if c.token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "oauth2", Password: c.token}
}

// CloneRepo clones a single repository into path/name. An existing
// checkout directory is kept as-is. The requested branch is tried
// first; when it does not exist the default branch is cloned instead.
// Returns the checkout path and whether a clone actually happened.
func (c *Cloner) CloneRepo(ctx context.Context, url, path, name, branch string) (string, bool, error) {
	repoPath := filepath.Join(path, name)
	if _, err := os.Stat(repoPath); err == nil {
		return repoPath, false, nil
	}

	auth := c.auth()
	err := c.clone(ctx, url, repoPath, branch, auth)
	if err == nil {
		return repoPath, true, nil
	}
	// go-git can leave a partial directory behind on failure
	_ = os.RemoveAll(repoPath)

	if branch == "" {
		return "", false, apperrors.NewCloneError("failed to clone "+url, err)
	}
	if err := c.clone(ctx, url, repoPath, "", auth); err != nil {
		_ = os.RemoveAll(repoPath)
		return "", false, apperrors.NewCloneError("failed to clone "+url, err)
	}
	return repoPath, true, nil
}

// CloneGroups clones every project of the named groups into
// filesPath/<group>/<project>. Returns one checkout per project
// directory present afterwards.
func (c *Cloner) CloneGroups(ctx context.Context, assignment string, groupNames []string, filesPath, branch string, onProgress ProgressCallback) ([]domain.Checkout, error) {
	groups, err := c.gitlab.GetGroups(ctx, groupNames)
	if err != nil {
		return nil, err
	}

	var checkouts []domain.Checkout
	for _, group := range groups {
		projects, err := c.gitlab.GetGroupProjects(ctx, group.ID)
		if err != nil {
			return nil, err
		}

		groupPath := filepath.Join(filesPath, group.Name)
		if err := os.MkdirAll(groupPath, 0o755); err != nil {
			return nil, apperrors.NewCloneError("failed to create "+groupPath, err)
		}

		for i, project := range projects {
			repoPath, _, err := c.CloneRepo(ctx, project.HTTPURLToRepo, groupPath, project.Name, branch)
			if err != nil {
				if c.abortOnError {
					return checkouts, err
				}
				fmt.Printf("Warning: failed to clone %s/%s: %v\n", group.Name, project.Name, err)
				continue
			}
			checkouts = append(checkouts, domain.Checkout{
				Assignment: assignment,
				Group:      group.Name,
				Project:    project.Name,
				Path:       repoPath,
				Branch:     branch,
				ClonedAt:   time.Now(),
			})
			if onProgress != nil {
				onProgress(project.Name, float64(i+1)/float64(len(projects)))
			}
		}
	}

	return checkouts, nil
}

// CloneBaseRepos clones instructor-provided starter repositories into
// basePath/base_<i>. Base files from these checkouts are sent to MOSS
// as shared boilerplate.
func (c *Cloner) CloneBaseRepos(ctx context.Context, repos []string, basePath string) error {
	for i, repo := range repos {
		name := fmt.Sprintf("base_%d", i)
		if _, _, err := c.CloneRepo(ctx, repo, basePath, name, ""); err != nil {
			if c.abortOnError {
				return err
			}
			fmt.Printf("Warning: failed to clone base repo %s: %v\n", repo, err)
		}
	}
	return nil
}
