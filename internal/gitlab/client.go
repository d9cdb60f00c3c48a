package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kurihiro0119/mosscheck/internal/domain"
)

// HTTPClient interface for HTTP operations (allows mocking in tests)
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a minimal GitLab REST API client covering group and
// project listing for the clone step
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPClient
}

// NewClient creates a new GitLab client. A nil httpClient falls back
// to a default client with a request timeout.
func NewClient(baseURL, token string, httpClient HTTPClient) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
	}
}

// GetGroups retrieves the groups whose name appears in names
func (c *Client) GetGroups(ctx context.Context, names []string) ([]domain.Group, error) {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	var groups []domain.Group
	page := 1
	for page > 0 {
		url := fmt.Sprintf("%s/api/v4/groups?per_page=100&page=%d", c.baseURL, page)

		var glGroups []gitlabGroup
		nextPage, err := c.doRequest(ctx, url, &glGroups)
		if err != nil {
			return nil, fmt.Errorf("failed to list groups: %w", err)
		}

		for _, glg := range glGroups {
			if wanted[glg.Name] {
				groups = append(groups, domain.Group{
					ID:       glg.ID,
					Name:     glg.Name,
					FullPath: glg.FullPath,
				})
			}
		}
		page = nextPage
	}

	return groups, nil
}

// GetGroupProjects retrieves all projects of a group
func (c *Client) GetGroupProjects(ctx context.Context, groupID int) ([]domain.Project, error) {
	var projects []domain.Project
	page := 1
	for page > 0 {
		url := fmt.Sprintf("%s/api/v4/groups/%d/projects?per_page=100&page=%d", c.baseURL, groupID, page)

		var glProjects []gitlabProject
		nextPage, err := c.doRequest(ctx, url, &glProjects)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects for group %d: %w", groupID, err)
		}

		for _, glp := range glProjects {
			projects = append(projects, domain.Project{
				ID:            glp.ID,
				Name:          glp.Name,
				Path:          glp.Path,
				HTTPURLToRepo: glp.HTTPURLToRepo,
				SSHURLToRepo:  glp.SSHURLToRepo,
				DefaultBranch: glp.DefaultBranch,
			})
		}
		page = nextPage
	}

	return projects, nil
}

// doRequest performs a GET request against the GitLab API and decodes
// the JSON response. It returns the next page number, or 0 when the
// X-Next-Page header is absent or empty.
func (c *Client) doRequest(ctx context.Context, url string, result interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("PRIVATE-TOKEN", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	nextPage := 0
	if next := resp.Header.Get("X-Next-Page"); next != "" {
		if n, err := strconv.Atoi(next); err == nil {
			nextPage = n
		}
	}
	return nextPage, nil
}
