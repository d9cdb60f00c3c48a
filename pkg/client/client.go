package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kurihiro0119/mosscheck/internal/domain"
)

// Client is the API client for mosscheck
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetSummary retrieves aggregate counts for an assignment
func (c *Client) GetSummary(assignment string) (*domain.AssignmentSummary, error) {
	path := fmt.Sprintf("/api/v1/assignments/%s", url.PathEscape(assignment))

	var response struct {
		Data *domain.AssignmentSummary `json:"data"`
	}
	if err := c.get(path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetSubmissions retrieves all submissions for an assignment
func (c *Client) GetSubmissions(assignment string) ([]*domain.Submission, error) {
	path := fmt.Sprintf("/api/v1/assignments/%s/submissions", url.PathEscape(assignment))

	var response struct {
		Data []*domain.Submission `json:"data"`
	}
	if err := c.get(path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetSubmission retrieves a single submission
func (c *Client) GetSubmission(assignment, id string) (*domain.Submission, error) {
	path := fmt.Sprintf("/api/v1/assignments/%s/submissions/%s", url.PathEscape(assignment), url.PathEscape(id))

	var response struct {
		Data *domain.Submission `json:"data"`
	}
	if err := c.get(path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetCheckouts retrieves all recorded checkouts for an assignment
func (c *Client) GetCheckouts(assignment string) ([]*domain.Checkout, error) {
	path := fmt.Sprintf("/api/v1/assignments/%s/checkouts", url.PathEscape(assignment))

	var response struct {
		Data []*domain.Checkout `json:"data"`
	}
	if err := c.get(path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) get(path string, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Get(u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
