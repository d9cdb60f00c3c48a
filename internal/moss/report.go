package moss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	apperrors "github.com/kurihiro0119/mosscheck/internal/errors"
)

var matchLinkRe = regexp.MustCompile(`match(\d+)\.html`)

// Downloader fetches MOSS report pages over HTTP
type Downloader struct {
	httpClient *http.Client
}

// NewDownloader creates a report downloader. A nil httpClient falls
// back to a default client with a request timeout.
func NewDownloader(httpClient *http.Client) *Downloader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Downloader{httpClient: httpClient}
}

// SaveReport fetches the report index page and writes it to path
func (d *Downloader) SaveReport(ctx context.Context, reportURL, path string) error {
	body, err := d.fetch(ctx, reportURL)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.NewInternalError("failed to create report directory", err)
	}
	return os.WriteFile(path, body, 0o644)
}

// DownloadReport downloads the full report into dir: the index page
// plus every linked match page, fetched by `connections` concurrent
// workers. Individual page failures are reported and skipped so a
// flaky page does not lose the rest of the report.
func (d *Downloader) DownloadReport(ctx context.Context, reportURL, dir string, connections int) error {
	if connections < 1 {
		connections = 1
	}

	index, err := d.fetch(ctx, reportURL)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewInternalError("failed to create report directory", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), index, 0o644); err != nil {
		return apperrors.NewInternalError("failed to write report index", err)
	}

	pages := matchPages(index)
	jobs := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < connections; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				if err := d.downloadPage(ctx, reportURL, dir, name); err != nil {
					fmt.Printf("Warning: failed to download %s: %v\n", name, err)
				}
			}
		}()
	}

	for _, name := range pages {
		jobs <- name
	}
	close(jobs)
	wg.Wait()

	return nil
}

// matchPages extracts the match page names linked from the index. Each
// matchN.html frameset pulls in a -top and two side-by-side panes.
func matchPages(index []byte) []string {
	seen := make(map[string]bool)
	var pages []string
	for _, m := range matchLinkRe.FindAllSubmatch(index, -1) {
		n := string(m[1])
		for _, name := range []string{
			"match" + n + ".html",
			"match" + n + "-top.html",
			"match" + n + "-0.html",
			"match" + n + "-1.html",
		} {
			if !seen[name] {
				seen[name] = true
				pages = append(pages, name)
			}
		}
	}
	return pages
}

func (d *Downloader) downloadPage(ctx context.Context, baseURL, dir, name string) error {
	body, err := d.fetch(ctx, baseURL+"/"+name)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), body, 0o644)
}

func (d *Downloader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewSubmissionError("failed to create request for "+url, err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewSubmissionError("failed to fetch "+url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewSubmissionError(fmt.Sprintf("fetching %s returned status %d", url, resp.StatusCode), nil)
	}
	return io.ReadAll(resp.Body)
}
