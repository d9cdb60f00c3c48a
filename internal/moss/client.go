package moss

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/kurihiro0119/mosscheck/internal/domain"
	apperrors "github.com/kurihiro0119/mosscheck/internal/errors"
)

// DefaultServer is the address of the public MOSS service
const DefaultServer = "moss.stanford.edu:7690"

// UploadCallback is invoked after each file upload
type UploadCallback func(path, displayName string)

type fileEntry struct {
	path        string
	displayName string
}

// Client submits one batch of source files to the MOSS service. The
// protocol is a plain-text exchange over a single TCP connection:
// handshake options, one "file" record per upload, a "query" that
// yields the report URL, then "end".
type Client struct {
	userID    string
	server    string
	lang      string
	options   domain.MossOptions
	baseFiles []fileEntry
	files     []fileEntry
}

// NewClient creates a client for a single submission
func NewClient(userID, server, lang string, opts domain.MossOptions) (*Client, error) {
	if userID == "" {
		return nil, apperrors.NewCredentialError("MOSS user id is required")
	}
	if !IsSupportedLanguage(lang) {
		return nil, apperrors.NewSubmissionError("unsupported language "+lang, nil)
	}
	if server == "" {
		server = DefaultServer
	}
	return &Client{
		userID:  userID,
		server:  server,
		lang:    lang,
		options: opts,
	}, nil
}

// AddBaseFile registers shared boilerplate that matches against it
// will not count as similarity
func (c *Client) AddBaseFile(path string) {
	c.baseFiles = append(c.baseFiles, fileEntry{path: path, displayName: sanitizeDisplayName(path)})
}

// AddFile registers a student file. displayName is how the file is
// labeled in the report; an empty displayName uses the path.
func (c *Client) AddFile(path, displayName string) {
	if displayName == "" {
		displayName = path
	}
	c.files = append(c.files, fileEntry{path: path, displayName: sanitizeDisplayName(displayName)})
}

// FileCount returns the number of registered files including base files
func (c *Client) FileCount() int {
	return len(c.baseFiles) + len(c.files)
}

// Send uploads the batch and returns the report URL
func (c *Client) Send(ctx context.Context, onUpload UploadCallback) (string, error) {
	if len(c.files) == 0 {
		return "", apperrors.NewSubmissionError("no files to submit", nil)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.server)
	if err != nil {
		return "", apperrors.NewSubmissionError("failed to connect to MOSS server "+c.server, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	w := bufio.NewWriter(conn)
	r := bufio.NewReader(conn)

	fmt.Fprintf(w, "moss %s\n", c.userID)
	fmt.Fprintf(w, "directory %d\n", c.options.Directory)
	fmt.Fprintf(w, "X %d\n", c.options.Experimental)
	fmt.Fprintf(w, "maxmatches %d\n", c.options.MaxMatches)
	fmt.Fprintf(w, "show %d\n", c.options.ShowResults)
	fmt.Fprintf(w, "language %s\n", c.lang)
	if err := w.Flush(); err != nil {
		return "", apperrors.NewSubmissionError("failed to send handshake", err)
	}

	reply, err := readLine(r)
	if err != nil {
		return "", apperrors.NewSubmissionError("no handshake response from MOSS server", err)
	}
	if reply == "no" {
		fmt.Fprintf(w, "end\n")
		_ = w.Flush()
		return "", apperrors.NewSubmissionError("MOSS server rejected language "+c.lang, nil)
	}

	for _, f := range c.baseFiles {
		if err := c.uploadFile(w, f, 0); err != nil {
			return "", err
		}
		if onUpload != nil {
			onUpload(f.path, f.displayName)
		}
	}
	for i, f := range c.files {
		if err := c.uploadFile(w, f, i+1); err != nil {
			return "", err
		}
		if onUpload != nil {
			onUpload(f.path, f.displayName)
		}
	}

	fmt.Fprintf(w, "query 0 %s\n", c.options.Comment)
	if err := w.Flush(); err != nil {
		return "", apperrors.NewSubmissionError("failed to send query", err)
	}

	reportURL, err := readLine(r)
	if err != nil {
		return "", apperrors.NewSubmissionError("no report URL from MOSS server", err)
	}

	fmt.Fprintf(w, "end\n")
	_ = w.Flush()

	if !strings.HasPrefix(reportURL, "http") {
		return "", apperrors.NewSubmissionError("unexpected MOSS server response: "+reportURL, nil)
	}
	return reportURL, nil
}

func (c *Client) uploadFile(w *bufio.Writer, f fileEntry, index int) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return apperrors.NewSubmissionError("failed to read "+f.path, err)
	}
	fmt.Fprintf(w, "file %d %s %d %s\n", index, c.lang, len(data), f.displayName)
	if _, err := w.Write(data); err != nil {
		return apperrors.NewSubmissionError("failed to upload "+f.path, err)
	}
	return w.Flush()
}

// sanitizeDisplayName normalizes a path for the wire format: the
// protocol is line- and space-delimited, so spaces and backslashes
// cannot appear in names.
func sanitizeDisplayName(name string) string {
	name = filepath.ToSlash(name)
	name = strings.ReplaceAll(name, " ", "_")
	return strings.TrimPrefix(name, "/")
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
