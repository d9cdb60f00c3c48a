package moss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestSaveReport tests writing the index page to disk.
func TestSaveReport(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>report</html>"))
	}))
	defer server.Close()

	d := NewDownloader(server.Client())
	path := filepath.Join(t.TempDir(), "out", "report.html")

	// Act
	err := d.SaveReport(context.Background(), server.URL, path)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected report file, got %v", err)
	}
	if string(data) != "<html>report</html>" {
		t.Errorf("unexpected report content: %q", data)
	}
}

// TestSaveReport_HTTPError tests error propagation on non-200.
func TestSaveReport_HTTPError(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	d := NewDownloader(server.Client())

	// Act
	err := d.SaveReport(context.Background(), server.URL, filepath.Join(t.TempDir(), "report.html"))

	// Assert
	if err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}

// TestDownloadReport tests downloading the index and linked match pages.
func TestDownloadReport(t *testing.T) {
	// Arrange
	index := `<html><body>
		<a href="match0.html">alice vs bob</a>
		<a href="match1.html">alice vs carol</a>
	</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(index))
			return
		}
		if strings.HasPrefix(r.URL.Path, "/match") {
			_, _ = w.Write([]byte("<html>" + r.URL.Path + "</html>"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	d := NewDownloader(server.Client())
	dir := t.TempDir()

	// Act
	err := d.DownloadReport(context.Background(), server.URL, dir, 4)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, name := range []string{"index.html", "match0.html", "match0-top.html", "match0-0.html", "match0-1.html", "match1.html"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to be downloaded: %v", name, err)
		}
	}
}

// TestMatchPages tests link extraction and deduplication.
func TestMatchPages(t *testing.T) {
	// Arrange
	index := []byte(`<a href="match3.html">x</a><a href="match3.html">x again</a>`)

	// Act
	pages := matchPages(index)

	// Assert
	want := []string{"match3.html", "match3-top.html", "match3-0.html", "match3-1.html"}
	if len(pages) != len(want) {
		t.Fatalf("expected %d pages, got %d: %v", len(want), len(pages), pages)
	}
	for i := range want {
		if pages[i] != want[i] {
			t.Errorf("expected page %q at %d, got %q", want[i], i, pages[i])
		}
	}
}
