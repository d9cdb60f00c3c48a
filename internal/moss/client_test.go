package moss

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/kurihiro0119/mosscheck/internal/domain"
)

// fakeMossServer speaks just enough of the MOSS wire protocol to
// exercise the client.
type fakeMossServer struct {
	ln        net.Listener
	langReply string
	reportURL string

	mu    sync.Mutex
	lines []string
}

func startFakeMoss(t *testing.T, langReply, reportURL string) *fakeMossServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	s := &fakeMossServer{ln: ln, langReply: langReply, reportURL: reportURL}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *fakeMossServer) addr() string {
	return s.ln.Addr().String()
}

func (s *fakeMossServer) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.lines...)
}

func (s *fakeMossServer) serve() {
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)

		s.mu.Lock()
		s.lines = append(s.lines, line)
		s.mu.Unlock()

		switch {
		case strings.HasPrefix(line, "language "):
			fmt.Fprintf(conn, "%s\n", s.langReply)
		case strings.HasPrefix(line, "file "):
			parts := strings.SplitN(line, " ", 5)
			size, _ := strconv.Atoi(parts[3])
			_, _ = io.CopyN(io.Discard, r, int64(size))
		case strings.HasPrefix(line, "query"):
			fmt.Fprintf(conn, "%s\n", s.reportURL)
		case line == "end":
			return
		}
	}
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// TestSend tests a full submission round trip against a fake server.
func TestSend(t *testing.T) {
	// Arrange
	server := startFakeMoss(t, "yes", "http://moss.stanford.edu/results/1/123456789")
	dir := t.TempDir()
	base := writeSource(t, dir, "starter.c", "void stub(void);\n")
	fileA := writeSource(t, dir, "alice main.c", "int main() { return 1; }\n")
	fileB := writeSource(t, dir, "bob.c", "int main() { return 2; }\n")

	client, err := NewClient("987654", server.addr(), "c", domain.DefaultMossOptions())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	client.AddBaseFile(base)
	client.AddFile(fileA, "alice main.c")
	client.AddFile(fileB, "")

	uploads := 0

	// Act
	url, err := client.Send(context.Background(), func(path, displayName string) {
		uploads++
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if url != "http://moss.stanford.edu/results/1/123456789" {
		t.Errorf("unexpected report URL: %q", url)
	}
	if uploads != 3 {
		t.Errorf("expected 3 upload callbacks, got %d", uploads)
	}

	lines := server.received()
	if lines[0] != "moss 987654" {
		t.Errorf("expected user handshake first, got %q", lines[0])
	}
	var fileLines []string
	for _, line := range lines {
		if strings.HasPrefix(line, "file ") {
			fileLines = append(fileLines, line)
		}
	}
	if len(fileLines) != 3 {
		t.Fatalf("expected 3 file records, got %d", len(fileLines))
	}
	// base files upload with index 0, student files from 1
	if !strings.HasPrefix(fileLines[0], "file 0 c ") {
		t.Errorf("expected base file at index 0, got %q", fileLines[0])
	}
	if !strings.HasSuffix(fileLines[1], "alice_main.c") {
		t.Errorf("expected sanitized display name, got %q", fileLines[1])
	}
}

// TestSend_LanguageRejected tests the server answering "no" to the
// language line.
func TestSend_LanguageRejected(t *testing.T) {
	// Arrange
	server := startFakeMoss(t, "no", "")
	dir := t.TempDir()
	file := writeSource(t, dir, "main.c", "int main() {}\n")

	client, err := NewClient("987654", server.addr(), "c", domain.DefaultMossOptions())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	client.AddFile(file, "")

	// Act
	_, err = client.Send(context.Background(), nil)

	// Assert
	if err == nil {
		t.Fatal("expected an error when the server rejects the language")
	}
}

// TestSend_NoFiles tests that an empty batch fails before connecting.
func TestSend_NoFiles(t *testing.T) {
	// Arrange
	client, err := NewClient("987654", "127.0.0.1:1", "c", domain.DefaultMossOptions())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Act
	_, err = client.Send(context.Background(), nil)

	// Assert
	if err == nil {
		t.Fatal("expected an error for an empty batch")
	}
}

// TestNewClient_UnsupportedLanguage tests client-side language validation.
func TestNewClient_UnsupportedLanguage(t *testing.T) {
	// Act
	_, err := NewClient("987654", "", "cobol", domain.DefaultMossOptions())

	// Assert
	if err == nil {
		t.Fatal("expected an error for unsupported language")
	}
}

// TestNewClient_MissingUserID tests that a user id is required.
func TestNewClient_MissingUserID(t *testing.T) {
	// Act
	_, err := NewClient("", "", "c", domain.DefaultMossOptions())

	// Assert
	if err == nil {
		t.Fatal("expected an error for missing user id")
	}
}

// TestSanitizeDisplayName tests wire-format name normalization.
func TestSanitizeDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"files/alice/hw 3/main.c", "files/alice/hw_3/main.c"},
		{"/files/bob/main.c", "files/bob/main.c"},
	}
	for _, tt := range tests {
		if got := sanitizeDisplayName(tt.in); got != tt.want {
			t.Errorf("sanitizeDisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
