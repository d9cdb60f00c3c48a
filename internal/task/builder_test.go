package task

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kurihiro0119/mosscheck/internal/config"
	"github.com/kurihiro0119/mosscheck/internal/domain"
)

func writeTree(t *testing.T, root string, entries map[string]string) {
	t.Helper()
	for rel, content := range entries {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
}

func testAssignment(root string) *config.Assignment {
	cfg := config.DefaultAssignment()
	cfg.Name = "pa3"
	cfg.Lang = "c"
	cfg.Output = filepath.Join(root, "output")
	cfg.Files = filepath.Join(root, "files")
	cfg.ThisQuarterGroups = []string{"s24"}
	cfg.AssignmentFiles = []string{"*.c"}
	cfg.BaseFiles = []string{"*.*"}
	return cfg
}

// TestBuild_SingleSubmission tests that without previous-quarter
// groups one submission per file pattern is produced.
func TestBuild_SingleSubmission(t *testing.T) {
	// Arrange
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"files/s24/alice/main.c":        "int main() { return 0; }",
		"files/s24/bob/main.c":          "int main() { return 1; }",
		"output/base/base_0/skeleton.c": "int main() {}",
	})
	cfg := testAssignment(root)

	// Act
	subs, err := Build(cfg)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(subs))
	}
	sub := subs[0]
	if sub.Name != "allc_part0_reports" {
		t.Errorf("expected name allc_part0_reports, got %q", sub.Name)
	}
	if len(sub.Files) != 2 {
		t.Errorf("expected 2 files, got %d: %v", len(sub.Files), sub.Files)
	}
	if len(sub.BaseFiles) != 1 {
		t.Errorf("expected 1 base file, got %d: %v", len(sub.BaseFiles), sub.BaseFiles)
	}
	if sub.Status != domain.SubmissionStatusPending {
		t.Errorf("expected pending status, got %q", sub.Status)
	}
	if sub.ReportPath != filepath.Join(cfg.Output, sub.Name) {
		t.Errorf("unexpected report path %q", sub.ReportPath)
	}
	if sub.Assignment != "pa3" {
		t.Errorf("expected assignment pa3, got %q", sub.Assignment)
	}
}

// TestBuild_SkipsInvalidFiles tests that comment-only sources and
// empty base files are not submitted.
func TestBuild_SkipsInvalidFiles(t *testing.T) {
	// Arrange
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"files/s24/alice/main.c":     "int main() { return 0; }",
		"files/s24/carol/main.c":     "/* not started yet */",
		"output/base/base_0/empty.c": "",
	})
	cfg := testAssignment(root)

	// Act
	subs, err := Build(cfg)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(subs[0].Files) != 1 {
		t.Errorf("expected comment-only file to be skipped, got %v", subs[0].Files)
	}
	if len(subs[0].BaseFiles) != 0 {
		t.Errorf("expected empty base file to be skipped, got %v", subs[0].BaseFiles)
	}
}

// TestBuild_PreviousGroups tests that previous-quarter files are
// appended to the current files per compared group.
func TestBuild_PreviousGroups(t *testing.T) {
	// Arrange
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"files/s24/alice/main.c": "int main() { return 0; }",
		"files/s24/bob/main.c":   "int main() { return 1; }",
		"files/f23/dave/main.c":  "int main() { return 2; }",
		"files/f23/erin/main.c":  "int main() { return 3; }",
		"files/w24/fred/main.c":  "int main() { return 4; }",
	})
	cfg := testAssignment(root)
	cfg.PreviousQuarterGroups = []string{"f23", "w24"}

	// Act
	subs, err := Build(cfg)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected one submission per previous group, got %d", len(subs))
	}
	if subs[0].Name != "allc_f23_part0_reports" {
		t.Errorf("unexpected name %q", subs[0].Name)
	}
	if len(subs[0].Files) != 4 {
		t.Errorf("expected 2 current + 2 previous files, got %v", subs[0].Files)
	}
	if subs[1].Name != "allc_w24_part0_reports" {
		t.Errorf("unexpected name %q", subs[1].Name)
	}
	if len(subs[1].Files) != 3 {
		t.Errorf("expected 2 current + 1 previous file, got %v", subs[1].Files)
	}
}

// TestBuild_AssignmentPath tests that files are collected under the
// configured sub-directory of each checkout.
func TestBuild_AssignmentPath(t *testing.T) {
	// Arrange
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"files/s24/alice/pa3/main.c": "int main() { return 0; }",
		"files/s24/alice/main.c":     "int main() { return 9; }",
	})
	cfg := testAssignment(root)
	cfg.AssignmentPath = "pa3"

	// Act
	subs, err := Build(cfg)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(subs[0].Files) != 1 || !strings.Contains(subs[0].Files[0], filepath.Join("alice", "pa3")) {
		t.Errorf("expected only the pa3 sub-directory file, got %v", subs[0].Files)
	}
}

// TestBuild_NoFiles tests that an empty checkout tree is an error
// pointing at clone mode.
func TestBuild_NoFiles(t *testing.T) {
	// Arrange
	root := t.TempDir()
	cfg := testAssignment(root)

	// Act
	_, err := Build(cfg)

	// Assert
	if err == nil {
		t.Fatal("expected an error for an empty tree")
	}
	if !strings.Contains(err.Error(), "no source files found") {
		t.Errorf("unexpected error: %v", err)
	}
}
