package files

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// TestCollect tests glob collection one checkout deep.
func TestCollect(t *testing.T) {
	// Arrange
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "alice", "hw", "main.c"), "int main() {}\n")
	writeFile(t, filepath.Join(root, "bob", "hw", "main.c"), "int main() {}\n")
	writeFile(t, filepath.Join(root, "bob", "hw", "notes.txt"), "notes\n")

	// Act
	matches, err := Collect(root, "hw/*.c", "")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d: %v", len(matches), matches)
	}
}

// TestCollect_AssignmentPath tests collection under an assignment subdirectory.
func TestCollect_AssignmentPath(t *testing.T) {
	// Arrange
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "alice", "pa3", "src", "list.c"), "struct node;\n")
	writeFile(t, filepath.Join(root, "alice", "pa2", "src", "old.c"), "int x;\n")

	// Act
	matches, err := Collect(root, "src/*.c", "pa3")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %v", len(matches), matches)
	}
	if filepath.Base(matches[0]) != "list.c" {
		t.Errorf("expected list.c, got %s", matches[0])
	}
}

// TestFilterValid tests that empty and comment-only files are dropped.
func TestFilterValid(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	code := filepath.Join(dir, "code.c")
	empty := filepath.Join(dir, "empty.c")
	comments := filepath.Join(dir, "comments.c")
	writeFile(t, code, "int main() { return 0; }\n")
	writeFile(t, empty, "")
	writeFile(t, comments, "/* starter file */\n// fill this in\n")

	// Act
	valid := FilterValid([]string{code, empty, comments}, "c")

	// Assert
	if len(valid) != 1 {
		t.Fatalf("expected 1 valid file, got %d: %v", len(valid), valid)
	}
	if valid[0] != code {
		t.Errorf("expected %s, got %s", code, valid[0])
	}
}

// TestFilterValid_OtherLanguage tests that non-C languages skip the
// comment check.
func TestFilterValid_OtherLanguage(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "solution.py")
	writeFile(t, path, "# comment only\n")

	// Act
	valid := FilterValid([]string{path}, "python")

	// Assert
	if len(valid) != 1 {
		t.Fatalf("expected the python file to pass, got %v", valid)
	}
}

// TestFilterNonEmpty tests the size-only filter used for base files.
func TestFilterNonEmpty(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	full := filepath.Join(dir, "full.c")
	empty := filepath.Join(dir, "empty.c")
	writeFile(t, full, "x")
	writeFile(t, empty, "")

	// Act
	kept := FilterNonEmpty([]string{full, empty})

	// Assert
	if len(kept) != 1 || kept[0] != full {
		t.Errorf("expected only %s, got %v", full, kept)
	}
}

// TestBatch tests splitting previous-quarter files across parts.
func TestBatch(t *testing.T) {
	// Arrange
	current := make([]string, 100)
	prev := make([]string, 450)
	for i := range current {
		current[i] = "cur"
	}
	for i := range prev {
		prev[i] = "prev"
	}

	// Act
	batches := Batch(current, prev, FileLimit)

	// Assert: remaining is 200, so 450 previous files need 3 parts
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[0]) != 200 || len(batches[1]) != 200 || len(batches[2]) != 50 {
		t.Errorf("unexpected batch sizes: %d, %d, %d", len(batches[0]), len(batches[1]), len(batches[2]))
	}
}

// TestBatch_NoPrevious tests that no previous files still yields one batch.
func TestBatch_NoPrevious(t *testing.T) {
	// Act
	batches := Batch([]string{"a", "b"}, nil, FileLimit)

	// Assert
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	if len(batches[0]) != 0 {
		t.Errorf("expected empty batch, got %v", batches[0])
	}
}

// TestBatch_OverLimit tests that too many current files yields nil.
func TestBatch_OverLimit(t *testing.T) {
	// Arrange
	current := make([]string, FileLimit+1)

	// Act
	batches := Batch(current, []string{"p"}, FileLimit)

	// Assert
	if batches != nil {
		t.Errorf("expected nil batches, got %v", batches)
	}
}
