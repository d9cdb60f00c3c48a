package files

import "testing"

// TestStripCComments tests comment removal from C source.
func TestStripCComments(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "line comment",
			src:  "int x; // counter\n",
			want: "int x; \n",
		},
		{
			name: "block comment",
			src:  "/* header */int x;",
			want: "int x;",
		},
		{
			name: "multiline block comment",
			src:  "/*\n * starter\n */\nint x;",
			want: "\nint x;",
		},
		{
			name: "comment markers inside string",
			src:  `printf("// not a comment");`,
			want: `printf("// not a comment");`,
		},
		{
			name: "escaped quote in string",
			src:  `char *s = "say \"hi\" /*";`,
			want: `char *s = "say \"hi\" /*";`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripCComments(tt.src)
			if got != tt.want {
				t.Errorf("stripCComments(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

// TestIsEmpty tests the alphanumeric content check.
func TestIsEmpty(t *testing.T) {
	if !isEmpty(" \n\t{};*/") {
		t.Error("expected punctuation-only text to be empty")
	}
	if isEmpty("int x;") {
		t.Error("expected code to be non-empty")
	}
}
