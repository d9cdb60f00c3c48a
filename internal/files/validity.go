package files

import (
	"os"
	"unicode"
)

// IsValid reports whether the file still contains code once comments
// are stripped. MOSS rejects batches containing comment-only files,
// so they are dropped before submission. Only C-family languages are
// checked; every other language passes.
func IsValid(path, lang string) bool {
	if lang != "c" && lang != "cc" {
		return true
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	return !isEmpty(stripCComments(string(data)))
}

// isEmpty reports whether the text contains no alphanumeric character
func isEmpty(text string) bool {
	for _, ch := range text {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
			return false
		}
	}
	return true
}

// stripCComments removes line and block comments from C/C++ source,
// leaving string and character literals intact.
func stripCComments(src string) string {
	const (
		stateCode = iota
		stateLineComment
		stateBlockComment
		stateString
		stateChar
	)

	var out []rune
	state := stateCode
	runes := []rune(src)

	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch state {
		case stateCode:
			switch {
			case ch == '/' && next == '/':
				state = stateLineComment
				i++
			case ch == '/' && next == '*':
				state = stateBlockComment
				i++
			case ch == '"':
				state = stateString
				out = append(out, ch)
			case ch == '\'':
				state = stateChar
				out = append(out, ch)
			default:
				out = append(out, ch)
			}
		case stateLineComment:
			if ch == '\n' {
				state = stateCode
				out = append(out, ch)
			}
		case stateBlockComment:
			if ch == '*' && next == '/' {
				state = stateCode
				i++
			}
		case stateString:
			out = append(out, ch)
			if ch == '\\' && i+1 < len(runes) {
				out = append(out, next)
				i++
			} else if ch == '"' {
				state = stateCode
			}
		case stateChar:
			out = append(out, ch)
			if ch == '\\' && i+1 < len(runes) {
				out = append(out, next)
				i++
			} else if ch == '\'' {
				state = stateCode
			}
		}
	}

	return string(out)
}
