// Package script loads pipeline-description files and prepares their text
// for parsing. Comment stripping happens here, before the lexer ever sees
// the script.
package script

import (
	"fmt"
	"os"
	"strings"
)

// Load reads the script at path and returns its text with comments removed.
// A file that cannot be opened is a recoverable error carrying the same
// diagnostic text callers have always seen.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("Error opening file %s. Aborting.", path)
	}
	return StripComments(string(data)), nil
}

// StripComments removes /* ... */ block comments and // line comments.
//
// The scan is purely textual: comment-like sequences inside quoted strings
// are not protected, so a command template containing "//" will be
// truncated. This is a long-standing documented limitation of the format,
// preserved here rather than silently changed.
func StripComments(text string) string {
	// Block comments: erase from each opener through its matching closer.
	for {
		start := strings.Index(text, "/*")
		if start < 0 {
			break
		}
		end := strings.Index(text[start+2:], "*/")
		if end < 0 {
			break
		}
		text = text[:start] + text[start+2+end+2:]
	}

	// Line comments: erase from each opener up to the next newline. The
	// newline itself stays so line numbering is preserved; an opener on the
	// final unterminated line is left alone.
	for {
		start := strings.Index(text, "//")
		if start < 0 {
			break
		}
		end := strings.Index(text[start:], "\n")
		if end < 0 {
			break
		}
		text = text[:start] + text[start+end:]
	}

	return text
}
