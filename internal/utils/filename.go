package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxFilenameBytes = 200

var (
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceChars      = regexp.MustCompile(`[\r\n\t]`)
	multipleSpaces       = regexp.MustCompile(`\s+`)
)

// SanitizeFilename turns a book title into a file name that is safe on
// common filesystems and inside Obsidian vaults.
func SanitizeFilename(filename string) string {
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = whitespaceChars.ReplaceAllString(filename, " ")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	filename = strings.ReplaceAll(filename, "#", "")
	filename = strings.ReplaceAll(filename, "[", "(")
	filename = strings.ReplaceAll(filename, "]", ")")
	// leading dots make hidden files
	filename = strings.TrimLeft(filename, ". ")

	if len(filename) > maxFilenameBytes {
		filename = truncateUTF8(filename, maxFilenameBytes)
		filename = strings.TrimSpace(filename)
	}

	if filename == "" {
		filename = "Untitled"
	}

	return filename
}

func truncateUTF8(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
