package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "removes invalid characters",
			input:    `file<>:"/\|?*name`,
			expected: "filename",
		},
		{
			name:     "replaces newlines and tabs with spaces",
			input:    "file\nname\twith\rspaces",
			expected: "file name with spaces",
		},
		{
			name:     "collapses multiple spaces",
			input:    "file   name  with    spaces",
			expected: "file name with spaces",
		},
		{
			name:     "removes hashtags",
			input:    "#hashtag #title",
			expected: "hashtag title",
		},
		{
			name:     "replaces square brackets",
			input:    "title [subtitle]",
			expected: "title (subtitle)",
		},
		{
			name:     "trims whitespace",
			input:    "  filename  ",
			expected: "filename",
		},
		{
			name:     "returns Untitled for empty",
			input:    "",
			expected: "Untitled",
		},
		{
			name:     "returns Untitled for only special chars",
			input:    "<>:?*",
			expected: "Untitled",
		},
		{
			name:     "truncates long names",
			input:    strings.Repeat("a", 250),
			expected: strings.Repeat("a", 200),
		},
		{
			name:     "handles unicode",
			input:    "Pamiętnik znaleziony w wannie",
			expected: "Pamiętnik znaleziony w wannie",
		},
		{
			name:     "complex case",
			input:    `Book: "The Title" [Vol. 1] #Series`,
			expected: "Book The Title (Vol. 1) Series",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeFilename(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSanitizeFilenameHiddenFiles(t *testing.T) {
	assert.Equal(t, "profile", SanitizeFilename(".profile"))
	assert.Equal(t, "Untitled", SanitizeFilename(".."))
}

func TestSanitizeFilenameTruncatesOnRuneBoundary(t *testing.T) {
	input := "a" + strings.Repeat("ę", 150)

	result := SanitizeFilename(input)

	assert.True(t, utf8.ValidString(result))
	assert.Equal(t, "a"+strings.Repeat("ę", 99), result)
}
