package exporters

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/rwclient/internal/entities"
	"github.com/mrlokans/rwclient/internal/utils"
)

const uncategorised = "uncategorised"

// MarkdownExporter writes one markdown file per book into
// <ExportDir>/<category>/<title>.md
type MarkdownExporter struct {
	ExportDir string
	Log       logrus.FieldLogger
	Result    ExportResult
}

func NewMarkdownExporter(exportDir string, log logrus.FieldLogger) *MarkdownExporter {
	if log == nil {
		quiet := logrus.New()
		quiet.Out = io.Discard
		log = quiet
	}
	return &MarkdownExporter{ExportDir: exportDir, Log: log}
}

// Export writes every book. A book that cannot be written is counted in
// BooksFailed and the export carries on.
func (exporter *MarkdownExporter) Export(books []entities.ArchivedBook) (ExportResult, error) {
	exporter.Result = ExportResult{}

	if err := os.MkdirAll(exporter.ExportDir, 0755); err != nil {
		return ExportResult{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	used := make(map[string]bool, len(books))
	for _, book := range books {
		path := exporter.bookPath(book, used)
		if err := writeBook(path, &book); err != nil {
			exporter.Log.WithError(err).WithField("title", book.Title).Warn("Failed to export book")
			exporter.Result.BooksFailed++
			exporter.Result.HighlightsFailed += len(book.Highlights)
			continue
		}
		exporter.Log.WithField("path", path).Debug("Exported book")
		exporter.Result.BooksProcessed++
		exporter.Result.HighlightsProcessed += len(book.Highlights)
	}

	return exporter.Result, nil
}

// bookPath picks a file path, disambiguating books that share a title
func (exporter *MarkdownExporter) bookPath(book entities.ArchivedBook, used map[string]bool) string {
	category := book.Category
	if category == "" {
		category = uncategorised
	}
	dir := filepath.Join(exporter.ExportDir, utils.SanitizeFilename(category))

	name := utils.SanitizeFilename(book.Title)
	path := filepath.Join(dir, name+".md")
	if used[path] {
		path = filepath.Join(dir, fmt.Sprintf("%s (%d).md", name, book.ID))
	}
	used[path] = true
	return path
}

func writeBook(path string, book *entities.ArchivedBook) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create category directory: %w", err)
	}
	return os.WriteFile(path, []byte(GenerateMarkdown(book)), 0644)
}

// GenerateMarkdown renders a book and its highlights as an Obsidian note
func GenerateMarkdown(book *entities.ArchivedBook) string {
	var builder strings.Builder

	category := book.Category
	if category == "" {
		category = uncategorised
	}

	fmt.Fprintf(&builder, "---\n")
	fmt.Fprintf(&builder, "content_source: readwise\n")
	fmt.Fprintf(&builder, "content_type: book_highlights\n")
	fmt.Fprintf(&builder, "created_at: %s\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(&builder, "title: %s\n", quoteYAML(book.Title))
	fmt.Fprintf(&builder, "author: %s\n", quoteYAML(book.Author))
	fmt.Fprintf(&builder, "category: %s\n", category)
	fmt.Fprintf(&builder, "readwise_id: %d\n", book.ID)
	if book.SourceURL != "" {
		fmt.Fprintf(&builder, "source_url: %s\n", quoteYAML(book.SourceURL))
	}
	fmt.Fprintf(&builder, "tags: [highlights, %s]\n", category)
	fmt.Fprintf(&builder, "---\n\n")
	fmt.Fprintf(&builder, "## Highlights\n\n")

	for _, highlight := range book.Highlights {
		callout := utils.ColorToCalloutType(highlight.Color)
		fmt.Fprintf(&builder, "> [!%s] %s\n", callout, highlightHeading(highlight))
		fmt.Fprintf(&builder, "> %s\n", strings.ReplaceAll(highlight.Text, "\n", "\n> "))
		if highlight.Note != "" {
			fmt.Fprintf(&builder, ">\n> **Note:** %s\n", strings.ReplaceAll(highlight.Note, "\n", "\n> "))
		}
		fmt.Fprintf(&builder, "\n")
	}

	return builder.String()
}

func highlightHeading(h entities.ArchivedHighlight) string {
	if h.HighlightedAt != nil && !h.HighlightedAt.IsZero() {
		return h.HighlightedAt.Format("2006-01-02 15:04")
	}
	if h.LocationType != "" && h.Location != 0 {
		return fmt.Sprintf("%s %d", strings.ReplaceAll(h.LocationType, "_", " "), h.Location)
	}
	return "Highlight"
}

func quoteYAML(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
