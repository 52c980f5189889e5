package exporters

import (
	"fmt"

	"github.com/mrlokans/rwclient/internal/database"
)

// ArchiveExporter renders the whole local archive with the markdown exporter
type ArchiveExporter struct {
	db       *database.Database
	exporter BookExporter
}

func NewArchiveExporter(db *database.Database, exporter BookExporter) *ArchiveExporter {
	return &ArchiveExporter{db: db, exporter: exporter}
}

func (a *ArchiveExporter) ExportAll() (ExportResult, error) {
	books, err := a.db.GetBooksWithHighlights()
	if err != nil {
		return ExportResult{}, err
	}
	result, err := a.exporter.Export(books)
	if err != nil {
		return result, fmt.Errorf("failed to export archive: %w", err)
	}
	return result, nil
}
