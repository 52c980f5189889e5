package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/rwclient/internal/entities"
)

// upsertBatchSize keeps each INSERT well below SQLite's variable limit
const upsertBatchSize = 100

var bookColumns = []string{
	"title", "author", "category", "num_highlights", "last_highlight_at",
	"source_updated_at", "cover_image_url", "highlights_url", "source_url", "updated_at",
}

var highlightColumns = []string{
	"book_id", "text", "note", "location", "location_type", "color", "url",
	"highlighted_at", "source_updated_at", "updated_at",
}

// UpsertBooks inserts books or refreshes the stored copy when the id exists
func (d *Database) UpsertBooks(books []entities.ArchivedBook) error {
	if len(books) == 0 {
		return nil
	}
	err := d.DB.Omit("Highlights").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(bookColumns),
	}).CreateInBatches(books, upsertBatchSize).Error
	if err != nil {
		return fmt.Errorf("failed to upsert books: %w", err)
	}
	return nil
}

// UpsertHighlights inserts highlights or refreshes the stored copy when the id exists
func (d *Database) UpsertHighlights(highlights []entities.ArchivedHighlight) error {
	if len(highlights) == 0 {
		return nil
	}
	err := d.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(highlightColumns),
	}).CreateInBatches(highlights, upsertBatchSize).Error
	if err != nil {
		return fmt.Errorf("failed to upsert highlights: %w", err)
	}
	return nil
}

// GetBooksWithHighlights returns every archived book ordered by title, with
// highlights ordered by location
func (d *Database) GetBooksWithHighlights() ([]entities.ArchivedBook, error) {
	var books []entities.ArchivedBook
	err := d.DB.Preload("Highlights", func(db *gorm.DB) *gorm.DB {
		return db.Order("location ASC, id ASC")
	}).Order("title ASC, id ASC").Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load books: %w", err)
	}
	return books, nil
}

func (d *Database) GetBookByID(id int64) (*entities.ArchivedBook, error) {
	var book entities.ArchivedBook
	err := d.DB.Preload("Highlights", func(db *gorm.DB) *gorm.DB {
		return db.Order("location ASC, id ASC")
	}).First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (d *Database) CountBooks() (int64, error) {
	var count int64
	err := d.DB.Model(&entities.ArchivedBook{}).Count(&count).Error
	return count, err
}

func (d *Database) CountHighlights() (int64, error) {
	var count int64
	err := d.DB.Model(&entities.ArchivedHighlight{}).Count(&count).Error
	return count, err
}

// StartBackupRun records the beginning of a backup pass
func (d *Database) StartBackupRun() (*entities.BackupRun, error) {
	run := &entities.BackupRun{
		StartedAt: time.Now(),
		Status:    entities.BackupStatusRunning,
	}
	if err := d.DB.Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to record backup run: %w", err)
	}
	return run, nil
}

// FinishBackupRun stores the outcome of a backup pass
func (d *Database) FinishBackupRun(run *entities.BackupRun, status entities.BackupStatus, books, highlights int, message string) error {
	now := time.Now()
	run.FinishedAt = &now
	run.Status = status
	run.BooksSynced = books
	run.HighlightsSynced = highlights
	run.Message = message

	if err := d.DB.Save(run).Error; err != nil {
		return fmt.Errorf("failed to update backup run: %w", err)
	}
	return nil
}

// LastBackupRun returns the most recent backup run, or nil if none exists
func (d *Database) LastBackupRun() (*entities.BackupRun, error) {
	var run entities.BackupRun
	err := d.DB.Order("started_at DESC, id DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last backup run: %w", err)
	}
	return &run, nil
}
