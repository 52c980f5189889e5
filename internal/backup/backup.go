// Package backup copies the Readwise library into the local archive.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/rwclient/internal/database"
	"github.com/mrlokans/rwclient/internal/entities"
	"github.com/mrlokans/rwclient/readwise"
)

// Source is the part of the Readwise client the backup needs.
type Source interface {
	BooksPage(ctx context.Context, page int) (*readwise.Page[readwise.Book], error)
	HighlightsPage(ctx context.Context, page int) (*readwise.Page[readwise.Highlight], error)
}

// Result summarises a finished backup pass.
type Result struct {
	Books      int
	Highlights int
	Duration   time.Duration
}

type Service struct {
	source Source
	db     *database.Database
	log    logrus.FieldLogger
}

func NewService(source Source, db *database.Database, log logrus.FieldLogger) *Service {
	if log == nil {
		quiet := logrus.New()
		quiet.Out = io.Discard
		log = quiet
	}
	return &Service{source: source, db: db, log: log}
}

// Run walks every page of books and highlights, upserting each page as it
// arrives. The pass is recorded as a BackupRun whatever the outcome.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	run, err := s.db.StartBackupRun()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	s.log.Info("Backup: starting")

	books, err := s.backupBooks(ctx)
	if err != nil {
		return nil, s.fail(run, books, 0, err)
	}
	highlights, err := s.backupHighlights(ctx)
	if err != nil {
		return nil, s.fail(run, books, highlights, err)
	}

	result := &Result{Books: books, Highlights: highlights, Duration: time.Since(start)}
	msg := fmt.Sprintf("Archived %d books with %d highlights in %v",
		books, highlights, result.Duration.Round(time.Millisecond))
	if err := s.db.FinishBackupRun(run, entities.BackupStatusSuccess, books, highlights, msg); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"books":      books,
		"highlights": highlights,
	}).Info("Backup: finished")
	return result, nil
}

func (s *Service) fail(run *entities.BackupRun, books, highlights int, cause error) error {
	s.log.WithError(cause).Error("Backup: failed")
	if err := s.db.FinishBackupRun(run, entities.BackupStatusFailed, books, highlights, cause.Error()); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (s *Service) backupBooks(ctx context.Context) (int, error) {
	total := 0
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		resp, err := s.source.BooksPage(ctx, page)
		if err != nil {
			return total, fmt.Errorf("failed to fetch books page %d: %w", page, err)
		}

		books := make([]entities.ArchivedBook, 0, len(resp.Results))
		for _, b := range resp.Results {
			books = append(books, ConvertBook(b))
		}
		if err := s.db.UpsertBooks(books); err != nil {
			return total, err
		}
		total += len(books)
		s.log.WithFields(logrus.Fields{"page": page, "books": len(books)}).Debug("Backup: books page stored")

		if !resp.HasNext() {
			return total, nil
		}
	}
}

func (s *Service) backupHighlights(ctx context.Context) (int, error) {
	total := 0
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		resp, err := s.source.HighlightsPage(ctx, page)
		if err != nil {
			return total, fmt.Errorf("failed to fetch highlights page %d: %w", page, err)
		}

		highlights := make([]entities.ArchivedHighlight, 0, len(resp.Results))
		for _, h := range resp.Results {
			highlights = append(highlights, ConvertHighlight(h))
		}
		if err := s.db.UpsertHighlights(highlights); err != nil {
			return total, err
		}
		total += len(highlights)
		s.log.WithFields(logrus.Fields{"page": page, "highlights": len(highlights)}).Debug("Backup: highlights page stored")

		if !resp.HasNext() {
			return total, nil
		}
	}
}

// ConvertBook maps an API book onto its archive row
func ConvertBook(b readwise.Book) entities.ArchivedBook {
	return entities.ArchivedBook{
		ID:              b.ID,
		Title:           b.Title,
		Author:          deref(b.Author),
		Category:        b.Category,
		NumHighlights:   b.NumHighlights,
		LastHighlightAt: b.LastHighlightAt,
		SourceUpdatedAt: b.Updated,
		CoverImageURL:   b.CoverImageURL,
		HighlightsURL:   b.HighlightsURL,
		SourceURL:       deref(b.SourceURL),
	}
}

// ConvertHighlight maps an API highlight onto its archive row
func ConvertHighlight(h readwise.Highlight) entities.ArchivedHighlight {
	return entities.ArchivedHighlight{
		ID:              h.ID,
		BookID:          h.BookID,
		Text:            h.Text,
		Note:            h.Note,
		Location:        h.Location,
		LocationType:    string(h.LocationType),
		Color:           h.Color,
		URL:             deref(h.URL),
		HighlightedAt:   h.HighlightedAt,
		SourceUpdatedAt: h.Updated,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
