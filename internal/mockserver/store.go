package mockserver

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mrlokans/rwclient/readwise"
)

const (
	defaultTitle        = "Quotes"
	defaultCategory     = "books"
	defaultLocationType = readwise.LocationTypeOrder
)

var (
	ErrNotFound     = errors.New("not found")
	ErrMissingText  = errors.New("text is required")
	ErrInvalidField = errors.New("invalid field")
)

// Store is an in-memory library of books and highlights
type Store struct {
	mu         sync.RWMutex
	books      map[int64]*readwise.Book
	highlights map[int64]*readwise.Highlight
	nextBookID int64
	nextHlID   int64
	now        func() time.Time
}

func NewStore() *Store {
	return &Store{
		books:      make(map[int64]*readwise.Book),
		highlights: make(map[int64]*readwise.Highlight),
		nextBookID: 1,
		nextHlID:   1,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// AddBook stores a book, assigning an id when it has none
func (s *Store) AddBook(book readwise.Book) readwise.Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	if book.ID == 0 {
		book.ID = s.nextBookID
	}
	if book.ID >= s.nextBookID {
		s.nextBookID = book.ID + 1
	}
	if book.Updated.IsZero() {
		book.Updated = s.now()
	}
	if book.Category == "" {
		book.Category = defaultCategory
	}
	s.books[book.ID] = &book
	return book
}

// AddHighlight stores a highlight, assigning an id when it has none
func (s *Store) AddHighlight(h readwise.Highlight) readwise.Highlight {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == 0 {
		h.ID = s.nextHlID
	}
	if h.ID >= s.nextHlID {
		s.nextHlID = h.ID + 1
	}
	if h.Updated.IsZero() {
		h.Updated = s.now()
	}
	if h.LocationType == "" {
		h.LocationType = defaultLocationType
	}
	s.highlights[h.ID] = &h
	if h.BookID != nil {
		s.touchBook(*h.BookID, h.HighlightedAt)
	}
	return h
}

// Books returns one page of books ordered by id, plus the total count
func (s *Store) Books(page, size int) ([]readwise.Book, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]readwise.Book, 0, len(s.books))
	for _, b := range s.books {
		all = append(all, *b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, page, size)
}

// Highlights returns one page of highlights ordered by id, optionally
// restricted to one book
func (s *Store) Highlights(page, size int, bookID *int64) ([]readwise.Highlight, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]readwise.Highlight, 0, len(s.highlights))
	for _, h := range s.highlights {
		if bookID != nil && (h.BookID == nil || *h.BookID != *bookID) {
			continue
		}
		all = append(all, *h)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, page, size)
}

func (s *Store) Counts() (books, highlights int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books), len(s.highlights)
}

func (s *Store) Book(id int64) (readwise.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return readwise.Book{}, ErrNotFound
	}
	return *b, nil
}

func (s *Store) Highlight(id int64) (readwise.Highlight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.highlights[id]
	if !ok {
		return readwise.Highlight{}, ErrNotFound
	}
	return *h, nil
}

// Create files each item under the book matching its title and author,
// creating books as needed. An item whose text already exists in its book
// updates that highlight instead of adding a duplicate. The result lists
// each touched book in first-seen order.
func (s *Store) Create(items []readwise.Fields) ([]readwise.CreatedBook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range items {
		if text, _ := item["text"].(string); strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("highlight %d: %w", i, ErrMissingText)
		}
		if err := applyFields(&readwise.Highlight{}, item); err != nil {
			return nil, fmt.Errorf("highlight %d: %w", i, err)
		}
	}

	var order []int64
	modified := make(map[int64][]int64)

	for _, item := range items {
		book := s.findOrCreateBook(item)
		text := item["text"].(string)

		h := s.findHighlight(book.ID, text)
		if h == nil {
			bookID := book.ID
			h = &readwise.Highlight{
				ID:           s.nextHlID,
				Text:         text,
				LocationType: defaultLocationType,
				BookID:       &bookID,
			}
			s.nextHlID++
			s.highlights[h.ID] = h
			book.NumHighlights++
		}
		if err := applyFields(h, item); err != nil {
			return nil, err
		}
		h.Updated = s.now()
		s.touchBook(book.ID, h.HighlightedAt)

		ids, seen := modified[book.ID]
		if !seen {
			order = append(order, book.ID)
		}
		if !slices.Contains(ids, h.ID) {
			modified[book.ID] = append(ids, h.ID)
		}
	}

	created := make([]readwise.CreatedBook, 0, len(order))
	for _, id := range order {
		created = append(created, readwise.CreatedBook{
			Book:               *s.books[id],
			ModifiedHighlights: modified[id],
		})
	}
	return created, nil
}

// Update applies fields to a highlight
func (s *Store) Update(id int64, fields readwise.Fields) (readwise.Highlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.highlights[id]
	if !ok {
		return readwise.Highlight{}, ErrNotFound
	}
	updated := *h
	if err := applyFields(&updated, fields); err != nil {
		return readwise.Highlight{}, err
	}
	updated.Updated = s.now()
	*h = updated
	return updated, nil
}

func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.highlights[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.highlights, id)
	if h.BookID != nil {
		if b, ok := s.books[*h.BookID]; ok && b.NumHighlights > 0 {
			b.NumHighlights--
		}
	}
	return nil
}

func (s *Store) findOrCreateBook(item readwise.Fields) *readwise.Book {
	title, _ := item["title"].(string)
	if title == "" {
		title = defaultTitle
	}
	author, _ := item["author"].(string)

	for _, b := range s.books {
		bookAuthor := ""
		if b.Author != nil {
			bookAuthor = *b.Author
		}
		if b.Title == title && bookAuthor == author {
			return b
		}
	}

	book := &readwise.Book{
		ID:       s.nextBookID,
		Title:    title,
		Category: defaultCategory,
		Updated:  s.now(),
	}
	if author != "" {
		book.Author = &author
	}
	if category, _ := item["category"].(string); category != "" {
		book.Category = category
	}
	if sourceURL, _ := item["source_url"].(string); sourceURL != "" {
		book.SourceURL = &sourceURL
	}
	if cover, _ := item["image_url"].(string); cover != "" {
		book.CoverImageURL = cover
	}
	s.nextBookID++
	s.books[book.ID] = book
	return book
}

func (s *Store) findHighlight(bookID int64, text string) *readwise.Highlight {
	for _, h := range s.highlights {
		if h.BookID != nil && *h.BookID == bookID && h.Text == text {
			return h
		}
	}
	return nil
}

func (s *Store) touchBook(id int64, highlightedAt *time.Time) {
	b, ok := s.books[id]
	if !ok {
		return
	}
	b.Updated = s.now()
	at := highlightedAt
	if at == nil {
		now := s.now()
		at = &now
	}
	if b.LastHighlightAt == nil || at.After(*b.LastHighlightAt) {
		t := *at
		b.LastHighlightAt = &t
	}
}

// applyFields copies the writable highlight fields present in fields
func applyFields(h *readwise.Highlight, fields readwise.Fields) error {
	for key, value := range fields {
		switch key {
		case "text", "note", "color":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: %s must be a string", ErrInvalidField, key)
			}
			switch key {
			case "text":
				h.Text = v
			case "note":
				h.Note = v
			case "color":
				h.Color = v
			}
		case "location":
			v, ok := value.(float64)
			if !ok {
				return fmt.Errorf("%w: location must be a number", ErrInvalidField)
			}
			h.Location = int64(v)
		case "location_type":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: location_type must be a string", ErrInvalidField)
			}
			h.LocationType = readwise.LocationType(v)
		case "highlight_url", "url":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: %s must be a string", ErrInvalidField, key)
			}
			h.URL = &v
		case "highlighted_at":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: highlighted_at must be a string", ErrInvalidField)
			}
			at, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return fmt.Errorf("%w: highlighted_at: %v", ErrInvalidField, err)
			}
			h.HighlightedAt = &at
		}
	}
	return nil
}

// paginate slices one page out of items. Page 1 always exists; later pages
// must start inside the list.
func paginate[T any](items []T, page, size int) ([]T, int, error) {
	total := len(items)
	if page < 1 || (page > 1 && page-1 > (total-1)/size) {
		return nil, total, ErrNotFound
	}
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	return items[start:end], total, nil
}
