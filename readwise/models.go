package readwise

import "time"

// LocationType describes how Highlight.Location should be interpreted
type LocationType string

const (
	LocationTypePage       LocationType = "page"
	LocationTypeOrder      LocationType = "order"
	LocationTypeLocation   LocationType = "location" // Kindle location
	LocationTypeTimeOffset LocationType = "time_offset"
	LocationTypeOffset     LocationType = "offset"
)

// Book is a source document in the user's library
type Book struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Author          *string    `json:"author"`
	Category        string     `json:"category"`
	NumHighlights   int64      `json:"num_highlights"`
	LastHighlightAt *time.Time `json:"last_highlight_at"`
	Updated         time.Time  `json:"updated"`
	CoverImageURL   string     `json:"cover_image_url"`
	HighlightsURL   string     `json:"highlights_url"`
	SourceURL       *string    `json:"source_url"`
}

// Highlight is an excerpt captured from a book
type Highlight struct {
	ID            int64        `json:"id"`
	Text          string       `json:"text"`
	Note          string       `json:"note"`
	Location      int64        `json:"location"`
	LocationType  LocationType `json:"location_type"`
	HighlightedAt *time.Time   `json:"highlighted_at"`
	URL           *string      `json:"url"`
	Color         string       `json:"color"`
	Updated       time.Time    `json:"updated"`
	BookID        *int64       `json:"book_id"`
}

// Page is the envelope returned by list endpoints. Results keep the order
// the server sent them in
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether the server advertised a following page
func (p *Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

// CreatedBook is one element of the response to a highlight creation
// request: the book the highlights landed in plus the ids of the highlights
// that were created or modified
type CreatedBook struct {
	Book
	ModifiedHighlights []int64 `json:"modified_highlights"`
}

// Fields is a loose JSON object used for create and update payloads, for
// example {"text": "hello world!", "title": "Quotes"}
type Fields map[string]any
