package readwise

import (
	"context"
	"fmt"
	"net/http"
)

// HighlightsPage fetches one page of highlights together with the
// pagination envelope
func (c *Client) HighlightsPage(ctx context.Context, page int) (*Page[Highlight], error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}

	resp, err := c.signedRequest(ctx, http.MethodGet, fmt.Sprintf("/highlights?page=%d", page), nil)
	if err != nil {
		return nil, err
	}

	var highlights Page[Highlight]
	if err := decode(resp, &highlights); err != nil {
		return nil, err
	}
	return &highlights, nil
}

// ListHighlights returns the highlights on the given page in server order
func (c *Client) ListHighlights(ctx context.Context, page int) ([]Highlight, error) {
	highlights, err := c.HighlightsPage(ctx, page)
	if err != nil {
		return nil, err
	}
	return highlights.Results, nil
}

// GetHighlight fetches a single highlight by id
func (c *Client) GetHighlight(ctx context.Context, id int64) (*Highlight, error) {
	resp, err := c.signedRequest(ctx, http.MethodGet, fmt.Sprintf("/highlights/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var highlight Highlight
	if err := decode(resp, &highlight); err != nil {
		return nil, err
	}
	return &highlight, nil
}

// CreateHighlights submits items in one batch and returns the full records
// of every highlight the server reports as created or modified.
//
// The API only answers with highlight ids grouped by book, so each id is
// fetched individually, in the order the server listed them. The first
// failed fetch aborts the call and nothing is returned
func (c *Client) CreateHighlights(ctx context.Context, items []Fields) ([]Highlight, error) {
	if items == nil {
		items = []Fields{}
	}

	resp, err := c.signedRequest(ctx, http.MethodPost, "/highlights", &requestBody{Highlights: items})
	if err != nil {
		return nil, err
	}

	var created []CreatedBook
	if err := decode(resp, &created); err != nil {
		return nil, err
	}

	var ids []int64
	for _, book := range created {
		ids = append(ids, book.ModifiedHighlights...)
	}

	highlights := make([]Highlight, 0, len(ids))
	for _, id := range ids {
		highlight, err := c.GetHighlight(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch created highlight %d: %w", id, err)
		}
		highlights = append(highlights, *highlight)
	}

	return highlights, nil
}

// UpdateHighlight changes the given fields of a highlight and returns the
// updated record
func (c *Client) UpdateHighlight(ctx context.Context, id int64, fields Fields) (*Highlight, error) {
	body := &requestBody{Body: []Fields{fields}}

	resp, err := c.signedRequest(ctx, http.MethodPatch, fmt.Sprintf("/highlights/%d", id), body)
	if err != nil {
		return nil, err
	}

	var highlight Highlight
	if err := decode(resp, &highlight); err != nil {
		return nil, err
	}
	return &highlight, nil
}

// DeleteHighlight removes a highlight. Only the status of the response
// matters; its body is ignored
func (c *Client) DeleteHighlight(ctx context.Context, id int64) error {
	resp, err := c.signedRequest(ctx, http.MethodDelete, fmt.Sprintf("/highlights/%d", id), nil)
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}
