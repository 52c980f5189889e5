package readwise

import (
	"context"
	"fmt"
	"net/http"
)

// BooksPage fetches one page of the user's books together with the
// pagination envelope
func (c *Client) BooksPage(ctx context.Context, page int) (*Page[Book], error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}

	resp, err := c.signedRequest(ctx, http.MethodGet, fmt.Sprintf("/books?page=%d", page), nil)
	if err != nil {
		return nil, err
	}

	var books Page[Book]
	if err := decode(resp, &books); err != nil {
		return nil, err
	}
	return &books, nil
}

// ListBooks returns the books on the given page in server order
func (c *Client) ListBooks(ctx context.Context, page int) ([]Book, error) {
	books, err := c.BooksPage(ctx, page)
	if err != nil {
		return nil, err
	}
	return books.Results, nil
}

// GetBook fetches a single book by id
func (c *Client) GetBook(ctx context.Context, id int64) (*Book, error) {
	resp, err := c.signedRequest(ctx, http.MethodGet, fmt.Sprintf("/books/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var book Book
	if err := decode(resp, &book); err != nil {
		return nil, err
	}
	return &book, nil
}
