// Package readwise is a client for the Readwise public API (v2).
//
// It covers the books and highlights resources: listing them one page at a
// time, fetching single records by id, creating highlights in batches,
// updating and deleting them.
//
// Authenticate validates a token against the API before handing out a
// client:
//
//	client, err := readwise.Authenticate(ctx, os.Getenv("READWISE_TOKEN"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	books, err := client.ListBooks(ctx, 1)
//
// # Pagination
//
// Every list call returns exactly one page. Use BooksPage or HighlightsPage
// to inspect the envelope's Next cursor and request the following page
// number yourself; the client never follows cursors on its own.
//
// # Errors
//
// Failures are returned as typed errors: *TransportError for network
// problems, *StatusError for non-2xx responses, *DecodeError for bodies that
// do not match the expected shape, *HeaderError for tokens that cannot be
// sent as a header. StatusCode extracts the HTTP status from any of them.
// Nothing is retried
package readwise
