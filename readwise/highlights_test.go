package readwise

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestLog records "METHOD path" for every request a handler sees.
type requestLog struct {
	mu       sync.Mutex
	requests []string
}

func (l *requestLog) add(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, r.Method+" "+r.URL.Path)
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.requests...)
}

func TestClient_ListHighlights(t *testing.T) {
	highlights := []Highlight{
		{ID: 9, Text: "last", LocationType: LocationTypePage, Location: 12},
		{ID: 1, Text: "first", LocationType: LocationTypeOrder, Color: "yellow"},
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/highlights", r.URL.Path)
		assert.Equal(t, "4", r.URL.Query().Get("page"))
		_ = json.NewEncoder(w).Encode(Page[Highlight]{Count: 2, Results: highlights})
	})

	got, err := client.ListHighlights(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, highlights, got)
}

func TestClient_HighlightsPageLastPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count": 0, "next": null, "previous": null, "results": []}`))
	})

	page, err := client.HighlightsPage(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, page.HasNext())
	assert.Empty(t, page.Results)
}

func TestClient_GetHighlight(t *testing.T) {
	t.Run("default record round-trips", func(t *testing.T) {
		payload, err := json.Marshal(Highlight{})
		require.NoError(t, err)

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v2/highlights/1", r.URL.Path)
			_, _ = w.Write(payload)
		})

		highlight, err := client.GetHighlight(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, Highlight{}, *highlight)
	})

	t.Run("decodes book reference", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{
				"id": 59758950,
				"text": "The fox jumped over the dog.",
				"note": "I enjoy foxes.",
				"location": 1,
				"location_type": "order",
				"highlighted_at": null,
				"url": null,
				"color": "",
				"updated": "2020-10-01T17:47:31.234826Z",
				"book_id": 5196071
			}`))
		})

		highlight, err := client.GetHighlight(context.Background(), 59758950)
		require.NoError(t, err)
		assert.Equal(t, "I enjoy foxes.", highlight.Note)
		assert.Equal(t, LocationTypeOrder, highlight.LocationType)
		assert.Nil(t, highlight.HighlightedAt)
		require.NotNil(t, highlight.BookID)
		assert.Equal(t, int64(5196071), *highlight.BookID)
	})
}

func createdBooksJSON(ids ...[]int64) string {
	created := make([]CreatedBook, 0, len(ids))
	for i, group := range ids {
		created = append(created, CreatedBook{
			Book:               Book{ID: int64(i + 1), Title: "Quotes", Category: "books"},
			ModifiedHighlights: group,
		})
	}
	data, _ := json.Marshal(created)
	return string(data)
}

func TestClient_CreateHighlights(t *testing.T) {
	t.Run("no modified highlights means no follow-up requests", func(t *testing.T) {
		var log requestLog
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			log.add(r)
			data, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"highlights": [{"text": "hello world!"}]}`, string(data))
			_, _ = w.Write([]byte(createdBooksJSON([]int64{})))
		})

		highlights, err := client.CreateHighlights(context.Background(), []Fields{{"text": "hello world!"}})
		require.NoError(t, err)
		assert.NotNil(t, highlights)
		assert.Empty(t, highlights)
		assert.Equal(t, []string{"POST /api/v2/highlights"}, log.all())
	})

	t.Run("fetches every modified highlight in order", func(t *testing.T) {
		var log requestLog
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			log.add(r)
			if r.Method == http.MethodPost {
				_, _ = w.Write([]byte(createdBooksJSON([]int64{1, 2})))
				return
			}
			var id int64
			_, _ = fmt.Sscanf(r.URL.Path, "/api/v2/highlights/%d", &id)
			_ = json.NewEncoder(w).Encode(Highlight{ID: id, Text: fmt.Sprintf("highlight %d", id)})
		})

		highlights, err := client.CreateHighlights(context.Background(), []Fields{{"text": "hello world!"}})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"POST /api/v2/highlights",
			"GET /api/v2/highlights/1",
			"GET /api/v2/highlights/2",
		}, log.all())
		require.Len(t, highlights, 2)
		assert.Equal(t, int64(1), highlights[0].ID)
		assert.Equal(t, int64(2), highlights[1].ID)
	})

	t.Run("flattens ids across books in encounter order", func(t *testing.T) {
		var log requestLog
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			log.add(r)
			if r.Method == http.MethodPost {
				_, _ = w.Write([]byte(createdBooksJSON([]int64{30}, []int64{}, []int64{10, 20})))
				return
			}
			var id int64
			_, _ = fmt.Sscanf(r.URL.Path, "/api/v2/highlights/%d", &id)
			_ = json.NewEncoder(w).Encode(Highlight{ID: id})
		})

		highlights, err := client.CreateHighlights(context.Background(), []Fields{{"text": "a"}, {"text": "b", "title": "Other"}})
		require.NoError(t, err)
		ids := make([]int64, 0, len(highlights))
		for _, h := range highlights {
			ids = append(ids, h.ID)
		}
		assert.Equal(t, []int64{30, 10, 20}, ids)
		assert.Len(t, log.all(), 4)
	})

	t.Run("empty input still sends a highlights list", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"highlights": []}`, string(data))
			_, _ = w.Write([]byte(`[]`))
		})

		highlights, err := client.CreateHighlights(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, highlights)
	})

	t.Run("failed follow-up discards everything", func(t *testing.T) {
		var log requestLog
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			log.add(r)
			switch r.URL.Path {
			case "/api/v2/highlights":
				_, _ = w.Write([]byte(createdBooksJSON([]int64{1, 2, 3})))
			case "/api/v2/highlights/2":
				w.WriteHeader(http.StatusNotFound)
			default:
				_ = json.NewEncoder(w).Encode(Highlight{ID: 1})
			}
		})

		highlights, err := client.CreateHighlights(context.Background(), []Fields{{"text": "x"}})
		require.Error(t, err)
		assert.Nil(t, highlights)

		code, ok := StatusCode(err)
		assert.True(t, ok)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, []string{
			"POST /api/v2/highlights",
			"GET /api/v2/highlights/1",
			"GET /api/v2/highlights/2",
		}, log.all())
	})

	t.Run("unexpected response shape", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id": 1}`))
		})

		_, err := client.CreateHighlights(context.Background(), []Fields{{"text": "x"}})
		var decodeErr *DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})
}

func TestClient_UpdateHighlight(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v2/highlights/138105649", r.URL.Path)

		data, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"text": "hello, world!"}`, string(data))

		_ = json.NewEncoder(w).Encode(Highlight{ID: 138105649, Text: "hello, world!"})
	})

	highlight, err := client.UpdateHighlight(context.Background(), 138105649, Fields{"text": "hello, world!"})
	require.NoError(t, err)
	assert.Equal(t, int64(138105649), highlight.ID)
	assert.Equal(t, "hello, world!", highlight.Text)
}

func TestClient_UpdateHighlightEmptyFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{}`, string(data))
		_ = json.NewEncoder(w).Encode(Highlight{})
	})

	_, err := client.UpdateHighlight(context.Background(), 0, nil)
	require.NoError(t, err)
}

func TestClient_DeleteHighlight(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{name: "ok", statusCode: http.StatusOK},
		{name: "no content", statusCode: http.StatusNoContent},
		{name: "not found", statusCode: http.StatusNotFound, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/api/v2/highlights/136887156", r.URL.Path)
				w.WriteHeader(tt.statusCode)
			})

			err := client.DeleteHighlight(context.Background(), 136887156)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.statusCode, statusErr.StatusCode)
		})
	}
}
