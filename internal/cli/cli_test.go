package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/rwclient/internal/config"
	"github.com/mrlokans/rwclient/internal/crypto"
	"github.com/mrlokans/rwclient/internal/mockserver"
	"github.com/mrlokans/rwclient/readwise"
)

const testToken = "cli-test-token"

type testEnv struct {
	cfg    *config.Config
	server *mockserver.Server
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := mockserver.New(testToken, nil)
	seed(server.Store)
	srv := httptest.NewServer(server.NewRouter())
	t.Cleanup(srv.Close)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	dir := t.TempDir()
	cfg := &config.Config{
		Readwise:   config.Readwise{BaseURL: srv.URL, Timeout: 5 * time.Second},
		Database:   config.Database{Path: filepath.Join(dir, "archive.db")},
		TokenStore: config.TokenStore{Path: filepath.Join(dir, "token.db"), EncryptionKey: key},
		Backup:     config.Backup{Schedule: "0 */6 * * *"},
		Export:     config.Export{Dir: filepath.Join(dir, "markdown")},
		Log:        config.Log{Level: "error"},
	}
	return &testEnv{cfg: cfg, server: server}
}

type command interface {
	ParseFlags(args []string) error
	Run() error
}

// run parses args into cmd and runs it, returning stdout
func run(t *testing.T, cmd command, b *base, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	b.Out, b.ErrOut = &out, &errOut
	if err := cmd.ParseFlags(args); err != nil {
		return out.String(), err
	}
	err := cmd.Run()
	return out.String(), err
}

func TestLoginLogout(t *testing.T) {
	env := setupEnv(t)

	t.Run("rejected token is not saved", func(t *testing.T) {
		cmd := NewLoginCommand(env.cfg)
		_, err := run(t, cmd, &cmd.base, "-token", "wrong")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rejected")

		books := NewBooksCommand(env.cfg)
		_, err = run(t, books, &books.base)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no Readwise token")
	})

	t.Run("token from stdin is saved and used", func(t *testing.T) {
		cmd := NewLoginCommand(env.cfg)
		cmd.In = strings.NewReader(testToken + "\n")
		out, err := run(t, cmd, &cmd.base)
		require.NoError(t, err)
		assert.Contains(t, out, "Token validated and saved.")

		books := NewBooksCommand(env.cfg)
		out, err = run(t, books, &books.base)
		require.NoError(t, err)
		assert.Contains(t, out, "Dune")
	})

	t.Run("logout removes the token", func(t *testing.T) {
		cmd := NewLogoutCommand(env.cfg)
		_, err := run(t, cmd, &cmd.base)
		require.NoError(t, err)

		books := NewBooksCommand(env.cfg)
		_, err = run(t, books, &books.base)
		assert.Error(t, err)
	})
}

func TestTokenResolutionPrefersFlag(t *testing.T) {
	env := setupEnv(t)
	env.cfg.Readwise.Token = "stale-config-token"

	cmd := NewBooksCommand(env.cfg)
	_, err := run(t, cmd, &cmd.base)
	code, ok := readwise.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, 401, code)

	cmd = NewBooksCommand(env.cfg)
	_, err = run(t, cmd, &cmd.base, "-token", testToken)
	assert.NoError(t, err)
}

func TestBooksAndHighlights(t *testing.T) {
	env := setupEnv(t)
	env.cfg.Readwise.Token = testToken

	t.Run("books table", func(t *testing.T) {
		cmd := NewBooksCommand(env.cfg)
		out, err := run(t, cmd, &cmd.base)
		require.NoError(t, err)
		assert.Contains(t, out, "TITLE")
		assert.Contains(t, out, "Frank Herbert")
		assert.Contains(t, out, "Page 1, 2 total.")
	})

	t.Run("books json", func(t *testing.T) {
		cmd := NewBooksCommand(env.cfg)
		out, err := run(t, cmd, &cmd.base, "-json")
		require.NoError(t, err)
		var page readwise.Page[readwise.Book]
		require.NoError(t, json.Unmarshal([]byte(out), &page))
		assert.Len(t, page.Results, 2)
	})

	t.Run("page beyond the end", func(t *testing.T) {
		cmd := NewBooksCommand(env.cfg)
		_, err := run(t, cmd, &cmd.base, "-page", "9")
		code, ok := readwise.StatusCode(err)
		require.True(t, ok)
		assert.Equal(t, 404, code)
	})

	t.Run("invalid page", func(t *testing.T) {
		cmd := NewHighlightsCommand(env.cfg)
		_, err := run(t, cmd, &cmd.base, "-page", "0")
		assert.ErrorIs(t, err, readwise.ErrInvalidPage)
	})

	t.Run("highlights and single highlight", func(t *testing.T) {
		cmd := NewHighlightsCommand(env.cfg)
		out, err := run(t, cmd, &cmd.base)
		require.NoError(t, err)
		assert.Contains(t, out, "I must not fear")

		one := NewHighlightCommand(env.cfg)
		out, err = run(t, one, &one.base, "-id", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "Note: Reverend Mother")
	})

	t.Run("book requires id", func(t *testing.T) {
		cmd := NewBookCommand(env.cfg)
		_, err := run(t, cmd, &cmd.base)
		assert.Error(t, err)

		cmd = NewBookCommand(env.cfg)
		out, err := run(t, cmd, &cmd.base, "-id", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Dune")
	})
}

func TestCreateUpdateDelete(t *testing.T) {
	env := setupEnv(t)
	env.cfg.Readwise.Token = testToken

	create := NewCreateCommand(env.cfg)
	out, err := run(t, create, &create.base, "-text", "hello, world!", "-title", "Greetings", "-json")
	require.NoError(t, err)
	var created []readwise.Highlight
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.Len(t, created, 1)
	id := created[0].ID

	t.Run("create from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "highlights.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"text":"a"},{"text":"b","title":"Other"}]`), 0644))

		cmd := NewCreateCommand(env.cfg)
		out, err := run(t, cmd, &cmd.base, "-file", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Created or updated 2 highlight(s)")
	})

	t.Run("create needs text or file", func(t *testing.T) {
		cmd := NewCreateCommand(env.cfg)
		_, err := run(t, cmd, &cmd.base)
		assert.Error(t, err)
	})

	t.Run("update sends only given fields", func(t *testing.T) {
		cmd := NewUpdateCommand(env.cfg)
		_, err := run(t, cmd, &cmd.base, "-id", itoa(id), "-note", "revisit")
		require.NoError(t, err)

		h, err := env.server.Store.Highlight(id)
		require.NoError(t, err)
		assert.Equal(t, "hello, world!", h.Text)
		assert.Equal(t, "revisit", h.Note)
	})

	t.Run("update without fields fails", func(t *testing.T) {
		cmd := NewUpdateCommand(env.cfg)
		_, err := run(t, cmd, &cmd.base, "-id", itoa(id))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nothing to update")
	})

	t.Run("update rejects non-object fields", func(t *testing.T) {
		cmd := NewUpdateCommand(env.cfg)
		_, err := run(t, cmd, &cmd.base, "-id", itoa(id), "-fields", "null", "-text", "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected a JSON object")
	})

	t.Run("delete", func(t *testing.T) {
		cmd := NewDeleteCommand(env.cfg)
		out, err := run(t, cmd, &cmd.base, "-id", itoa(id))
		require.NoError(t, err)
		assert.Contains(t, out, "Deleted highlight")

		_, err = env.server.Store.Highlight(id)
		assert.ErrorIs(t, err, mockserver.ErrNotFound)
	})
}

func TestBackupAndExport(t *testing.T) {
	env := setupEnv(t)
	env.cfg.Readwise.Token = testToken

	backup := NewBackupCommand(env.cfg)
	out, err := run(t, backup, &backup.base)
	require.NoError(t, err)
	assert.Contains(t, out, "Archived 2 books and 3 highlights")

	export := NewExportCommand(env.cfg)
	out, err = run(t, export, &export.base)
	require.NoError(t, err)
	assert.Contains(t, out, "Books exported: 2")

	content, err := os.ReadFile(filepath.Join(env.cfg.Export.Dir, "books", "Dune.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "I must not fear")
}

func TestBackupRejectsBadSchedule(t *testing.T) {
	env := setupEnv(t)
	cmd := NewBackupCommand(env.cfg)
	err := cmd.ParseFlags([]string{"-daemon", "-schedule", "whenever"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule")
}

func TestMockServerCommandFlags(t *testing.T) {
	env := setupEnv(t)
	cmd := NewMockServerCommand(env.cfg)
	cmd.ErrOut = &bytes.Buffer{}

	require.Error(t, cmd.ParseFlags([]string{"-port", "0"}))
	require.NoError(t, cmd.ParseFlags([]string{"-port", "9000", "-token", "dev", "-seed", "-page-size", "1"}))

	srv := cmd.Server()
	assert.Equal(t, "dev", srv.Token)
	assert.Equal(t, 1, srv.PageSize)
	_, total, err := srv.Store.Books(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b", truncate("a\n  b", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
