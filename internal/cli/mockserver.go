package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/rwclient/internal/config"
	"github.com/mrlokans/rwclient/internal/mockserver"
	"github.com/mrlokans/rwclient/readwise"
)

// MockServerCommand runs a local fake of the Readwise API
type MockServerCommand struct {
	base
	Host     string
	Port     int
	Token    string
	PageSize int
	Seed     bool
}

func NewMockServerCommand(cfg *config.Config) *MockServerCommand {
	return &MockServerCommand{base: newBase(cfg)}
}

func (cmd *MockServerCommand) ParseFlags(args []string) error {
	fs := cmd.newFlagSet("mock-server", "Serve an in-memory Readwise v2 API for local testing.",
		"mock-server -port 8189 -token dev -seed",
		"books -base-url http://127.0.0.1:8189 -token dev",
	)
	fs.StringVar(&cmd.Host, "host", cmd.Config.MockServer.Host, "Listen host")
	fs.IntVar(&cmd.Port, "port", cmd.Config.MockServer.Port, "Listen port")
	fs.StringVar(&cmd.Token, "token", cmd.Config.MockServer.Token, "Accepted token (empty accepts any)")
	fs.IntVar(&cmd.PageSize, "page-size", mockserver.DefaultPageSize, "Results per page")
	fs.BoolVar(&cmd.Seed, "seed", false, "Start with a few sample books and highlights")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Port <= 0 || cmd.Port > 65535 {
		return fmt.Errorf("invalid port %d", cmd.Port)
	}
	return nil
}

// Server builds the configured mock server without starting it
func (cmd *MockServerCommand) Server() *mockserver.Server {
	srv := mockserver.New(cmd.Token, cmd.logger())
	srv.PageSize = cmd.PageSize
	if cmd.Seed {
		seed(srv.Store)
	}
	return srv
}

func (cmd *MockServerCommand) Run() error {
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(cmd.Host, strconv.Itoa(cmd.Port))
	fmt.Fprintf(cmd.Out, "Mock Readwise API at http://%s/api/v2\n", addr)
	return cmd.Server().Run(ctx, addr)
}

func seed(store *mockserver.Store) {
	author := "Frank Herbert"
	dune := store.AddBook(readwise.Book{Title: "Dune", Author: &author, Category: "books"})
	store.AddHighlight(readwise.Highlight{
		Text:         "I must not fear. Fear is the mind-killer.",
		Location:     12,
		LocationType: readwise.LocationTypePage,
		BookID:       &dune.ID,
		Color:        "yellow",
	})
	store.AddHighlight(readwise.Highlight{
		Text:         "The mystery of life isn't a problem to solve, but a reality to experience.",
		Note:         "Reverend Mother",
		Location:     87,
		LocationType: readwise.LocationTypePage,
		BookID:       &dune.ID,
		Color:        "blue",
	})

	quotes := store.AddBook(readwise.Book{Title: "Quotes", Category: "books"})
	store.AddHighlight(readwise.Highlight{Text: "hello world!", BookID: &quotes.ID})
}
