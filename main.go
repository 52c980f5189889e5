package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/rwclient/internal/cli"
	"github.com/mrlokans/rwclient/internal/config"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	name := os.Args[1]
	args := os.Args[2:]
	cfg := config.NewConfig()

	var cmd command
	switch name {
	case "login":
		cmd = cli.NewLoginCommand(cfg)
	case "logout":
		cmd = cli.NewLogoutCommand(cfg)
	case "books":
		cmd = cli.NewBooksCommand(cfg)
	case "book":
		cmd = cli.NewBookCommand(cfg)
	case "highlights":
		cmd = cli.NewHighlightsCommand(cfg)
	case "highlight":
		cmd = cli.NewHighlightCommand(cfg)
	case "create":
		cmd = cli.NewCreateCommand(cfg)
	case "update":
		cmd = cli.NewUpdateCommand(cfg)
	case "delete":
		cmd = cli.NewDeleteCommand(cfg)
	case "backup":
		cmd = cli.NewBackupCommand(cfg)
	case "export":
		cmd = cli.NewExportCommand(cfg)
	case "mock-server":
		cmd = cli.NewMockServerCommand(cfg)

	case "version":
		fmt.Printf("rwclient %s (%s)\n", Version, Commit)
		return

	case "help", "-h", "--help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  login         Validate a Readwise token and save it encrypted\n")
	fmt.Fprintf(os.Stderr, "  logout        Remove the saved token\n")
	fmt.Fprintf(os.Stderr, "  books         List books, one page at a time\n")
	fmt.Fprintf(os.Stderr, "  book          Show one book\n")
	fmt.Fprintf(os.Stderr, "  highlights    List highlights, one page at a time\n")
	fmt.Fprintf(os.Stderr, "  highlight     Show one highlight\n")
	fmt.Fprintf(os.Stderr, "  create        Create highlights\n")
	fmt.Fprintf(os.Stderr, "  update        Update a highlight\n")
	fmt.Fprintf(os.Stderr, "  delete        Delete a highlight\n")
	fmt.Fprintf(os.Stderr, "  backup        Archive the library into a local SQLite database\n")
	fmt.Fprintf(os.Stderr, "  export        Write the archive as markdown notes\n")
	fmt.Fprintf(os.Stderr, "  mock-server   Serve an in-memory Readwise API for local testing\n")
	fmt.Fprintf(os.Stderr, "  version       Print version information\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
