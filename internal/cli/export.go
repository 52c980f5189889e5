package cli

import (
	"fmt"

	"github.com/mrlokans/rwclient/internal/config"
	"github.com/mrlokans/rwclient/internal/database"
	"github.com/mrlokans/rwclient/internal/exporters"
)

// ExportCommand writes the local archive out as markdown. It does not talk
// to the API.
type ExportCommand struct {
	base
	DatabasePath string
	Dir          string
}

func NewExportCommand(cfg *config.Config) *ExportCommand {
	return &ExportCommand{base: newBase(cfg)}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := cmd.newFlagSet("export", "Write archived books as markdown notes, one file per book grouped by category.",
		"export -dir ./vault/readwise",
	)
	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the archive database")
	fs.StringVar(&cmd.Dir, "dir", cmd.Config.Export.Dir, "Output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Dir == "" {
		fs.Usage()
		return fmt.Errorf("-dir is required")
	}
	return nil
}

func (cmd *ExportCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath, cmd.logger())
	if err != nil {
		return err
	}
	defer db.Close()

	last, err := db.LastBackupRun()
	if err != nil {
		return err
	}
	if last == nil {
		fmt.Fprintln(cmd.ErrOut, "Warning: the archive has never been backed up; run backup first.")
	}

	markdown := exporters.NewMarkdownExporter(cmd.Dir, cmd.logger())
	result, err := exporters.NewArchiveExporter(db, markdown).ExportAll()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Out, "\n=== Export Results ===\n")
	fmt.Fprintf(cmd.Out, "Books exported: %d\n", result.BooksProcessed)
	fmt.Fprintf(cmd.Out, "Highlights exported: %d\n", result.HighlightsProcessed)
	fmt.Fprintf(cmd.Out, "Books failed: %d\n", result.BooksFailed)
	return nil
}
