package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrlokans/rwclient/internal/backup"
	"github.com/mrlokans/rwclient/internal/config"
	"github.com/mrlokans/rwclient/internal/database"
	"github.com/mrlokans/rwclient/internal/exporters"
	"github.com/mrlokans/rwclient/internal/scheduler"
)

// BackupCommand copies the whole library into the local archive, once or
// on a cron schedule
type BackupCommand struct {
	base
	clientFlags
	DatabasePath string
	Schedule     string
	Daemon       bool
	ExportDir    string
}

func NewBackupCommand(cfg *config.Config) *BackupCommand {
	return &BackupCommand{base: newBase(cfg)}
}

func (cmd *BackupCommand) ParseFlags(args []string) error {
	fs := cmd.newFlagSet("backup", "Archive every book and highlight into a local SQLite database.",
		"backup",
		"backup -db ./archive.db -export ./vault/readwise",
		`backup -daemon -schedule "0 */6 * * *"`,
	)
	cmd.clientFlags.register(fs, cmd.Config)
	fs.StringVar(&cmd.DatabasePath, "db", cmd.Config.Database.Path, "Path to the archive database")
	fs.StringVar(&cmd.Schedule, "schedule", cmd.Config.Backup.Schedule, "Cron schedule used with -daemon")
	fs.BoolVar(&cmd.Daemon, "daemon", false, "Keep running and back up on the schedule")
	fs.StringVar(&cmd.ExportDir, "export", "", "Also write markdown files to this directory after each backup")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Daemon {
		if err := scheduler.ValidateCronSchedule(cmd.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", cmd.Schedule, err)
		}
	}
	return nil
}

func (cmd *BackupCommand) Run() error {
	client, err := cmd.newClient(&cmd.clientFlags)
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(cmd.DatabasePath, cmd.logger())
	if err != nil {
		return err
	}
	defer db.Close()

	service := backup.NewService(client, db, cmd.logger())

	if !cmd.Daemon {
		result, err := service.Run(context.Background())
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Fprintf(cmd.Out, "Archived %d books and %d highlights to %s\n", result.Books, result.Highlights, cmd.DatabasePath)
		return cmd.export(db)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewBackupScheduler(service, cmd.Schedule, cmd.logger())
	sched.AfterRun = func(context.Context, *backup.Result) error {
		return cmd.export(db)
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}
	sched.RunNow()

	fmt.Fprintf(cmd.Out, "Backing up %s (%s). Press Ctrl+C to stop.\n",
		cmd.Schedule, scheduler.CronDescription(cmd.Schedule))
	<-ctx.Done()
	sched.Stop()
	return nil
}

func (cmd *BackupCommand) export(db *database.Database) error {
	if cmd.ExportDir == "" {
		return nil
	}
	markdown := exporters.NewMarkdownExporter(cmd.ExportDir, cmd.logger())
	result, err := exporters.NewArchiveExporter(db, markdown).ExportAll()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Out, "Exported %d books (%d failed) to %s\n", result.BooksProcessed, result.BooksFailed, cmd.ExportDir)
	return nil
}
