package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mrlokans/rwclient/internal/config"
	"github.com/mrlokans/rwclient/readwise"
)

// HighlightsCommand prints one page of the highlight list
type HighlightsCommand struct {
	base
	clientFlags
	Page int
	JSON bool
}

func NewHighlightsCommand(cfg *config.Config) *HighlightsCommand {
	return &HighlightsCommand{base: newBase(cfg)}
}

func (cmd *HighlightsCommand) ParseFlags(args []string) error {
	fs := cmd.newFlagSet("highlights", "List highlights across all books, one page at a time.",
		"highlights",
		"highlights -page 3 -json",
	)
	cmd.clientFlags.register(fs, cmd.Config)
	fs.IntVar(&cmd.Page, "page", 1, "Page number, starting at 1")
	fs.BoolVar(&cmd.JSON, "json", false, "Print the raw page as JSON")
	return fs.Parse(args)
}

func (cmd *HighlightsCommand) Run() error {
	client, err := cmd.newClient(&cmd.clientFlags)
	if err != nil {
		return err
	}

	page, err := client.HighlightsPage(context.Background(), cmd.Page)
	if err != nil {
		return fmt.Errorf("failed to list highlights: %w", err)
	}
	if cmd.JSON {
		return cmd.printJSON(page)
	}

	printHighlights(cmd.Out, page.Results)
	printPageFooter(cmd.Out, cmd.Page, page.Count, page.HasNext())
	return nil
}

// HighlightCommand prints a single highlight
type HighlightCommand struct {
	base
	clientFlags
	ID   int64
	JSON bool
}

func NewHighlightCommand(cfg *config.Config) *HighlightCommand {
	return &HighlightCommand{base: newBase(cfg)}
}

func (cmd *HighlightCommand) ParseFlags(args []string) error {
	fs := cmd.newFlagSet("highlight", "Show one highlight by its Readwise id.", "highlight -id 5678")
	cmd.clientFlags.register(fs, cmd.Config)
	fs.Int64Var(&cmd.ID, "id", 0, "Highlight id (required)")
	fs.BoolVar(&cmd.JSON, "json", false, "Print the highlight as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return requireID(fs, cmd.ID)
}

func (cmd *HighlightCommand) Run() error {
	client, err := cmd.newClient(&cmd.clientFlags)
	if err != nil {
		return err
	}

	h, err := client.GetHighlight(context.Background(), cmd.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch highlight %d: %w", cmd.ID, err)
	}
	if cmd.JSON {
		return cmd.printJSON(h)
	}
	printHighlight(cmd.Out, h)
	return nil
}

// CreateCommand creates highlights, either one from flags or many from a
// JSON file holding an array of highlight objects
type CreateCommand struct {
	base
	clientFlags
	Text         string
	Title        string
	Author       string
	Note         string
	Location     int64
	LocationType string
	File         string
	JSON         bool
}

func NewCreateCommand(cfg *config.Config) *CreateCommand {
	return &CreateCommand{base: newBase(cfg)}
}

func (cmd *CreateCommand) ParseFlags(args []string) error {
	fs := cmd.newFlagSet("create", "Create highlights. Highlights without a title are filed under \"Quotes\".",
		`create -text "hello world!"`,
		`create -text "..." -title "Dune" -author "Frank Herbert" -location 42 -location-type page`,
		"create -file highlights.json",
	)
	cmd.clientFlags.register(fs, cmd.Config)
	fs.StringVar(&cmd.Text, "text", "", "Highlight text")
	fs.StringVar(&cmd.Title, "title", "", "Book title")
	fs.StringVar(&cmd.Author, "author", "", "Book author")
	fs.StringVar(&cmd.Note, "note", "", "Note attached to the highlight")
	fs.Int64Var(&cmd.Location, "location", 0, "Location within the book")
	fs.StringVar(&cmd.LocationType, "location-type", "", "How to read -location: page, order, location, time_offset or offset")
	fs.StringVar(&cmd.File, "file", "", `JSON file with an array of highlight objects ("-" for stdin)`)
	fs.BoolVar(&cmd.JSON, "json", false, "Print the created highlights as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if (cmd.Text == "") == (cmd.File == "") {
		fs.Usage()
		return fmt.Errorf("exactly one of -text or -file is required")
	}
	return nil
}

func (cmd *CreateCommand) items() ([]readwise.Fields, error) {
	if cmd.File != "" {
		var r io.Reader = os.Stdin
		if cmd.File != "-" {
			f, err := os.Open(cmd.File)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			r = f
		}
		var items []readwise.Fields
		if err := json.NewDecoder(r).Decode(&items); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", cmd.File, err)
		}
		return items, nil
	}

	item := readwise.Fields{"text": cmd.Text}
	if cmd.Title != "" {
		item["title"] = cmd.Title
	}
	if cmd.Author != "" {
		item["author"] = cmd.Author
	}
	if cmd.Note != "" {
		item["note"] = cmd.Note
	}
	if cmd.Location != 0 {
		item["location"] = cmd.Location
	}
	if cmd.LocationType != "" {
		item["location_type"] = cmd.LocationType
	}
	return []readwise.Fields{item}, nil
}

func (cmd *CreateCommand) Run() error {
	items, err := cmd.items()
	if err != nil {
		return err
	}

	client, err := cmd.newClient(&cmd.clientFlags)
	if err != nil {
		return err
	}

	created, err := client.CreateHighlights(context.Background(), items)
	if err != nil {
		return fmt.Errorf("failed to create highlights: %w", err)
	}
	if cmd.JSON {
		return cmd.printJSON(created)
	}

	fmt.Fprintf(cmd.Out, "Created or updated %d highlight(s):\n\n", len(created))
	printHighlights(cmd.Out, created)
	return nil
}

// UpdateCommand changes fields of an existing highlight. Only flags that
// are given on the command line are sent.
type UpdateCommand struct {
	base
	clientFlags
	ID       int64
	Text     string
	Note     string
	Color    string
	Location int64
	Fields   string
	JSON     bool

	set map[string]bool
}

func NewUpdateCommand(cfg *config.Config) *UpdateCommand {
	return &UpdateCommand{base: newBase(cfg)}
}

func (cmd *UpdateCommand) ParseFlags(args []string) error {
	fs := cmd.newFlagSet("update", "Update a highlight. Only the given fields change.",
		`update -id 5678 -text "hello, world!"`,
		`update -id 5678 -fields '{"note": "revisit", "color": "blue"}'`,
	)
	cmd.clientFlags.register(fs, cmd.Config)
	fs.Int64Var(&cmd.ID, "id", 0, "Highlight id (required)")
	fs.StringVar(&cmd.Text, "text", "", "New highlight text")
	fs.StringVar(&cmd.Note, "note", "", "New note")
	fs.StringVar(&cmd.Color, "color", "", "New colour")
	fs.Int64Var(&cmd.Location, "location", 0, "New location")
	fs.StringVar(&cmd.Fields, "fields", "", "JSON object of fields to send, merged with the flags above")
	fs.BoolVar(&cmd.JSON, "json", false, "Print the updated highlight as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { cmd.set[f.Name] = true })
	return requireID(fs, cmd.ID)
}

func (cmd *UpdateCommand) fields() (readwise.Fields, error) {
	fields := readwise.Fields{}
	if cmd.Fields != "" {
		if err := json.Unmarshal([]byte(cmd.Fields), &fields); err != nil {
			return nil, fmt.Errorf("invalid -fields: %w", err)
		}
		if fields == nil {
			return nil, fmt.Errorf("invalid -fields: expected a JSON object")
		}
	}
	if cmd.set["text"] {
		fields["text"] = cmd.Text
	}
	if cmd.set["note"] {
		fields["note"] = cmd.Note
	}
	if cmd.set["color"] {
		fields["color"] = cmd.Color
	}
	if cmd.set["location"] {
		fields["location"] = cmd.Location
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("nothing to update: give at least one field")
	}
	return fields, nil
}

func (cmd *UpdateCommand) Run() error {
	fields, err := cmd.fields()
	if err != nil {
		return err
	}

	client, err := cmd.newClient(&cmd.clientFlags)
	if err != nil {
		return err
	}

	h, err := client.UpdateHighlight(context.Background(), cmd.ID, fields)
	if err != nil {
		return fmt.Errorf("failed to update highlight %d: %w", cmd.ID, err)
	}
	if cmd.JSON {
		return cmd.printJSON(h)
	}
	printHighlight(cmd.Out, h)
	return nil
}

// DeleteCommand removes a highlight
type DeleteCommand struct {
	base
	clientFlags
	ID int64
}

func NewDeleteCommand(cfg *config.Config) *DeleteCommand {
	return &DeleteCommand{base: newBase(cfg)}
}

func (cmd *DeleteCommand) ParseFlags(args []string) error {
	fs := cmd.newFlagSet("delete", "Delete a highlight by its Readwise id.", "delete -id 5678")
	cmd.clientFlags.register(fs, cmd.Config)
	fs.Int64Var(&cmd.ID, "id", 0, "Highlight id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return requireID(fs, cmd.ID)
}

func (cmd *DeleteCommand) Run() error {
	client, err := cmd.newClient(&cmd.clientFlags)
	if err != nil {
		return err
	}
	if err := client.DeleteHighlight(context.Background(), cmd.ID); err != nil {
		return fmt.Errorf("failed to delete highlight %d: %w", cmd.ID, err)
	}
	fmt.Fprintf(cmd.Out, "Deleted highlight %d.\n", cmd.ID)
	return nil
}

func printHighlights(out io.Writer, highlights []readwise.Highlight) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBOOK\tLOCATION\tTEXT")
	for _, h := range highlights {
		book := "-"
		if h.BookID != nil {
			book = fmt.Sprintf("%d", *h.BookID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s %d\t%s\n", h.ID, book, h.LocationType, h.Location, truncate(h.Text, 60))
	}
	_ = w.Flush()
}

func printHighlight(out io.Writer, h *readwise.Highlight) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%d\n", h.ID)
	if h.BookID != nil {
		fmt.Fprintf(w, "Book:\t%d\n", *h.BookID)
	}
	fmt.Fprintf(w, "Location:\t%s %d\n", h.LocationType, h.Location)
	fmt.Fprintf(w, "Highlighted:\t%s\n", formatTime(h.HighlightedAt))
	fmt.Fprintf(w, "Updated:\t%s\n", formatTime(&h.Updated))
	if h.Color != "" {
		fmt.Fprintf(w, "Color:\t%s\n", h.Color)
	}
	if url := deref(h.URL); url != "" {
		fmt.Fprintf(w, "URL:\t%s\n", url)
	}
	_ = w.Flush()
	fmt.Fprintf(out, "\n%s\n", h.Text)
	if h.Note != "" {
		fmt.Fprintf(out, "\nNote: %s\n", h.Note)
	}
}
