package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/rwclient/internal/config"
	"github.com/mrlokans/rwclient/internal/logger"
	"github.com/mrlokans/rwclient/internal/tokenstore"
	"github.com/mrlokans/rwclient/readwise"
)

// base carries what every command shares: configuration, output streams and
// the logger built from them
type base struct {
	Config *config.Config
	Out    io.Writer
	ErrOut io.Writer

	log *logrus.Logger
}

func newBase(cfg *config.Config) base {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return base{Config: cfg, Out: os.Stdout, ErrOut: os.Stderr}
}

func (b *base) logger() *logrus.Logger {
	if b.log == nil {
		b.log = logger.NewWithOutput(b.Config.Log, b.ErrOut)
	}
	return b.log
}

func (b *base) newFlagSet(name, summary string, examples ...string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(b.ErrOut)
	fs.Usage = func() {
		fmt.Fprintf(b.ErrOut, "Usage: %s %s [options]\n\n", os.Args[0], name)
		fmt.Fprintf(b.ErrOut, "%s\n\n", summary)
		fmt.Fprintf(b.ErrOut, "Options:\n")
		fs.PrintDefaults()
		if len(examples) > 0 {
			fmt.Fprintf(b.ErrOut, "\nExamples:\n")
			for _, example := range examples {
				fmt.Fprintf(b.ErrOut, "  %s %s\n", os.Args[0], example)
			}
		}
	}
	return fs
}

func (b *base) printJSON(v any) error {
	enc := json.NewEncoder(b.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// clientFlags are the connection options shared by commands talking to the API
type clientFlags struct {
	Token          string
	BaseURL        string
	Timeout        time.Duration
	TokenStorePath string
}

func (f *clientFlags) register(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&f.Token, "token", "", "Readwise access token (defaults to READWISE_TOKEN or the saved token)")
	fs.StringVar(&f.BaseURL, "base-url", cfg.Readwise.BaseURL, "Readwise API host")
	fs.DurationVar(&f.Timeout, "timeout", cfg.Readwise.Timeout, "HTTP request timeout")
	fs.StringVar(&f.TokenStorePath, "token-store", cfg.TokenStore.Path, "Path to the encrypted token store")
}

func (b *base) openTokenStore(path string) (*tokenstore.TokenStore, error) {
	storeCfg := tokenstore.ConfigFrom(b.Config.TokenStore, b.logger())
	if path != "" {
		storeCfg.DatabasePath = path
	}
	return tokenstore.New(storeCfg)
}

// resolveToken picks the token from the flag, then configuration, then the
// token store
func (b *base) resolveToken(f *clientFlags) (string, error) {
	if token := strings.TrimSpace(f.Token); token != "" {
		return token, nil
	}
	if token := strings.TrimSpace(b.Config.Readwise.Token); token != "" {
		return token, nil
	}

	store, err := b.openTokenStore(f.TokenStorePath)
	if err != nil {
		return "", fmt.Errorf("failed to open token store: %w", err)
	}
	defer store.Close()

	token, err := store.Load()
	if err != nil {
		if errors.Is(err, tokenstore.ErrNoToken) {
			return "", fmt.Errorf("no Readwise token: pass -token, set READWISE_TOKEN or run login")
		}
		return "", err
	}
	return token, nil
}

func (b *base) clientOptions(f *clientFlags) []readwise.Option {
	opts := []readwise.Option{readwise.WithLogger(b.logger())}
	if f.BaseURL != "" {
		opts = append(opts, readwise.WithBaseURL(f.BaseURL))
	}
	if f.Timeout > 0 {
		opts = append(opts, readwise.WithTimeout(f.Timeout))
	}
	return opts
}

func (b *base) newClient(f *clientFlags) (*readwise.Client, error) {
	token, err := b.resolveToken(f)
	if err != nil {
		return nil, err
	}
	return readwise.NewClient(token, b.clientOptions(f)...)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// truncate shortens s to at most n runes for table output
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func requireID(fs *flag.FlagSet, id int64) error {
	if id <= 0 {
		fs.Usage()
		return fmt.Errorf("-id is required")
	}
	return nil
}

func printPageFooter(out io.Writer, page int, count int64, hasNext bool) {
	fmt.Fprintf(out, "\nPage %d, %d total.", page, count)
	if hasNext {
		fmt.Fprintf(out, " Next: -page %d", page+1)
	}
	fmt.Fprintln(out)
}
