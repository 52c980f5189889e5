package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrlokans/rwclient/internal/config"
	"github.com/mrlokans/rwclient/readwise"
)

// LoginCommand validates a token against the API and saves it encrypted
type LoginCommand struct {
	base
	clientFlags
	In io.Reader
}

func NewLoginCommand(cfg *config.Config) *LoginCommand {
	return &LoginCommand{base: newBase(cfg), In: os.Stdin}
}

func (cmd *LoginCommand) ParseFlags(args []string) error {
	fs := cmd.newFlagSet("login",
		"Validate a Readwise access token and store it encrypted for later commands.\nWithout -token the token is read from standard input.",
		"login -token $READWISE_TOKEN",
		"login < token.txt",
	)
	cmd.clientFlags.register(fs, cmd.Config)
	return fs.Parse(args)
}

func (cmd *LoginCommand) Run() error {
	token := strings.TrimSpace(cmd.Token)
	if token == "" {
		fmt.Fprint(cmd.ErrOut, "Readwise access token: ")
		line, err := bufio.NewReader(cmd.In).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		return readwise.ErrEmptyToken
	}

	if _, err := readwise.Authenticate(context.Background(), token, cmd.clientOptions(&cmd.clientFlags)...); err != nil {
		if errors.Is(err, readwise.ErrInvalidToken) {
			return fmt.Errorf("readwise rejected the token")
		}
		return fmt.Errorf("failed to validate token: %w", err)
	}

	store, err := cmd.openTokenStore(cmd.TokenStorePath)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer store.Close()

	if err := store.Save(token); err != nil {
		return err
	}

	fmt.Fprintln(cmd.Out, "Token validated and saved.")
	return nil
}

// LogoutCommand removes the saved token
type LogoutCommand struct {
	base
	TokenStorePath string
}

func NewLogoutCommand(cfg *config.Config) *LogoutCommand {
	return &LogoutCommand{base: newBase(cfg)}
}

func (cmd *LogoutCommand) ParseFlags(args []string) error {
	fs := cmd.newFlagSet("logout", "Remove the saved Readwise access token.")
	fs.StringVar(&cmd.TokenStorePath, "token-store", cmd.Config.TokenStore.Path, "Path to the encrypted token store")
	return fs.Parse(args)
}

func (cmd *LogoutCommand) Run() error {
	store, err := cmd.openTokenStore(cmd.TokenStorePath)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer store.Close()

	if err := store.Delete(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.Out, "Saved token removed.")
	return nil
}
