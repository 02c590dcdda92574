package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/scmkit/hgcred/internal/config"
	"github.com/scmkit/hgcred/internal/credentials"
	"github.com/scmkit/hgcred/internal/credkey"
	"github.com/scmkit/hgcred/internal/output"
	"github.com/scmkit/hgcred/internal/prompt"
	"github.com/scmkit/hgcred/internal/store"
)

// openStore initializes the configured backend, mapping failures to CLI
// errors.
func openStore(cfg *config.Config) (store.Store, error) {
	st, err := store.New(cfg)
	if err != nil {
		return nil, &output.CLIError{
			Message:  fmt.Sprintf("failed to initialize credential store: %v", err),
			ExitCode: output.ExitStore,
		}
	}
	return st, nil
}

// printCredential writes the resolved credential to stdout in the helper
// wire shape, so a host VCS can consume it directly.
func printCredential(username, password string) {
	fmt.Printf("username=%s\n", username)
	fmt.Printf("password=%s\n", password)
}

// GetCmd looks up a stored credential without prompting.
type GetCmd struct {
	URL   string `arg:"" help:"Repository URL"`
	Realm string `help:"HTTP auth realm" default:""`
}

// Run executes the get command.
func (cmd *GetCmd) Run(cfg *config.Config, fp *FormatterProvider) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	key := credkey.BuildKey(cmd.Realm, cmd.URL, cfg.Rules())
	e, err := st.Lookup(key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &output.CLIError{
			Message:  fmt.Sprintf("no stored credential for %s", key.ID()),
			ExitCode: output.ExitNotFound,
		}
	case errors.Is(err, store.ErrUnavailable):
		return &output.CLIError{
			Message:  fmt.Sprintf("credential store unavailable: %v", err),
			ExitCode: output.ExitStore,
		}
	case err != nil:
		return err
	}

	printCredential(e.Username, e.Password)
	return nil
}

// FillCmd resolves a credential for a URL, prompting interactively when the
// store has none. It runs the same resolution path a host VCS uses.
type FillCmd struct {
	URL   string `arg:"" help:"Repository URL"`
	Realm string `help:"HTTP auth realm" default:""`
}

// Run executes the fill command.
func (cmd *FillCmd) Run(cfg *config.Config, fp *FormatterProvider, globals *Globals) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	coord := credentials.New(st, prompt.NewTerminal(globals.NoInput), cfg.Rules())
	cred, err := coord.Resolve(cmd.Realm, cmd.URL)
	if err != nil {
		return &output.CLIError{
			Message:  err.Error(),
			ExitCode: output.ExitAuth,
		}
	}

	printCredential(cred.Username, cred.Password)
	return nil
}

// StoreCmd prompts for a credential and saves it unconditionally.
type StoreCmd struct {
	URL      string `arg:"" help:"Repository URL"`
	Realm    string `help:"HTTP auth realm" default:""`
	Username string `help:"Account name (prompted when omitted)" short:"u"`
}

// Run executes the store command.
func (cmd *StoreCmd) Run(cfg *config.Config, fp *FormatterProvider, globals *Globals) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	key := credkey.BuildKey(cmd.Realm, cmd.URL, cfg.Rules())

	defaultUser := cmd.Username
	if defaultUser == "" {
		defaultUser = key.Username
	}

	p := prompt.NewTerminal(globals.NoInput)
	username, password, err := p.Credentials(cmd.Realm, key.Host, defaultUser)
	if err != nil {
		return &output.CLIError{
			Message:  err.Error(),
			ExitCode: output.ExitAuth,
		}
	}

	if err := st.Save(key, store.Entry{Username: username, Password: password}); err != nil {
		return &output.CLIError{
			Message:  fmt.Sprintf("failed to save credential: %v", err),
			ExitCode: output.ExitStore,
		}
	}

	fmt.Fprintf(os.Stderr, "saved credential for %s\n", key.ID())
	return nil
}

// EraseCmd removes a stored credential.
type EraseCmd struct {
	URL   string `arg:"" help:"Repository URL"`
	Realm string `help:"HTTP auth realm" default:""`
}

// Run executes the erase command.
func (cmd *EraseCmd) Run(cfg *config.Config, fp *FormatterProvider) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	key := credkey.BuildKey(cmd.Realm, cmd.URL, cfg.Rules())
	if err := st.Erase(key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &output.CLIError{
				Message:  fmt.Sprintf("no stored credential for %s", key.ID()),
				ExitCode: output.ExitNotFound,
			}
		}
		return &output.CLIError{
			Message:  fmt.Sprintf("failed to erase credential: %v", err),
			ExitCode: output.ExitStore,
		}
	}

	fmt.Fprintf(os.Stderr, "erased credential for %s\n", key.ID())
	return nil
}

// ListCmd lists stored credentials, without passwords.
type ListCmd struct{}

// Run executes the list command.
func (cmd *ListCmd) Run(cfg *config.Config, fp *FormatterProvider) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	lister, ok := st.(store.Lister)
	if !ok {
		return (&output.CLIError{
			Message:  "the configured backend cannot enumerate its entries",
			ExitCode: output.ExitUsage,
		}).WithHint("helper-backed storage is managed by the helper's own tooling")
	}

	entries, err := lister.List()
	if err != nil {
		return &output.CLIError{
			Message:  fmt.Sprintf("failed to list credentials: %v", err),
			ExitCode: output.ExitStore,
		}
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.ID, e.Username})
	}

	cols := []output.Column{
		{Name: "Key", Width: 60},
		{Name: "Username"},
	}
	return fp.Formatter.PrintList(cols, rows)
}
