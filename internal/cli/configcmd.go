package cli

import (
	"fmt"
	"os"

	"github.com/scmkit/hgcred/internal/config"
	"github.com/scmkit/hgcred/internal/output"
)

// ConfigGetCmd implements config get.
type ConfigGetCmd struct {
	Key string `arg:"" help:"Config key to get (e.g., backend, helper_timeout)"`
}

// Run executes the get command.
func (cmd *ConfigGetCmd) Run(cfg *config.Config, fp *FormatterProvider) error {
	value, err := cfg.Get(cmd.Key)
	if err != nil {
		return &output.CLIError{
			Message:  fmt.Sprintf("unknown config key: %s", cmd.Key),
			ExitCode: output.ExitNotFound,
		}
	}

	fmt.Println(value)
	return nil
}

// ConfigSetCmd implements config set.
type ConfigSetCmd struct {
	Key   string `arg:"" help:"Config key to set"`
	Value string `arg:"" help:"Value to set"`
}

// Run executes the set command.
func (cmd *ConfigSetCmd) Run(cfg *config.Config, fp *FormatterProvider) error {
	if _, err := cfg.Get(cmd.Key); err != nil {
		return &output.CLIError{
			Message:  fmt.Sprintf("unknown config key: %s", cmd.Key),
			ExitCode: output.ExitUsage,
		}
	}

	// Backend names are validated before anything is written.
	if cmd.Key == "backend" {
		if _, _, err := config.ParseBackend(cmd.Value); err != nil {
			return &output.CLIError{
				Message:  err.Error(),
				ExitCode: output.ExitUsage,
			}
		}
	}

	if err := cfg.Set(cmd.Key, cmd.Value); err != nil {
		return &output.CLIError{
			Message:  fmt.Sprintf("failed to set config: %v", err),
			ExitCode: output.ExitGeneral,
		}
	}

	fmt.Fprintf(os.Stderr, "set %s = %s\n", cmd.Key, cmd.Value)
	return nil
}

// ConfigUnsetCmd implements config unset.
type ConfigUnsetCmd struct {
	Key string `arg:"" help:"Config key to remove"`
}

// Run executes the unset command.
func (cmd *ConfigUnsetCmd) Run(cfg *config.Config, fp *FormatterProvider) error {
	if _, err := cfg.Get(cmd.Key); err != nil {
		return &output.CLIError{
			Message:  fmt.Sprintf("unknown config key: %s", cmd.Key),
			ExitCode: output.ExitUsage,
		}
	}

	if err := cfg.Unset(cmd.Key); err != nil {
		return &output.CLIError{
			Message:  fmt.Sprintf("failed to unset config: %v", err),
			ExitCode: output.ExitGeneral,
		}
	}

	fmt.Fprintf(os.Stderr, "unset %s\n", cmd.Key)
	return nil
}

// ConfigListCmd implements config list.
type ConfigListCmd struct{}

// Run executes the list command.
func (cmd *ConfigListCmd) Run(cfg *config.Config, fp *FormatterProvider) error {
	rows := [][]string{
		{"backend", cfg.Backend},
		{"helper_timeout", fmt.Sprintf("%d", cfg.HelperTimeout)},
		{"default_output", cfg.DefaultOutput},
	}
	for _, g := range cfg.Auth {
		rows = append(rows, []string{"auth." + g.Name + ".prefix", g.Prefix})
		if g.Canonical != "" {
			rows = append(rows, []string{"auth." + g.Name + ".canonical", g.Canonical})
		}
		if g.Username != "" {
			rows = append(rows, []string{"auth." + g.Name + ".username", g.Username})
		}
	}

	cols := []output.Column{
		{Name: "Key"},
		{Name: "Value"},
	}
	return fp.Formatter.PrintList(cols, rows)
}

// ConfigPathCmd implements config path.
type ConfigPathCmd struct{}

// Run executes the path command.
func (cmd *ConfigPathCmd) Run(cfg *config.Config, fp *FormatterProvider) error {
	path := config.ConfigPath()
	fmt.Println(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "(file does not exist yet - will be created on first write)")
	} else {
		fmt.Fprintln(os.Stderr, "(file exists)")
	}

	return nil
}
