package cli

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/willabides/kongplete"

	"github.com/scmkit/hgcred/internal/config"
	"github.com/scmkit/hgcred/internal/output"
)

// Version is set by main from the build version.
var Version = "dev"

// FormatterProvider wraps the formatter interface for Kong binding.
type FormatterProvider struct {
	Formatter output.Formatter
}

// CLI is the root command structure.
type CLI struct {
	Globals

	Get     GetCmd     `cmd:"" help:"Look up a stored credential for a URL"`
	Fill    FillCmd    `cmd:"" help:"Resolve a credential, prompting if none is stored"`
	Store   StoreCmd   `cmd:"" help:"Prompt for a credential and save it"`
	Erase   EraseCmd   `cmd:"" help:"Remove a stored credential"`
	List    ListCmd    `cmd:"" help:"List stored credentials"`
	Config  ConfigCmd  `cmd:"" help:"Configuration commands"`
	Version VersionCmd `cmd:"" help:"Show version information"`

	InstallCompletions kongplete.InstallCompletions `cmd:"" help:"Install shell completions"`
}

// BeforeApply loads and validates config, creates the formatter, and binds
// dependencies into the kong context. A malformed config fails here, before
// any store or helper activity.
func (c *CLI) BeforeApply(ctx *kong.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return &output.CLIError{
			Message:  err.Error(),
			ExitCode: output.ExitConfigError,
		}
	}

	if err := cfg.Validate(); err != nil {
		return (&output.CLIError{
			Message:  fmt.Sprintf("invalid configuration: %v", err),
			ExitCode: output.ExitConfigError,
		}).WithHint("edit " + config.ConfigPath())
	}

	formatter := &FormatterProvider{
		Formatter: output.New(c.ResolvedOutput(cfg.DefaultOutput)),
	}

	ctx.Bind(cfg)
	ctx.Bind(formatter)
	ctx.Bind(&c.Globals)

	return nil
}

// ConfigCmd holds configuration subcommands.
type ConfigCmd struct {
	Get   ConfigGetCmd   `cmd:"" help:"Get a configuration value"`
	Set   ConfigSetCmd   `cmd:"" help:"Set a configuration value"`
	Unset ConfigUnsetCmd `cmd:"" help:"Remove a configuration value"`
	List  ConfigListCmd  `cmd:"" name:"list" help:"List all configuration values"`
	Path  ConfigPathCmd  `cmd:"" help:"Show config file path"`
}

// VersionCmd prints the build version.
type VersionCmd struct{}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println(Version)
	return nil
}
