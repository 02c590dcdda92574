package cli

import (
	"os"

	"golang.org/x/term"
)

// Globals holds global flags available to all commands.
type Globals struct {
	Output  string `help:"Output format" default:"auto" enum:"json,plain,rich,auto" short:"o" env:"HGCRED_OUTPUT"`
	Verbose bool   `help:"Verbose output" short:"v" env:"HGCRED_VERBOSE"`
	NoInput bool   `help:"Disable interactive prompts (fail instead)" env:"HGCRED_NO_INPUT"`
}

// ResolvedOutput returns the effective output mode. "auto" detects TTY:
// rich when stdout is a terminal, plain otherwise.
func (g *Globals) ResolvedOutput(configDefault string) string {
	if g.Output != "auto" && g.Output != "" {
		return g.Output
	}
	if configDefault != "" && configDefault != "auto" {
		return configDefault
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return "rich"
	}
	return "plain"
}
