// Package prompt reads credentials and confirmations from the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoInput is returned when a prompt is needed but interactive input is
// disabled.
var ErrNoInput = errors.New("interactive input disabled")

// Terminal implements the coordinator's Prompter on a terminal. Prompts go
// to stderr so stdout stays clean for machine-readable output.
type Terminal struct {
	In      *os.File
	Out     io.Writer
	NoInput bool

	reader *bufio.Reader
}

// NewTerminal creates a prompter on stdin/stderr.
func NewTerminal(noInput bool) *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stderr, NoInput: noInput}
}

// Credentials surfaces the realm and host, then collects a username and
// password. The password read is echo-free on a real terminal.
func (t *Terminal) Credentials(realm, host, defaultUser string) (string, string, error) {
	if t.NoInput {
		return "", "", ErrNoInput
	}

	fmt.Fprintf(t.Out, "http authorization required for %s\n", host)
	fmt.Fprintf(t.Out, "realm: %s\n", realm)

	username := defaultUser
	if username == "" {
		fmt.Fprint(t.Out, "user: ")
		line, err := t.readLine()
		if err != nil {
			return "", "", err
		}
		username = line
	} else {
		fmt.Fprintf(t.Out, "user: %s\n", username)
	}

	fmt.Fprint(t.Out, "password: ")
	password, err := t.readPassword()
	if err != nil {
		return "", "", err
	}

	return username, password, nil
}

// Confirm asks a yes/no question; an empty answer means yes.
func (t *Terminal) Confirm(prompt string) (bool, error) {
	if t.NoInput {
		return false, nil
	}

	fmt.Fprintf(t.Out, "%s ", prompt)
	line, err := t.readLine()
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (t *Terminal) readLine() (string, error) {
	if t.reader == nil {
		t.reader = bufio.NewReader(t.In)
	}
	line, err := t.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *Terminal) readPassword() (string, error) {
	fd := int(t.In.Fd())
	if term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Fprintln(t.Out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(data), nil
	}

	// Piped input: fall back to a plain line read.
	return t.readLine()
}
