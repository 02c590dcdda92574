// Package helper speaks the external credential-helper line protocol.
//
// A helper is any executable taking one of get/store/erase as its sole
// argument, reading key=value request lines on stdin (blank-line terminated)
// and, for get, answering with key=value lines on stdout. Each invocation is
// a stateless request/response exchange; no process handles are retained
// between calls.
package helper

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Op selects the helper operation, passed as the process argument.
type Op string

const (
	OpGet   Op = "get"
	OpStore Op = "store"
	OpErase Op = "erase"
)

// ErrHelperFailed marks any helper invocation failure: spawn error, non-zero
// exit, or timeout. Callers treat it as a lookup miss or save failure, never
// as a fatal condition.
var ErrHelperFailed = errors.New("credential helper failed")

// Request carries the fields written to the helper's stdin.
type Request struct {
	Protocol string
	Host     string
	Path     string
	Username string
	// Password is only written for OpStore.
	Password string
}

// Response carries the fields parsed from a get reply. Unrecognized keys in
// the helper's output are ignored.
type Response struct {
	Username string
	Password string
}

// Run invokes the helper once for the given operation. The command string is
// split on whitespace; the operation is appended as the final argument. The
// context bounds the whole exchange: on expiry the process is killed and the
// operation reported as failed.
func Run(ctx context.Context, command string, op Op, req Request) (Response, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return Response{}, fmt.Errorf("%w: empty helper command", ErrHelperFailed)
	}

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], string(op))...)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = strings.NewReader(encodeRequest(op, req))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Response{}, fmt.Errorf("%w: %s %s timed out", ErrHelperFailed, argv[0], op)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return Response{}, fmt.Errorf("%w: %s %s: %v: %s", ErrHelperFailed, argv[0], op, err, msg)
		}
		return Response{}, fmt.Errorf("%w: %s %s: %v", ErrHelperFailed, argv[0], op, err)
	}

	if op != OpGet {
		return Response{}, nil
	}
	return parseResponse(stdout.Bytes()), nil
}

// encodeRequest renders the wire form: UTF-8 key=value lines, LF-terminated,
// blank line as terminator. No other framing.
func encodeRequest(op Op, req Request) string {
	var b strings.Builder

	writeAttr(&b, "protocol", req.Protocol)
	writeAttr(&b, "host", req.Host)
	writeAttr(&b, "path", req.Path)
	writeAttr(&b, "username", req.Username)
	if op == OpStore {
		writeAttr(&b, "password", req.Password)
	}

	b.WriteByte('\n')
	return b.String()
}

func writeAttr(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(value)
	b.WriteByte('\n')
}

// parseResponse reads key=value lines until end-of-stream or a blank line.
// Lines without "=" are skipped rather than failing the whole response.
func parseResponse(out []byte) Response {
	var resp Response

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			break
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		switch key {
		case "username":
			resp.Username = value
		case "password":
			resp.Password = value
		}
	}

	return resp
}
