// Package shell holds the small vocabulary shared by every backend that
// runs commands inside a computer: the command result, and helpers to
// build and log command strings.
package shell

import (
	"context"
	"fmt"
	"strings"
)

// Result is the captured outcome of one remote shell command.
type Result struct {
	// Output is the combined stdout and stderr text.
	Output string `json:"output" yaml:"output"`
	// ExitCode is the command's exit status.
	ExitCode int `json:"exitCode" yaml:"exitCode"`
}

// Success reports whether the command exited zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Contains reports whether the output contains marker.
func (r Result) Contains(marker string) bool {
	return strings.Contains(r.Output, marker)
}

// Trimmed returns the output without surrounding whitespace.
func (r Result) Trimmed() string {
	return strings.TrimSpace(r.Output)
}

// Heredoc builds a command that writes body to path verbatim.
// The delimiter is quoted so the remote shell performs no expansion.
func Heredoc(path, delimiter, body string) (string, error) {
	if delimiter == "" {
		return "", fmt.Errorf("heredoc delimiter cannot be empty")
	}
	for _, line := range strings.Split(body, "\n") {
		if line == delimiter {
			return "", fmt.Errorf("heredoc body contains delimiter line %q", delimiter)
		}
	}
	return fmt.Sprintf("cat > %s << '%s'\n%s\n%s", path, delimiter, body, delimiter), nil
}

// Redact replaces every secret in command with asterisks. Empty secrets
// are ignored.
func Redact(command string, secrets ...string) string {
	for _, s := range secrets {
		if s == "" {
			continue
		}
		command = strings.ReplaceAll(command, s, "****")
	}
	return command
}

// FirstWord returns the program name of a command, skipping sudo.
func FirstWord(command string) string {
	fields := strings.Fields(command)
	for _, f := range fields {
		if f != "sudo" {
			return f
		}
	}
	return ""
}

// Computer is a handle to a running remote computer.
type Computer interface {
	// ID is the provider's identifier for the computer.
	ID() string
	// URL is where a human can view the computer.
	URL() string
	// Bash runs command through a shell inside the computer and returns
	// its captured output. A non-zero exit is reported in the Result, not
	// as an error; errors mean the command could not be delivered.
	Bash(ctx context.Context, command string) (Result, error)
	// Screenshot returns a PNG of the computer's display.
	Screenshot(ctx context.Context) ([]byte, error)
}
