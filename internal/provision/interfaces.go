package provision

import (
	"context"

	"github.com/jbweber/vaultvm/api/v1alpha1"
	"github.com/jbweber/vaultvm/internal/shell"
)

// Backend creates and destroys computers.
//
// It is satisfied by *orgo.Backend and *libvirt.Backend.
type Backend interface {
	// Create provisions a computer and returns once it accepts commands.
	Create(ctx context.Context, spec v1alpha1.ComputerSpec) (shell.Computer, error)

	// Destroy deletes the computer with the given ID.
	Destroy(ctx context.Context, id string) error
}

// Reporter prints progress for the person running the setup.
//
// It is satisfied by *output.Console.
type Reporter interface {
	Heading(format string, args ...any)
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warning(format string, args ...any)
	Failure(format string, args ...any)
	Block(text string)
}
