package orgo

import (
	"context"
	"fmt"
	"log"

	"github.com/jbweber/vaultvm/api/v1alpha1"
	"github.com/jbweber/vaultvm/internal/shell"
)

// Backend creates and destroys computers through the Orgo API.
type Backend struct {
	client *Client
}

// NewBackend returns a Backend using client.
func NewBackend(client *Client) *Backend {
	return &Backend{client: client}
}

// Create ensures the project exists and creates a computer in it.
func (b *Backend) Create(ctx context.Context, spec v1alpha1.ComputerSpec) (shell.Computer, error) {
	project, err := b.client.EnsureProject(ctx, spec.Project)
	if err != nil {
		return nil, err
	}
	log.Printf("Using project %s (%s)", project.Name, project.ID)

	comp, err := b.client.CreateComputer(ctx, CreateComputerRequest{
		ProjectID: project.ID,
		Name:      spec.Name,
		OS:        spec.OS,
		RAM:       spec.RAMGiB,
		CPU:       spec.CPUs,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Created computer %s (status %q)", comp.ID, comp.Status)

	return &computer{client: b.client, id: comp.ID, url: comp.URL}, nil
}

// Destroy deletes the computer with the given id. Unknown ids are
// reported without issuing the delete.
func (b *Backend) Destroy(ctx context.Context, id string) error {
	comp, err := b.client.GetComputer(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("computer %s not found: %w", id, err)
		}
		return err
	}
	log.Printf("Deleting computer %s (status %q)", comp.ID, comp.Status)

	return b.client.DeleteComputer(ctx, id)
}

// computer is a shell.Computer backed by the API.
type computer struct {
	client *Client
	id     string
	url    string
}

func (c *computer) ID() string  { return c.id }
func (c *computer) URL() string { return c.url }

func (c *computer) Bash(ctx context.Context, command string) (shell.Result, error) {
	output, code, err := c.client.Bash(ctx, c.id, command)
	if err != nil {
		return shell.Result{}, fmt.Errorf("failed to run %s: %w", shell.FirstWord(command), err)
	}
	return shell.Result{Output: output, ExitCode: code}, nil
}

func (c *computer) Screenshot(ctx context.Context) ([]byte, error) {
	return c.client.Screenshot(ctx, c.id)
}
