package provision

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jbweber/vaultvm/api/v1alpha1"
	"github.com/jbweber/vaultvm/internal/shell"
)

// fakeComputer records every command. BashFunc overrides the default
// responses for the commands it handles (ok=true).
type fakeComputer struct {
	id  string
	url string

	BashFunc       func(command string) (res shell.Result, handled bool, err error)
	ScreenshotFunc func() ([]byte, error)

	mu       sync.Mutex
	commands []string
}

func newFakeComputer() *fakeComputer {
	return &fakeComputer{id: "comp-123", url: "https://www.orgo.ai/workspaces/comp-123"}
}

func (c *fakeComputer) ID() string  { return c.id }
func (c *fakeComputer) URL() string { return c.url }

func (c *fakeComputer) Bash(ctx context.Context, command string) (shell.Result, error) {
	c.mu.Lock()
	c.commands = append(c.commands, command)
	c.mu.Unlock()

	if c.BashFunc != nil {
		if res, handled, err := c.BashFunc(command); handled {
			return res, err
		}
	}
	return defaultResponse(command), nil
}

func (c *fakeComputer) Screenshot(ctx context.Context) ([]byte, error) {
	if c.ScreenshotFunc != nil {
		return c.ScreenshotFunc()
	}
	return []byte("\x89PNG fake"), nil
}

// defaultResponse answers like a healthy computer.
func defaultResponse(command string) shell.Result {
	switch {
	case command == pollInstallCommand:
		return shell.Result{Output: "DONE\n"}
	case strings.HasPrefix(command, "test -f ") && strings.Contains(command, "requirements.txt"):
		return shell.Result{Output: "NOT_FOUND\n"}
	case strings.Contains(command, "print('Verified')"):
		return shell.Result{Output: "Verified\n"}
	}
	return shell.Result{}
}

// heads reduces heredoc commands to their first line.
func (c *fakeComputer) heads() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.commands))
	for i, cmd := range c.commands {
		out[i], _, _ = strings.Cut(cmd, "\n")
	}
	return out
}

type fakeBackend struct {
	computer  *fakeComputer
	createErr error

	created   []v1alpha1.ComputerSpec
	destroyed []string
}

func (b *fakeBackend) Create(ctx context.Context, spec v1alpha1.ComputerSpec) (shell.Computer, error) {
	b.created = append(b.created, spec)
	if b.createErr != nil {
		return nil, b.createErr
	}
	return b.computer, nil
}

func (b *fakeBackend) Destroy(ctx context.Context, id string) error {
	b.destroyed = append(b.destroyed, id)
	if id != b.computer.id {
		return errors.New("computer not found")
	}
	return nil
}

// fakeClock records sleeps instead of sleeping. cancelAfter cancels the
// run's context on the nth sleep.
type fakeClock struct {
	sleeps      []time.Duration
	cancelAfter int
	cancel      context.CancelFunc
}

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	if c.cancel != nil && len(c.sleeps) == c.cancelAfter {
		c.cancel()
	}
	return ctx.Err()
}

type writtenFile struct {
	name string
	data []byte
	perm os.FileMode
}
