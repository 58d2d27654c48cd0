package sshexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/jbweber/vaultvm/internal/shell"
)

// DefaultPort is the SSH port.
const DefaultPort = "22"

// Runner runs commands on one host. Each command uses its own connection.
type Runner struct {
	Host   string
	Port   string
	User   string
	Signer ssh.Signer

	// DialTimeout bounds connection setup. Zero means 10 seconds.
	DialTimeout time.Duration
}

// NewRunner returns a Runner for user@host:22 authenticating with signer.
func NewRunner(host, user string, signer ssh.Signer) *Runner {
	return &Runner{Host: host, Port: DefaultPort, User: user, Signer: signer}
}

func (r *Runner) addr() string {
	port := r.Port
	if port == "" {
		port = DefaultPort
	}
	return net.JoinHostPort(r.Host, port)
}

func (r *Runner) config() *ssh.ClientConfig {
	timeout := r.DialTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &ssh.ClientConfig{
		User:            r.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(r.Signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // host keys are generated on first boot
		Timeout:         timeout,
	}
}

func (r *Runner) dial(ctx context.Context) (*ssh.Client, error) {
	cfg := r.config()
	addr := r.addr()

	d := net.Dialer{Timeout: cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to %s: %w", addr, err)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// Run executes command and returns its combined output. A non-zero exit
// status is returned in the Result; errors mean the command could not run.
func (r *Runner) Run(ctx context.Context, command string) (shell.Result, error) {
	client, err := r.dial(ctx)
	if err != nil {
		return shell.Result{}, err
	}
	defer closeAndLog(client.Close)

	session, err := client.NewSession()
	if err != nil {
		return shell.Result{}, fmt.Errorf("unable to create SSH session: %w", err)
	}
	defer closeAndLog(session.Close)

	type outcome struct {
		out []byte
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := session.CombinedOutput(command)
		done <- outcome{out, err}
	}()

	var o outcome
	select {
	case <-ctx.Done():
		_ = session.Close()
		return shell.Result{}, ctx.Err()
	case o = <-done:
	}

	result := shell.Result{Output: string(o.out)}
	if o.err == nil {
		return result, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(o.err, &exitErr) {
		result.ExitCode = exitErr.ExitStatus()
		return result, nil
	}
	return result, fmt.Errorf("remote command failed: %w", o.err)
}

// AwaitServer polls until an SSH connection succeeds, ctx is done or
// timeout elapses.
func (r *Runner) AwaitServer(ctx context.Context, interval, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		client, err := r.dial(ctx)
		if err == nil {
			_ = client.Close()
			return nil
		}
		log.Printf("Waiting for SSH on %s: %v", r.addr(), err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for SSH server at %s: %w", r.addr(), err)
		case <-tick.C:
		}
	}
}

func closeAndLog(f func() error) {
	if err := f(); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, io.EOF) {
		log.Printf("Warning: failed to close ssh connection: %v", err)
	}
}
