package provision

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jbweber/vaultvm/api/v1alpha1"
	"github.com/jbweber/vaultvm/internal/shell"
	"github.com/jbweber/vaultvm/internal/status"
)

// Step names, in execution order.
const (
	StepComputer     = "computer"
	StepSystem       = "system"
	StepGit          = "git"
	StepSSHKey       = "ssh-key"
	StepClone        = "clone"
	StepRequirements = "requirements"
	StepAIKey        = "ai-key"
	StepBrowserUse   = "browser-use"
	StepExample      = "example"
	StepScreenshot   = "screenshot"
)

// Steps lists every step name in execution order.
var Steps = []string{
	StepComputer, StepSystem, StepGit, StepSSHKey, StepClone,
	StepRequirements, StepAIKey, StepBrowserUse, StepExample, StepScreenshot,
}

// Provisioner runs setups on computers created by a Backend.
type Provisioner struct {
	backend Backend
	out     Reporter

	// AnthropicAPIKey is written into the computer when set.
	AnthropicAPIKey string
	// Secrets are masked in every logged command and printed output.
	Secrets []string
	// DestroyAfter tells the summary the caller destroys the computer
	// once Run returns.
	DestroyAfter bool

	sleep     func(ctx context.Context, d time.Duration) error
	writeFile func(name string, data []byte, perm os.FileMode) error
}

// New returns a Provisioner that creates computers with backend and reports
// progress to out.
func New(backend Backend, out Reporter) *Provisioner {
	return &Provisioner{
		backend:   backend,
		out:       out,
		sleep:     sleepContext,
		writeFile: os.WriteFile,
	}
}

// stepFunc performs one step. A returned error aborts the run; command
// failures are reported through the status instead.
type stepFunc func(ctx context.Context, comp shell.Computer, s *v1alpha1.Setup) (v1alpha1.StepStatus, string, error)

// Run executes the setup described by s and records the outcome in
// s.Status. It returns an error only when the computer could not be
// created or ctx was cancelled; failed steps leave the setup Degraded.
func (p *Provisioner) Run(ctx context.Context, s *v1alpha1.Setup) error {
	if err := status.TransitionToProvisioning(s); err != nil {
		return err
	}
	status.PlanSteps(s, Steps...)

	p.out.Heading("Starting vault setup %s", s.Name)

	comp, err := p.createComputer(ctx, s)
	if err != nil {
		status.TransitionToFailed(s, "CreateFailed", err.Error())
		return err
	}
	if err := status.TransitionToConfiguring(s); err != nil {
		return err
	}

	wait := s.Spec.Computer.BootWait.Duration
	p.out.Info("Waiting %v for the computer to be ready...", wait)
	if err := p.sleep(ctx, wait); err != nil {
		return p.abort(s, err)
	}

	steps := []struct {
		name  string
		title string
		run   stepFunc
	}{
		{StepSystem, "Installing system dependencies", p.installSystem},
		{StepGit, "Configuring git", p.configureGit},
		{StepSSHKey, "Generating SSH key", p.generateSSHKey},
		{StepClone, "Cloning vault repository", p.cloneVault},
		{StepRequirements, "Installing vault dependencies", p.installRequirements},
		{StepAIKey, "Writing AI provider key", p.writeAIKey},
		{StepBrowserUse, "Installing browser-use", p.installBrowserUse},
		{StepExample, "Creating browser-use example script", p.writeExample},
		{StepScreenshot, "Taking screenshot", p.takeScreenshot},
	}

	for _, step := range steps {
		if err := p.runStep(ctx, comp, s, step.name, step.title, step.run); err != nil {
			return p.abort(s, err)
		}
	}

	if err := status.Finish(s); err != nil {
		return err
	}
	p.summary(s)
	return nil
}

// Destroy deletes a computer through the backend.
func (p *Provisioner) Destroy(ctx context.Context, id string) error {
	log.Printf("Destroying computer %s...", id)
	if err := p.backend.Destroy(ctx, id); err != nil {
		return fmt.Errorf("failed to destroy computer %s: %w", id, err)
	}
	p.out.Success("Computer %s destroyed", id)
	return nil
}

func (p *Provisioner) createComputer(ctx context.Context, s *v1alpha1.Setup) (shell.Computer, error) {
	spec := s.Spec.Computer
	p.out.Heading("Creating %s computer %s/%s...", spec.Provider, spec.Project, spec.Name)

	start := time.Now()
	comp, err := p.backend.Create(ctx, spec)
	if err != nil {
		msg := p.redact(err.Error())
		status.RecordStep(s, StepComputer, v1alpha1.StepStatusFailed, time.Since(start), msg)
		p.out.Failure("Failed to create computer: %s", msg)
		return nil, fmt.Errorf("failed to create computer: %w", err)
	}

	s.SetComputer(comp.ID(), comp.URL())
	status.RecordStep(s, StepComputer, v1alpha1.StepStatusSuccess, time.Since(start), comp.ID())
	p.out.Success("Computer created: %s", comp.ID())
	p.out.Info("   View at: %s", comp.URL())
	return comp, nil
}

func (p *Provisioner) runStep(ctx context.Context, comp shell.Computer, s *v1alpha1.Setup, name, title string, run stepFunc) error {
	p.out.Heading("%s...", title)
	log.Printf("Starting step %s", name)

	start := time.Now()
	result, msg, err := run(ctx, comp, s)
	if err != nil {
		status.RecordStep(s, name, v1alpha1.StepStatusFailed, time.Since(start), err.Error())
		return err
	}
	status.RecordStep(s, name, result, time.Since(start), p.redact(msg))
	log.Printf("Step %s: %s", name, result)
	return nil
}

// exec runs one command. Delivery failures are folded into a failed
// Result; the only error returned is ctx's.
func (p *Provisioner) exec(ctx context.Context, comp shell.Computer, command string) (shell.Result, error) {
	if err := ctx.Err(); err != nil {
		return shell.Result{}, err
	}

	log.Printf("[%s] $ %s", comp.ID(), p.redact(command))
	res, err := comp.Bash(ctx, command)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return shell.Result{}, ctxErr
		}
		log.Printf("[%s] command not delivered: %v", comp.ID(), err)
		return shell.Result{Output: err.Error(), ExitCode: -1}, nil
	}
	log.Printf("[%s] exit %d", comp.ID(), res.ExitCode)
	return res, nil
}

func (p *Provisioner) abort(s *v1alpha1.Setup, err error) error {
	reason := "Aborted"
	if errors.Is(err, context.DeadlineExceeded) {
		reason = "TimedOut"
	}
	status.TransitionToFailed(s, reason, err.Error())
	p.out.Failure("Setup aborted: %v", err)
	if id := s.Status.ComputerID; id != "" && !p.DestroyAfter {
		p.out.Info("Computer %s was left running. Destroy it with: vaultvm destroy %s", id, id)
	}
	return err
}

func (p *Provisioner) redact(text string) string {
	return shell.Redact(shell.Redact(text, p.Secrets...), p.AnthropicAPIKey)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
