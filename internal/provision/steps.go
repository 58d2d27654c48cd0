package provision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jbweber/vaultvm/api/v1alpha1"
	"github.com/jbweber/vaultvm/internal/shell"
	"github.com/jbweber/vaultvm/internal/sshexec"
	"github.com/jbweber/vaultvm/internal/status"
)

const (
	stepSuccess = v1alpha1.StepStatusSuccess
	stepFailed  = v1alpha1.StepStatusFailed
	stepSkipped = v1alpha1.StepStatusSkipped
)

func (p *Provisioner) installSystem(ctx context.Context, comp shell.Computer, _ *v1alpha1.Setup) (v1alpha1.StepStatus, string, error) {
	var failed []string
	for _, cmd := range systemCommands {
		res, err := p.exec(ctx, comp, cmd)
		if err != nil {
			return "", "", err
		}
		if !res.Success() {
			p.out.Warning("Command failed: %s", cmd)
			p.out.Block("Output: " + p.redact(res.Output))
			failed = append(failed, cmd)
			continue
		}
		p.out.Success("%s installed/updated", shell.FirstWord(cmd))
	}

	if len(failed) > 0 {
		return stepFailed, fmt.Sprintf("%d of %d commands failed", len(failed), len(systemCommands)), nil
	}
	return stepSuccess, "", nil
}

func (p *Provisioner) configureGit(ctx context.Context, comp shell.Computer, s *v1alpha1.Setup) (v1alpha1.StepStatus, string, error) {
	cmds := gitCommands(s.Spec.Git)
	failed := 0
	for _, cmd := range cmds {
		res, err := p.exec(ctx, comp, cmd)
		if err != nil {
			return "", "", err
		}
		if !res.Success() {
			p.out.Warning("Git config failed: %s", cmd)
			failed++
			continue
		}
		p.out.Success("%s", cmd)
	}

	if failed > 0 {
		return stepFailed, fmt.Sprintf("%d of %d commands failed", failed, len(cmds)), nil
	}
	return stepSuccess, fmt.Sprintf("%s <%s>", s.Spec.Git.UserName, s.Spec.Git.UserEmail), nil
}

func (p *Provisioner) generateSSHKey(ctx context.Context, comp shell.Computer, s *v1alpha1.Setup) (v1alpha1.StepStatus, string, error) {
	if !s.Spec.Git.SSHKey {
		p.out.Info("   Not requested, skipping")
		return stepSkipped, "git.sshKey is false", nil
	}

	res, err := p.exec(ctx, comp, sshKeygenCommand(s.Spec.Computer.Name))
	if err != nil {
		return "", "", err
	}
	if !res.Success() {
		p.out.Warning("SSH key generation may have failed")
	}

	res, err = p.exec(ctx, comp, sshPublicKeyCommand)
	if err != nil {
		return "", "", err
	}
	if !res.Success() || res.Trimmed() == "" {
		p.out.Failure("Failed to retrieve public key")
		return stepFailed, "public key not readable", nil
	}

	key, err := sshexec.ParsePublicKey(res.Trimmed())
	if err != nil {
		p.out.Failure("Failed to parse public key: %v", err)
		p.out.Block(res.Output)
		return stepFailed, err.Error(), nil
	}

	s.Status.PublicKey = key.Line
	p.out.Success("SSH key generated (%s %s)", key.Type, key.Fingerprint)
	p.out.Info("")
	p.out.Info("Public SSH key (add this to GitHub under Settings > SSH and GPG keys > New SSH key):")
	p.out.Block(key.Line)
	return stepSuccess, key.Fingerprint, nil
}

func (p *Provisioner) cloneVault(ctx context.Context, comp shell.Computer, s *v1alpha1.Setup) (v1alpha1.StepStatus, string, error) {
	v := s.Spec.Vault
	p.out.Info("   Repository: %s", v.RepoURL)

	if _, err := p.exec(ctx, comp, "rm -rf "+v.Path); err != nil {
		return "", "", err
	}

	res, err := p.exec(ctx, comp, fmt.Sprintf("git clone %s %s", v.RepoURL, v.Path))
	if err != nil {
		return "", "", err
	}
	if !res.Success() {
		p.out.Failure("Failed to clone repository")
		p.out.Block("Error: " + p.redact(res.Output))
		p.out.Info("")
		p.out.Info("Tips:")
		p.out.Info("   - If using SSH: set git.sshKey to generate a key and add it to GitHub first")
		p.out.Info("   - If using HTTPS: make sure the repo is public or use a personal access token")
		p.out.Warning("Repository clone failed. Continuing with other setup steps...")
		return stepFailed, lastLine(res.Output), nil
	}

	p.out.Success("Vault cloned to %s", v.Path)
	return stepSuccess, v.Path, nil
}

func (p *Provisioner) installRequirements(ctx context.Context, comp shell.Computer, s *v1alpha1.Setup) (v1alpha1.StepStatus, string, error) {
	if !s.InstallRequirements() {
		p.out.Info("   Disabled, skipping")
		return stepSkipped, "vault.installRequirements is false", nil
	}

	path := s.Spec.Vault.Path
	res, err := p.exec(ctx, comp, requirementsCheckCommand(path))
	if err != nil {
		return "", "", err
	}
	if !res.Contains("EXISTS") {
		p.out.Info("   No requirements.txt found, skipping dependency installation")
		return stepSkipped, "no requirements.txt", nil
	}

	p.out.Info("   Found requirements.txt, installing dependencies...")
	res, err = p.exec(ctx, comp, requirementsInstallCommand(path))
	if err != nil {
		return "", "", err
	}
	if !res.Success() {
		p.out.Warning("Some dependencies may have failed to install")
		return stepFailed, lastLine(res.Output), nil
	}

	p.out.Success("Vault dependencies installed")
	return stepSuccess, "", nil
}

func (p *Provisioner) writeAIKey(ctx context.Context, comp shell.Computer, _ *v1alpha1.Setup) (v1alpha1.StepStatus, string, error) {
	if p.AnthropicAPIKey == "" {
		p.out.Info("   ANTHROPIC_API_KEY not set, skipping")
		return stepSkipped, "ANTHROPIC_API_KEY not set", nil
	}

	cmd, err := aiEnvCommand(p.AnthropicAPIKey)
	if err != nil {
		p.out.Warning("Failed to build key file command: %v", err)
		return stepFailed, err.Error(), nil
	}
	for _, c := range []string{cmd, "chmod 600 " + AIEnvFile} {
		res, err := p.exec(ctx, comp, c)
		if err != nil {
			return "", "", err
		}
		if !res.Success() {
			p.out.Warning("Failed to write %s: %s", AIEnvFile, p.redact(res.Trimmed()))
			return stepFailed, "key file not written", nil
		}
	}

	p.out.Success("AI provider key written to %s", AIEnvFile)
	return stepSuccess, AIEnvFile, nil
}

func (p *Provisioner) installBrowserUse(ctx context.Context, comp shell.Computer, s *v1alpha1.Setup) (v1alpha1.StepStatus, string, error) {
	b := s.Spec.BrowserUse

	script, err := InstallScript(b)
	if err != nil {
		return stepFailed, err.Error(), nil
	}
	write, err := shell.Heredoc(InstallScriptPath, installDelimiter, script)
	if err != nil {
		return stepFailed, err.Error(), nil
	}

	res, err := p.exec(ctx, comp, write)
	if err != nil {
		return "", "", err
	}
	if !res.Success() {
		p.out.Warning("Failed to write install script: %s", res.Trimmed())
		return p.browserUseFailed("install script not written")
	}

	res, err = p.exec(ctx, comp, "chmod +x "+InstallScriptPath)
	if err != nil {
		return "", "", err
	}
	if !res.Success() {
		p.out.Warning("Failed to make script executable: %s", res.Trimmed())
		return p.browserUseFailed("install script not executable")
	}

	p.out.Info("   Running installation (this may take 5-10 minutes)...")
	if _, err := p.exec(ctx, comp, launchInstallCommand); err != nil {
		return "", "", err
	}

	for i := 0; i < b.MaxAttempts; i++ {
		if err := p.sleep(ctx, b.PollInterval.Duration); err != nil {
			return "", "", err
		}

		res, err := p.exec(ctx, comp, pollInstallCommand)
		if err != nil {
			return "", "", err
		}
		if res.Contains("DONE") {
			p.out.Success("browser-use installed successfully")
			return p.verifyBrowserUse(ctx, comp, b.Venv)
		}

		if b.StatusEvery > 0 && i%b.StatusEvery == 0 {
			p.out.Info("   Still installing... (%v elapsed)", time.Duration(i)*b.PollInterval.Duration)
		}
	}

	res, err = p.exec(ctx, comp, tailInstallCommand)
	if err != nil {
		return "", "", err
	}
	p.out.Warning("Installation timed out. Last log entries:")
	p.out.Block(res.Output)
	return p.browserUseFailed(fmt.Sprintf("timed out after %d checks", b.MaxAttempts))
}

func (p *Provisioner) verifyBrowserUse(ctx context.Context, comp shell.Computer, venv string) (v1alpha1.StepStatus, string, error) {
	res, err := p.exec(ctx, comp, verifyCommand(venv))
	if err != nil {
		return "", "", err
	}
	if !res.Success() {
		p.out.Warning("Installation completed but verification failed")
		return p.browserUseFailed("import check failed")
	}
	return stepSuccess, venv, nil
}

func (p *Provisioner) browserUseFailed(msg string) (v1alpha1.StepStatus, string, error) {
	p.out.Warning("browser-use installation had issues. You may need to install manually.")
	return stepFailed, msg, nil
}

func (p *Provisioner) writeExample(ctx context.Context, comp shell.Computer, s *v1alpha1.Setup) (v1alpha1.StepStatus, string, error) {
	if !status.StepSucceeded(s, StepBrowserUse) {
		p.out.Info("   browser-use is not installed, skipping")
		return stepSkipped, "browser-use not installed", nil
	}
	if !s.WriteExample() {
		p.out.Info("   Disabled, skipping")
		return stepSkipped, "browserUse.example is false", nil
	}

	b := s.Spec.BrowserUse
	script, err := ExampleScript(b)
	if err != nil {
		return stepFailed, err.Error(), nil
	}
	write, err := shell.Heredoc(b.ExampleScript, exampleDelimiter, script)
	if err != nil {
		return stepFailed, err.Error(), nil
	}

	res, err := p.exec(ctx, comp, write)
	if err != nil {
		return "", "", err
	}
	if !res.Success() {
		p.out.Warning("Failed to write example script: %s", res.Trimmed())
		return stepFailed, "example script not written", nil
	}

	res, err = p.exec(ctx, comp, "chmod +x "+b.ExampleScript)
	if err != nil {
		return "", "", err
	}
	if !res.Success() {
		p.out.Warning("Failed to make example script executable")
		return stepFailed, "example script not executable", nil
	}

	res, err = p.exec(ctx, comp, langchainCommand(b.Venv))
	if err != nil {
		return "", "", err
	}
	if res.Success() {
		p.out.Success("langchain-anthropic installed")
	} else {
		p.out.Warning("Failed to install langchain-anthropic (may need manual install)")
	}

	p.out.Success("Example script created at %s", b.ExampleScript)
	return stepSuccess, b.ExampleScript, nil
}

func (p *Provisioner) takeScreenshot(ctx context.Context, comp shell.Computer, s *v1alpha1.Setup) (v1alpha1.StepStatus, string, error) {
	if !s.ScreenshotEnabled() {
		p.out.Info("   Disabled, skipping")
		return stepSkipped, "screenshot.enabled is false", nil
	}

	png, err := comp.Screenshot(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}
		p.out.Warning("Failed to take screenshot: %v", err)
		return stepFailed, err.Error(), nil
	}

	path := s.Spec.Screenshot.Path
	if err := p.writeFile(path, png, 0644); err != nil {
		p.out.Warning("Failed to save screenshot: %v", err)
		return stepFailed, err.Error(), nil
	}

	p.out.Success("Screenshot saved to %s", path)
	return stepSuccess, path, nil
}

func lastLine(output string) string {
	output = strings.TrimSpace(output)
	if i := strings.LastIndexByte(output, '\n'); i >= 0 {
		return output[i+1:]
	}
	return output
}
