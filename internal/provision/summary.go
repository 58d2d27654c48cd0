package provision

import (
	"strings"

	"github.com/jbweber/vaultvm/api/v1alpha1"
	"github.com/jbweber/vaultvm/internal/status"
)

// summary prints where everything ended up. It runs whatever the outcome
// of the individual steps.
func (p *Provisioner) summary(s *v1alpha1.Setup) {
	if status.IsConditionTrue(s, v1alpha1.ConditionReady) {
		p.out.Heading("Setup complete!")
	} else {
		p.out.Heading("Setup finished with problems")
		p.out.Warning("Failed steps: %s", strings.Join(s.FailedSteps(), ", "))
	}

	p.out.Info("")
	p.out.Info("Summary:")
	p.out.Info("   - Computer ID: %s", s.Status.ComputerID)
	p.out.Info("   - Computer URL: %s", s.Status.ComputerURL)
	if status.StepSucceeded(s, StepClone) {
		p.out.Info("   - Vault location: %s", s.Spec.Vault.Path)
	}
	if status.StepSucceeded(s, StepBrowserUse) {
		p.out.Info("   - Browser-use: %s", s.Spec.BrowserUse.Venv)
	}
	if status.StepSucceeded(s, StepScreenshot) {
		p.out.Info("   - Screenshot: %s", s.Spec.Screenshot.Path)
	}
	if s.Status.PublicKey != "" {
		p.out.Info("   - SSH public key: %s", s.Status.PublicKey)
	}

	p.out.Info("")
	p.out.Info("Next steps:")
	p.out.Info("   - Access the computer at: %s", s.Status.ComputerURL)
	if status.StepSucceeded(s, StepExample) {
		p.out.Info("   - Run browser-use example: %s/bin/python %s", s.Spec.BrowserUse.Venv, s.Spec.BrowserUse.ExampleScript)
	}

	p.out.Info("")
	if p.DestroyAfter {
		p.out.Info("Computer %s will be destroyed when the run ends.", s.Status.ComputerID)
		return
	}
	p.out.Info("Computer left running. Destroy it when done:")
	p.out.Info("   vaultvm destroy %s", s.Status.ComputerID)
}
