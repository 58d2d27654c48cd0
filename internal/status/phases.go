package status

import (
	"fmt"
	"strings"

	"github.com/jbweber/vaultvm/api/v1alpha1"
)

// TransitionToProvisioning starts a run. Only a Pending setup can start.
func TransitionToProvisioning(s *v1alpha1.Setup) error {
	if s.GetPhase() != v1alpha1.SetupPhasePending {
		return fmt.Errorf("cannot transition to Provisioning from phase %s", s.GetPhase())
	}

	s.SetPhase(v1alpha1.SetupPhaseProvisioning)
	s.Status.StartTime = v1alpha1.Now()
	SetCondition(s, v1alpha1.ConditionReady, v1alpha1.ConditionFalse, "Provisioning", "Computer creation in progress")
	return nil
}

// TransitionToConfiguring is called once the computer exists.
func TransitionToConfiguring(s *v1alpha1.Setup) error {
	if s.GetPhase() != v1alpha1.SetupPhaseProvisioning {
		return fmt.Errorf("cannot transition to Configuring from phase %s", s.GetPhase())
	}

	s.SetPhase(v1alpha1.SetupPhaseConfiguring)
	SetCondition(s, v1alpha1.ConditionReady, v1alpha1.ConditionFalse, "Configuring", "Running setup commands")
	return nil
}

// Finish ends a configuring run. The phase becomes Completed when no step
// failed and Degraded otherwise.
func Finish(s *v1alpha1.Setup) error {
	if s.GetPhase() != v1alpha1.SetupPhaseConfiguring {
		return fmt.Errorf("cannot finish from phase %s", s.GetPhase())
	}

	s.Status.CompletionTime = v1alpha1.Now()
	failed := s.FailedSteps()
	if len(failed) == 0 {
		s.SetPhase(v1alpha1.SetupPhaseCompleted)
		SetCondition(s, v1alpha1.ConditionReady, v1alpha1.ConditionTrue, "Completed", "All steps succeeded")
		return nil
	}

	s.SetPhase(v1alpha1.SetupPhaseDegraded)
	SetCondition(s, v1alpha1.ConditionReady, v1alpha1.ConditionFalse, "StepsFailed",
		"Failed steps: "+strings.Join(failed, ", "))
	return nil
}

// TransitionToFailed marks the run as aborted. This can happen from any phase.
func TransitionToFailed(s *v1alpha1.Setup, reason, message string) {
	s.SetPhase(v1alpha1.SetupPhaseFailed)
	s.Status.CompletionTime = v1alpha1.Now()
	SetCondition(s, v1alpha1.ConditionReady, v1alpha1.ConditionFalse, reason, message)
}

// IsTerminal returns true if the run has ended.
func IsTerminal(phase v1alpha1.SetupPhase) bool {
	switch phase {
	case v1alpha1.SetupPhaseCompleted, v1alpha1.SetupPhaseDegraded, v1alpha1.SetupPhaseFailed:
		return true
	}
	return false
}
