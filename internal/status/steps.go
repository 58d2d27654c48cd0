package status

import (
	"strings"
	"time"

	"github.com/jbweber/vaultvm/api/v1alpha1"
)

// StepConditionType returns the condition type tracking a step,
// e.g. "browser-use" becomes "BrowserUseSucceeded".
func StepConditionType(step string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(step, func(r rune) bool { return r == '-' || r == '_' || r == ' ' }) {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	b.WriteString("Succeeded")
	return b.String()
}

// PlanSteps records every named step as planned, in order. Steps that
// already have a result are left alone.
func PlanSteps(s *v1alpha1.Setup, names ...string) {
	for _, name := range names {
		if GetStep(s, name) == nil {
			s.Status.Steps = append(s.Status.Steps, v1alpha1.StepResult{
				Name:   name,
				Status: v1alpha1.StepStatusPlanned,
			})
		}
	}
}

// GetStep returns the result of a step by name, or nil if not found.
func GetStep(s *v1alpha1.Setup, name string) *v1alpha1.StepResult {
	for i := range s.Status.Steps {
		if s.Status.Steps[i].Name == name {
			return &s.Status.Steps[i]
		}
	}
	return nil
}

// RecordStep stores a step outcome and sets the matching condition.
// A planned entry for the step is updated in place.
func RecordStep(s *v1alpha1.Setup, name string, result v1alpha1.StepStatus, took time.Duration, message string) {
	step := GetStep(s, name)
	if step == nil {
		s.Status.Steps = append(s.Status.Steps, v1alpha1.StepResult{Name: name})
		step = &s.Status.Steps[len(s.Status.Steps)-1]
	}
	step.Status = result
	step.Duration = v1alpha1.NewDuration(took.Round(time.Millisecond))
	step.Message = message

	condType := StepConditionType(name)
	switch result {
	case v1alpha1.StepStatusSuccess:
		SetCondition(s, condType, v1alpha1.ConditionTrue, "Succeeded", message)
	case v1alpha1.StepStatusFailed:
		SetCondition(s, condType, v1alpha1.ConditionFalse, "Failed", message)
	case v1alpha1.StepStatusSkipped:
		SetCondition(s, condType, v1alpha1.ConditionUnknown, "Skipped", message)
	}
}

// StepSucceeded reports whether the named step finished successfully.
func StepSucceeded(s *v1alpha1.Setup, name string) bool {
	step := GetStep(s, name)
	return step != nil && step.Status == v1alpha1.StepStatusSuccess
}
