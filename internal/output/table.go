package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jbweber/vaultvm/api/v1alpha1"
)

// TableFormatter formats records as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header rows.
	NoHeaders bool
}

// FormatSetup prints the run summary followed by one row per step.
func (f *TableFormatter) FormatSetup(s *v1alpha1.Setup) (string, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "Name:\t%s\n", s.Name)
	_, _ = fmt.Fprintf(w, "Phase:\t%s\n", dash(string(s.Status.Phase)))
	_, _ = fmt.Fprintf(w, "Provider:\t%s\n", dash(string(s.Spec.Computer.Provider)))
	_, _ = fmt.Fprintf(w, "Computer:\t%s\n", dash(s.Status.ComputerID))
	_, _ = fmt.Fprintf(w, "URL:\t%s\n", dash(s.Status.ComputerURL))
	if !s.Status.StartTime.IsZero() && !s.Status.CompletionTime.IsZero() {
		took := s.Status.CompletionTime.Sub(s.Status.StartTime.Time).Round(time.Second)
		_, _ = fmt.Fprintf(w, "Duration:\t%s\n", took)
	}
	_ = w.Flush()

	if len(s.Status.Steps) == 0 {
		buf.WriteString("\nNo steps recorded\n")
		return buf.String(), nil
	}

	buf.WriteString("\n")
	w = tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "STEP\tSTATUS\tDURATION\tMESSAGE")
	}
	for _, step := range s.Status.Steps {
		took := "-"
		if step.Status != v1alpha1.StepStatusPlanned {
			took = step.Duration.String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			step.Name, step.Status, took, dash(firstLine(step.Message)))
	}
	_ = w.Flush()

	return buf.String(), nil
}

// FormatSetupList formats records as one row each.
func (f *TableFormatter) FormatSetupList(setups []*v1alpha1.Setup) (string, error) {
	if len(setups) == 0 {
		return "No records found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tPHASE\tPROVIDER\tCOMPUTER\tFAILED\tAGE")
	}

	for _, s := range setups {
		failed := "-"
		if names := s.FailedSteps(); len(names) > 0 {
			failed = strings.Join(names, ",")
		}

		age := "-"
		if !s.CreationTimestamp.IsZero() {
			age = formatAge(time.Since(s.CreationTimestamp.Time))
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Name, dash(string(s.Status.Phase)), dash(string(s.Spec.Computer.Provider)),
			dash(s.Status.ComputerID), failed, age)
	}

	_ = w.Flush()
	return buf.String(), nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

// formatAge formats a duration as a human-readable age string.
// Examples: "5s", "2m", "3h", "4d", "2w", "1y"
func formatAge(d time.Duration) string {
	if d < 0 {
		return "unknown"
	}

	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}

	days := hours / 24
	if days < 7 {
		return fmt.Sprintf("%dd", days)
	}

	weeks := days / 7
	if weeks < 8 {
		return fmt.Sprintf("%dw", weeks)
	}

	if years := days / 365; years > 0 {
		return fmt.Sprintf("%dy", years)
	}
	return fmt.Sprintf("%dd", days)
}
