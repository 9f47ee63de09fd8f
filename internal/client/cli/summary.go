package cli

import (
	"context"

	"github.com/ayurlekha/ayurlekha/internal/client/services"
)

// ShowSummary prints the latest generated medical-history summary for the
// selected patient.
func (a *App) ShowSummary(ctx context.Context) error {
	patient := a.patients.Selected()
	if patient == nil {
		printlnFn("Select a patient first ('select <id>').")
		return nil
	}
	sess := a.session.Current()
	if sess == nil {
		printlnFn("Sign in first.")
		return nil
	}

	summary, err := a.summary.Latest(ctx, sess.UserID, patient.ID)
	if err != nil {
		printlnFn(services.FailureMessage(err))
		return err
	}
	if summary == nil {
		printlnFn("No summary has been generated for", patient.Name, "yet.")
		return nil
	}

	printlnFn("Summary for", patient.Name)
	printlnFn("")
	printlnFn(summary.Summary)

	if len(summary.Conditions) > 0 {
		printlnFn("")
		printlnFn("Conditions:")
		for _, c := range summary.Conditions {
			line := "  - " + c.Name
			if c.Status != "" {
				line += " (" + c.Status + ")"
			}
			if c.Details != "" {
				line += ": " + c.Details
			}
			printlnFn(line)
		}
	}

	if len(summary.Medications) > 0 {
		printlnFn("")
		printlnFn("Medications:")
		for _, m := range summary.Medications {
			line := "  - " + m.Name
			if m.Dosage != "" {
				line += ", " + m.Dosage
			}
			if m.Frequency != "" {
				line += ", " + m.Frequency
			}
			printlnFn(line)
		}
	}

	if len(summary.RecentVisits) > 0 {
		printlnFn("")
		printlnFn("Recent visits:")
		for _, v := range summary.RecentVisits {
			line := "  - " + v.Date
			if v.Type != "" {
				line += " " + v.Type
			}
			if v.Doctor != "" {
				line += " with " + v.Doctor
			}
			if v.Notes != "" {
				line += ": " + v.Notes
			}
			printlnFn(line)
		}
	}
	return nil
}
