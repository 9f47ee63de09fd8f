package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ayurlekha/ayurlekha/internal/client/models"
	"github.com/ayurlekha/ayurlekha/internal/client/services"
	"github.com/ayurlekha/ayurlekha/internal/common"
)

// ListPatients prints the cached patient list with the selection marker.
func (a *App) ListPatients(ctx context.Context) error {
	items := a.patients.List()
	if len(items) == 0 {
		printlnFn("No patients yet. Use 'addpatient' to register one.")
		return nil
	}

	selected := a.patients.Selected()
	for _, p := range items {
		marker := " "
		if selected != nil && selected.ID == p.ID {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s  %s (%d, %s)", marker, p.ID, p.Name, p.Age, p.Gender)
		if p.Height != nil {
			line += ", " + *p.Height
		}
		if len(p.Ailments) > 0 {
			line += "  ailments: " + strings.Join(p.Ailments, ", ")
		}
		if len(p.Medications) > 0 {
			line += "  medications: " + strings.Join(p.Medications, ", ")
		}
		printlnFn(line)
	}
	return nil
}

// AddPatient interactively registers a patient on the backend and caches it.
func (a *App) AddPatient(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Name", os.Stdout)
	if err != nil {
		return err
	}
	if name == "" {
		printlnFn("A name is required.")
		return nil
	}

	ageText, err := getSimpleText(a.reader, "Age", os.Stdout)
	if err != nil {
		return err
	}
	age, err := strconv.Atoi(ageText)
	if err != nil || age < 0 {
		printlnFn("Age must be a non-negative number.")
		return nil
	}

	gender, err := getSimpleText(a.reader, "Gender", os.Stdout)
	if err != nil {
		return err
	}

	heightText, err := getSimpleText(a.reader, "Height (empty to skip)", os.Stdout)
	if err != nil {
		return err
	}
	var height *string
	if heightText != "" {
		height = &heightText
	}

	ailments, err := GetList(a.reader, "Ailments", os.Stdout)
	if err != nil {
		return err
	}
	medications, err := GetList(a.reader, "Medications", os.Stdout)
	if err != nil {
		return err
	}

	created, err := a.patients.Create(ctx, models.Patient{
		Name:        name,
		Age:         age,
		Gender:      gender,
		Height:      height,
		Ailments:    ailments,
		Medications: medications,
	})
	if err != nil {
		printlnFn(services.FailureMessage(err))
		return err
	}

	printlnFn("Added patient", created.Name, "with id", created.ID)
	return nil
}

// EditPatient applies a partial update to a cached patient. Empty answers
// leave the field untouched.
func (a *App) EditPatient(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Patient id", os.Stdout)
	if err != nil {
		return err
	}
	if a.patients.Get(id) == nil {
		printlnFn("No patient with id", id)
		return nil
	}

	var patch models.PatientPatch

	if name, err := getSimpleText(a.reader, "Name (empty to keep)", os.Stdout); err != nil {
		return err
	} else if name != "" {
		patch.Name = &name
	}

	if ageText, err := getSimpleText(a.reader, "Age (empty to keep)", os.Stdout); err != nil {
		return err
	} else if ageText != "" {
		age, err := strconv.Atoi(ageText)
		if err != nil || age < 0 {
			printlnFn("Age must be a non-negative number.")
			return nil
		}
		patch.Age = &age
	}

	if gender, err := getSimpleText(a.reader, "Gender (empty to keep)", os.Stdout); err != nil {
		return err
	} else if gender != "" {
		patch.Gender = &gender
	}

	if height, err := getSimpleText(a.reader, "Height (empty to keep)", os.Stdout); err != nil {
		return err
	} else if height != "" {
		patch.Height = &height
	}

	if ailments, err := GetList(a.reader, "Ailments", os.Stdout); err != nil {
		return err
	} else if ailments != nil {
		patch.Ailments = &ailments
	}

	if medications, err := GetList(a.reader, "Medications", os.Stdout); err != nil {
		return err
	} else if medications != nil {
		patch.Medications = &medications
	}

	if err := a.patients.Update(ctx, id, patch); err != nil {
		printlnFn(services.FailureMessage(err))
		return err
	}
	printlnFn("Updated.")
	return nil
}

// DeletePatient removes a patient on the backend and locally.
func (a *App) DeletePatient(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Patient id", os.Stdout)
	if err != nil {
		return err
	}

	confirm, err := getSimpleText(a.reader, "Delete patient "+id+"? (yes/no)", os.Stdout)
	if err != nil {
		return err
	}
	if confirm != "yes" {
		printlnFn("Cancelled.")
		return nil
	}

	if err := a.patients.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			printlnFn("No patient with id", id)
			return nil
		}
		printlnFn(services.FailureMessage(err))
		return err
	}
	printlnFn("Deleted.")
	return nil
}

// SelectPatient makes the given patient the active one for record commands.
func (a *App) SelectPatient(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: select <patient-id>")
		return nil
	}

	if err := a.patients.Select(ctx, args[0]); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			printlnFn("No patient with id", args[0])
			return nil
		}
		return err
	}

	p := a.patients.Selected()
	printlnFn("Selected", p.Name)
	return nil
}
