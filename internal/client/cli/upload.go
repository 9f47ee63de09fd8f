package cli

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/ayurlekha/ayurlekha/internal/client/models"
	"github.com/ayurlekha/ayurlekha/internal/client/services"
	"github.com/ayurlekha/ayurlekha/internal/common"
)

// UploadDocument interactively uploads a local file for the selected
// patient and registers the matching record.
func (a *App) UploadDocument(ctx context.Context) error {
	patient := a.patients.Selected()
	if patient == nil {
		printlnFn("Select a patient first ('select <id>').")
		return nil
	}

	path, err := getSimpleText(a.reader, "File path", os.Stdout)
	if err != nil {
		return err
	}
	if path == "" {
		printlnFn("Cancelled.")
		return nil
	}

	categories := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		categories[i] = string(c)
	}
	categoryText, err := getSimpleText(a.reader,
		"Category ("+strings.Join(categories, ", ")+"; empty for General)", os.Stdout)
	if err != nil {
		return err
	}

	tags, err := GetList(a.reader, "Tags", os.Stdout)
	if err != nil {
		return err
	}

	printlnFn("Uploading...")
	rec, err := a.uploads.Upload(ctx, &services.UploadRequest{
		FilePath:  path,
		PatientID: patient.ID,
		Category:  models.ParseCategory(categoryText),
		Tags:      tags,
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidPatientID) {
			printlnFn("The selected patient has an invalid id; refresh patients and retry.")
			return err
		}
		printlnFn(services.FailureMessage(err))
		return err
	}

	printlnFn("Uploaded", rec.Title, "as record", rec.ID)
	return nil
}
