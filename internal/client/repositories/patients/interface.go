// Package patients persists the local mirror of the patient list.
package patients

import (
	"context"

	"github.com/ayurlekha/ayurlekha/internal/client/models"
)

// Repository stores patients in insertion order. Reloading after a process
// restart must reproduce the last-flushed list exactly, including which
// optional fields were absent.
type Repository interface {
	// GetAll returns all patients ordered by insertion position.
	GetAll(ctx context.Context) ([]models.Patient, error)

	// Append adds a patient at the end of the display order.
	Append(ctx context.Context, p *models.Patient) error

	// Update replaces the stored row for p.ID. A missing id is not an error.
	Update(ctx context.Context, p *models.Patient) error

	// DeleteByID removes the patient with the given id, if present.
	DeleteByID(ctx context.Context, id string) error

	// Clear empties the collection.
	Clear(ctx context.Context) error
}
