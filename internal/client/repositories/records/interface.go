// Package records persists the local mirror of uploaded-document metadata.
package records

import (
	"context"

	"github.com/ayurlekha/ayurlekha/internal/client/models"
)

// Repository stores medical records in display order (most recent first, as
// delivered by the backend). The stored order, not timestamps, is what a
// reload reproduces: server ordering is authoritative at fetch time.
type Repository interface {
	// GetAll returns all records in stored display order.
	GetAll(ctx context.Context) ([]models.MedicalRecord, error)

	// ReplaceAll atomically swaps the whole collection for rows, preserving
	// their order.
	ReplaceAll(ctx context.Context, rows []models.MedicalRecord) error

	// Prepend puts rec ahead of every stored record.
	Prepend(ctx context.Context, rec *models.MedicalRecord) error

	// Update rewrites a stored record's fields in place, keeping its
	// position. A missing id is a no-op.
	Update(ctx context.Context, rec *models.MedicalRecord) error

	// DeleteByID removes a record, if present.
	DeleteByID(ctx context.Context, id string) error

	// Clear empties the collection.
	Clear(ctx context.Context) error
}
