package records

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ayurlekha/ayurlekha/internal/client/models"
	"github.com/ayurlekha/ayurlekha/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
//
// ReplaceAll issues several statements; run it inside dbx.WithTx when the
// swap must be atomic.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

const insertQuery = `INSERT INTO records
	(id, position, title, file_url, file_type, category, patient_id, tags, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *SQLiteRepository) insertAt(ctx context.Context, rec *models.MedicalRecord, position int) error {
	tags, err := encodeTags(rec.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	_, err = r.db.ExecContext(ctx, insertQuery,
		rec.ID, position, rec.Title, rec.FileURL, rec.FileType, string(rec.Category),
		rec.PatientID, tags, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole stored collection for rows, keeping their order.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, rows []models.MedicalRecord) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	for i := range rows {
		if err := r.insertAt(ctx, &rows[i], i+1); err != nil {
			return err
		}
	}
	return nil
}

// Prepend stores rec ahead of every existing record.
func (r *SQLiteRepository) Prepend(ctx context.Context, rec *models.MedicalRecord) error {
	var position int
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MIN(position), 1) - 1 FROM records`).Scan(&position)
	if err != nil {
		return fmt.Errorf("failed to find first position: %w", err)
	}
	return r.insertAt(ctx, rec, position)
}

// Update rewrites the matching row's fields, keeping its position.
func (r *SQLiteRepository) Update(ctx context.Context, rec *models.MedicalRecord) error {
	tags, err := encodeTags(rec.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `UPDATE records
		SET title=?, file_url=?, file_type=?, category=?, patient_id=?, tags=?, created_at=?, updated_at=?
		WHERE id=?`,
		rec.Title, rec.FileURL, rec.FileType, string(rec.Category), rec.PatientID, tags,
		rec.CreatedAt, rec.UpdatedAt, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

// GetAll lists all records in stored display order.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.MedicalRecord, error) {
	query := `SELECT id, title, file_url, file_type, category, patient_id, tags, created_at, updated_at
		FROM records ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []models.MedicalRecord
	for rows.Next() {
		var item models.MedicalRecord
		var category, tags string
		if err := rows.Scan(&item.ID, &item.Title, &item.FileURL, &item.FileType, &category,
			&item.PatientID, &tags, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		item.Category = models.Category(category)
		if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
		if item.Tags == nil {
			item.Tags = []string{}
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteByID removes the matching row, if any.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Clear empties the record table.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM records`)
	if err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}
