package patients

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ayurlekha/ayurlekha/internal/client/models"
	"github.com/ayurlekha/ayurlekha/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// encodeList marshals a string list to JSON text, mapping nil to SQL NULL so
// an absent optional field stays absent after a reload.
func encodeList(list []string) (sql.NullString, error) {
	if list == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeList(v sql.NullString) ([]string, error) {
	if !v.Valid {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(v.String), &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func toRow(p *models.Patient) (height sql.NullString, ailments sql.NullString, medications sql.NullString, err error) {
	if p.Height != nil {
		height = sql.NullString{String: *p.Height, Valid: true}
	}
	ailments, err = encodeList(p.Ailments)
	if err != nil {
		return
	}
	medications, err = encodeList(p.Medications)
	return
}

// Append inserts p after the current last position.
func (r *SQLiteRepository) Append(ctx context.Context, p *models.Patient) error {
	height, ailments, medications, err := toRow(p)
	if err != nil {
		return fmt.Errorf("failed to encode patient: %w", err)
	}

	query := `INSERT INTO patients (id, position, name, age, gender, height, ailments, medications)
			VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM patients), ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Age, p.Gender, height, ailments, medications)
	if err != nil {
		return fmt.Errorf("failed to insert patient: %w", err)
	}
	return nil
}

// Update rewrites the stored fields for p.ID, keeping its position.
// A missing id affects zero rows and is not reported as an error.
func (r *SQLiteRepository) Update(ctx context.Context, p *models.Patient) error {
	height, ailments, medications, err := toRow(p)
	if err != nil {
		return fmt.Errorf("failed to encode patient: %w", err)
	}

	query := `UPDATE patients SET name=?, age=?, gender=?, height=?, ailments=?, medications=? WHERE id=?`
	_, err = r.db.ExecContext(ctx, query,
		p.Name, p.Age, p.Gender, height, ailments, medications, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	return nil
}

// GetAll lists all patients ordered by insertion position.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Patient, error) {
	query := `SELECT id, name, age, gender, height, ailments, medications FROM patients ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select patients: %w", err)
	}
	defer rows.Close()

	var result []models.Patient
	for rows.Next() {
		var item models.Patient
		var height, ailments, medications sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &item.Age, &item.Gender, &height, &ailments, &medications); err != nil {
			return nil, err
		}
		if height.Valid {
			h := height.String
			item.Height = &h
		}
		if item.Ailments, err = decodeList(ailments); err != nil {
			return nil, fmt.Errorf("failed to decode ailments: %w", err)
		}
		if item.Medications, err = decodeList(medications); err != nil {
			return nil, fmt.Errorf("failed to decode medications: %w", err)
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
	_, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	return nil
}

// Clear empties the patient table.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM patients`)
	if err != nil {
		return fmt.Errorf("failed to clear patients: %w", err)
	}
	return nil
}
