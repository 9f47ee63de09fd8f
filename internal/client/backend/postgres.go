package backend

import (
	"context"
	"fmt"

	"github.com/ayurlekha/ayurlekha/internal/client/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGTables implements Tables directly against the platform's underlying
// Postgres database. Self-hosted deployments use it instead of the REST
// surface; row-level security is the DSN role's problem, not ours.
type PGTables struct {
	pool *pgxpool.Pool
}

func NewPGTables(ctx context.Context, dsn string) (*PGTables, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PGTables{pool: pool}, nil
}

func (t *PGTables) Close() error {
	t.pool.Close()
	return nil
}

func (t *PGTables) InsertPatient(ctx context.Context, p *models.Patient) (*models.Patient, error) {
	row := t.pool.QueryRow(ctx, `
		INSERT INTO patients (name, age, gender, height, ailments, medications)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, age, gender, height, ailments, medications`,
		p.Name, p.Age, p.Gender, p.Height, p.Ailments, p.Medications)

	var out models.Patient
	if err := row.Scan(&out.ID, &out.Name, &out.Age, &out.Gender, &out.Height, &out.Ailments, &out.Medications); err != nil {
		return nil, fmt.Errorf("insert patient: %w", err)
	}
	return &out, nil
}

func (t *PGTables) ListPatients(ctx context.Context) ([]models.Patient, error) {
	rows, err := t.pool.Query(ctx, `
		SELECT id, name, age, gender, height, ailments, medications
		FROM patients ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var result []models.Patient
	for rows.Next() {
		var p models.Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.Height, &p.Ailments, &p.Medications); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (t *PGTables) DeletePatient(ctx context.Context, id string) error {
	if _, err := t.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

func (t *PGTables) InsertRecord(ctx context.Context, rec *NewRecord) (*models.MedicalRecord, error) {
	row := t.pool.QueryRow(ctx, `
		INSERT INTO medical_records (title, file_url, file_type, category, patient_id, tags)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, title, file_url, file_type, category, patient_id, tags, created_at, updated_at`,
		rec.Title, rec.FileURL, rec.FileType, string(rec.Category), rec.PatientID, rec.Tags)

	var out models.MedicalRecord
	if err := scanRecord(row, &out); err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	return &out, nil
}

func (t *PGTables) ListRecords(ctx context.Context, patientID string) ([]models.MedicalRecord, error) {
	query := `SELECT id, title, file_url, file_type, category, patient_id, tags, created_at, updated_at
		FROM medical_records`
	args := []any{}
	if patientID != "" {
		query += ` WHERE patient_id = $1`
		args = append(args, patientID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := t.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var result []models.MedicalRecord
	for rows.Next() {
		var rec models.MedicalRecord
		if err := scanRecord(rows, &rec); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (t *PGTables) DeleteRecord(ctx context.Context, id string) error {
	if _, err := t.pool.Exec(ctx, `DELETE FROM medical_records WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, rec *models.MedicalRecord) error {
	var category string
	if err := row.Scan(&rec.ID, &rec.Title, &rec.FileURL, &rec.FileType, &category,
		&rec.PatientID, &rec.Tags, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return err
	}
	rec.Category = models.Category(category)
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	return nil
}
