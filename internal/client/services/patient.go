package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/ayurlekha/ayurlekha/internal/client/backend"
	"github.com/ayurlekha/ayurlekha/internal/client/models"
	"github.com/ayurlekha/ayurlekha/internal/client/repositories/metadata"
	"github.com/ayurlekha/ayurlekha/internal/client/repositories/patients"
	"github.com/ayurlekha/ayurlekha/internal/common"
	"github.com/ayurlekha/ayurlekha/internal/dbx"
	"github.com/ayurlekha/ayurlekha/internal/logging"
)

// PatientService is the patient cache store: an ordered, durably persisted
// mirror of the patient list, plus the "selected patient" pointer.
//
// Every mutation is flushed to the local database before it returns, so a
// restart reproduces the last state exactly. The selection is a pointer, not
// ownership: resolving it against an id that is no longer present yields no
// selection.
type PatientService struct {
	mu sync.Mutex

	db     *sql.DB
	tables backend.Tables
	log    logging.Logger

	items      []models.Patient
	selectedID string
}

func NewPatientService(db *sql.DB, tables backend.Tables, log logging.Logger) *PatientService {
	return &PatientService{db: db, tables: tables, log: log}
}

func (s *PatientService) repo() patients.Repository {
	return patients.NewSQLiteRepository(s.db)
}

func (s *PatientService) meta() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

// Load restores the persisted mirror after a process restart. A selection
// pointing at a patient that is no longer stored is dropped.
func (s *PatientService) Load(ctx context.Context) error {
	items, err := s.repo().GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load patients: %w", err)
	}
	selected, err := s.meta().Get(ctx, metadata.KeySelectedPatient)
	if err != nil {
		return fmt.Errorf("load selection: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.selectedID = string(selected)
	if s.findLocked(s.selectedID) == nil {
		s.selectedID = ""
	}
	return nil
}

func (s *PatientService) findLocked(id string) *models.Patient {
	if id == "" {
		return nil
	}
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i]
		}
	}
	return nil
}

// List returns the patients in display order.
func (s *PatientService) List() []models.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Patient, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the patient with the given id, or nil.
func (s *PatientService) Get(id string) *models.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findLocked(id); p != nil {
		copied := *p
		return &copied
	}
	return nil
}

// Add appends a patient to the mirror and flushes it.
func (s *PatientService) Add(ctx context.Context, p models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo().Append(ctx, &p); err != nil {
		return err
	}
	s.items = append(s.items, p)
	return nil
}

// Update merges the patch into the matching entry. A missing id is a silent
// no-op, matching the behavior callers depend on.
func (s *PatientService) Update(ctx context.Context, id string, patch models.PatientPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findLocked(id)
	if p == nil {
		s.log.Debug(ctx, "update of unknown patient ignored", "patient_id", id)
		return nil
	}
	updated := *p
	updated.Apply(patch)
	if err := s.repo().Update(ctx, &updated); err != nil {
		return err
	}
	*p = updated
	return nil
}

// Remove deletes the matching entry. Removing the selected patient clears
// the selection.
func (s *PatientService) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo().DeleteByID(ctx, id); err != nil {
		return err
	}
	if s.selectedID == id {
		s.selectedID = ""
		if err := s.meta().Delete(ctx, metadata.KeySelectedPatient); err != nil {
			return err
		}
	}
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return nil
}

// Select points the selection at an existing patient.
func (s *PatientService) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(id) == nil {
		return common.ErrNotFound
	}
	if err := s.meta().Set(ctx, metadata.KeySelectedPatient, []byte(id)); err != nil {
		return err
	}
	s.selectedID = id
	return nil
}

// Selected resolves the selection pointer. A stale id yields nil, never a
// dangling reference.
func (s *PatientService) Selected() *models.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findLocked(s.selectedID); p != nil {
		copied := *p
		return &copied
	}
	return nil
}

// Clear empties the collection and the selection. Invoked on sign-out so one
// user's patients never leak into the next session on the same device.
func (s *PatientService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := patients.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		return metadata.NewSQLiteRepository(tx).Delete(ctx, metadata.KeySelectedPatient)
	})
	if err != nil {
		return fmt.Errorf("clear patients: %w", err)
	}
	s.items = nil
	s.selectedID = ""
	return nil
}

// Create registers the patient on the backend and mirrors the returned row
// (with its server-assigned id) locally.
func (s *PatientService) Create(ctx context.Context, p models.Patient) (*models.Patient, error) {
	created, err := s.tables.InsertPatient(ctx, &p)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	if err := s.Add(ctx, *created); err != nil {
		return nil, err
	}
	return created, nil
}

// Delete removes the patient on the backend, then from the mirror.
func (s *PatientService) Delete(ctx context.Context, id string) error {
	if err := s.tables.DeletePatient(ctx, id); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return s.Remove(ctx, id)
}

// Refresh replaces the mirror with the backend's patient list.
func (s *PatientService) Refresh(ctx context.Context) error {
	rows, err := s.tables.ListPatients(ctx)
	if err != nil {
		return fmt.Errorf("refresh patients: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := patients.NewSQLiteRepository(tx)
		if err := repo.Clear(ctx); err != nil {
			return err
		}
		for i := range rows {
			if err := repo.Append(ctx, &rows[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("refresh patients: %w", err)
	}
	s.items = rows
	if s.findLocked(s.selectedID) == nil {
		s.selectedID = ""
	}
	return nil
}
