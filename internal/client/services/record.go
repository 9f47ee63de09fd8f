package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ayurlekha/ayurlekha/internal/client/backend"
	"github.com/ayurlekha/ayurlekha/internal/client/models"
	"github.com/ayurlekha/ayurlekha/internal/client/repositories/records"
	"github.com/ayurlekha/ayurlekha/internal/common"
	"github.com/ayurlekha/ayurlekha/internal/dbx"
	"github.com/ayurlekha/ayurlekha/internal/logging"
)

// CategoryAll is the filter value meaning "no category filter".
const CategoryAll = "all"

// RecordService is the record cache store: a durably persisted mirror of
// uploaded-document metadata, refetchable filtered by patient.
//
// A fetch replaces the whole collection with the backend's response in the
// backend's order (most recent first). On failure the previous collection is
// kept: stale but available beats empty. Clearing bumps an epoch counter so
// a fetch that was in flight when the cache was cleared cannot resurrect the
// old data when it finally resolves.
type RecordService struct {
	mu sync.Mutex

	db     *sql.DB
	client backend.Client
	log    logging.Logger

	bucket    string
	signedTTL time.Duration

	items   []models.MedicalRecord
	loading bool
	lastErr string
	epoch   int

	// openingID guards document opens: a second open while one is still
	// resolving is rejected rather than queued.
	openingID string
}

func NewRecordService(db *sql.DB, client backend.Client, bucket string, signedTTL time.Duration, log logging.Logger) *RecordService {
	return &RecordService{db: db, client: client, bucket: bucket, signedTTL: signedTTL, log: log}
}

func (s *RecordService) repo() records.Repository {
	return records.NewSQLiteRepository(s.db)
}

// Load restores the persisted mirror after a process restart.
func (s *RecordService) Load(ctx context.Context) error {
	items, err := s.repo().GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// List returns the cached records, most recent first.
func (s *RecordService) List() []models.MedicalRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MedicalRecord, len(s.items))
	copy(out, s.items)
	return out
}

// Loading reports whether a fetch is in flight.
func (s *RecordService) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the message of the last failed fetch, empty after a success
// or a clear.
func (s *RecordService) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Get returns the cached record with the given id, or nil.
func (s *RecordService) Get(id string) *models.MedicalRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			copied := s.items[i]
			return &copied
		}
	}
	return nil
}

// Fetch replaces the local record set with the backend's response for the
// given patient filter; an empty patientID fetches all of the caller's
// records. On failure the previously cached data stays available and the
// error message is recorded in state.
func (s *RecordService) Fetch(ctx context.Context, patientID string) error {
	s.mu.Lock()
	s.loading = true
	s.lastErr = ""
	epoch := s.epoch
	s.mu.Unlock()

	rows, err := s.client.ListRecords(ctx, patientID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if s.epoch != epoch {
		// Cache was cleared while the fetch was in flight; the result
		// belongs to a signed-out session and must not reappear.
		s.log.Debug(ctx, "discarding stale record fetch", "patient_id", patientID)
		return nil
	}
	if err != nil {
		s.lastErr = FailureMessage(err)
		s.log.Warn(ctx, "record fetch failed", "patient_id", patientID, "error", err)
		return fmt.Errorf("fetch records: %w", err)
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return records.NewSQLiteRepository(tx).ReplaceAll(ctx, rows)
	}); err != nil {
		s.lastErr = FailureMessage(err)
		s.log.Warn(ctx, "record persist failed", "patient_id", patientID, "error", err)
		return fmt.Errorf("persist records: %w", err)
	}
	s.items = rows
	return nil
}

// Add prepends a freshly uploaded record ahead of the cached collection,
// keeping it visible until the next full fetch. An id already present is
// replaced in place instead of duplicated.
func (s *RecordService) Add(ctx context.Context, rec *models.MedicalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == rec.ID {
			if err := s.repo().Update(ctx, rec); err != nil {
				return err
			}
			s.items[i] = *rec
			return nil
		}
	}

	if err := s.repo().Prepend(ctx, rec); err != nil {
		return err
	}
	s.items = append([]models.MedicalRecord{*rec}, s.items...)
	return nil
}

// Clear empties the collection and error state. Invoked on sign-out.
func (s *RecordService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo().Clear(ctx); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	s.items = nil
	s.lastErr = ""
	s.epoch++
	return nil
}

// Filter narrows the cached records by category and free-text search; the
// two compose. category is a Category name or CategoryAll; the query matches
// title, category, or any tag, case-insensitively.
func (s *RecordService) Filter(category, query string) []models.MedicalRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.MedicalRecord
	for i := range s.items {
		rec := &s.items[i]
		if !strings.EqualFold(category, CategoryAll) && !strings.EqualFold(string(rec.Category), category) {
			continue
		}
		if !rec.Matches(query) {
			continue
		}
		out = append(out, *rec)
	}
	return out
}

// Open produces a short-lived signed URL for the record's document blob.
// Only one open may be in flight at a time; a concurrent open returns
// ErrOpenInFlight. Expiry of the returned grant is not tracked: a stale link
// fails on next use like any other fetch error.
func (s *RecordService) Open(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	if s.openingID != "" {
		s.mu.Unlock()
		return "", ErrOpenInFlight
	}
	var rec *models.MedicalRecord
	for i := range s.items {
		if s.items[i].ID == id {
			copied := s.items[i]
			rec = &copied
			break
		}
	}
	if rec == nil {
		s.mu.Unlock()
		return "", common.ErrNotFound
	}
	s.openingID = id
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.openingID = ""
		s.mu.Unlock()
	}()

	path := rec.StoragePath(s.bucket)
	if path == "" {
		return "", fmt.Errorf("record %s: cannot derive storage path from %q", id, rec.FileURL)
	}
	url, err := s.client.CreateSignedURL(ctx, s.bucket, path, s.signedTTL)
	if err != nil {
		return "", fmt.Errorf("open record: %w", err)
	}
	return url, nil
}

// Meta fetches the record's analysis sidecar. Every failure degrades to
// "no metadata" so a missing sidecar never breaks the record view.
func (s *RecordService) Meta(ctx context.Context, id string) *models.RecordMeta {
	rec := s.Get(id)
	if rec == nil {
		return nil
	}
	metaPath := rec.MetadataPath(s.bucket)
	if metaPath == "" {
		return nil
	}

	url, err := s.client.CreateSignedURL(ctx, s.bucket, metaPath, s.signedTTL)
	if err != nil {
		s.log.Debug(ctx, "no metadata sidecar", "record_id", id, "error", err)
		return nil
	}
	data, err := s.client.Download(ctx, url)
	if err != nil {
		s.log.Debug(ctx, "metadata fetch failed", "record_id", id, "error", err)
		return nil
	}

	var meta models.RecordMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		s.log.Debug(ctx, "metadata unreadable", "record_id", id, "error", err)
		return nil
	}
	return &meta
}

// Delete removes the record row on the backend, then best-effort removes the
// blob, then drops the record from the mirror. A storage failure after the
// row is gone is logged, not propagated.
func (s *RecordService) Delete(ctx context.Context, id string) error {
	rec := s.Get(id)
	if rec == nil {
		return common.ErrNotFound
	}

	if err := s.client.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	if path := rec.StoragePath(s.bucket); path != "" {
		if err := s.client.Remove(ctx, s.bucket, []string{path}); err != nil {
			s.log.Warn(ctx, "blob removal failed after record delete", "record_id", id, "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo().DeleteByID(ctx, id); err != nil {
		return err
	}
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return nil
}
