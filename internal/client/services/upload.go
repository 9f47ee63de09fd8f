package services

import (
	"context"
	"fmt"
	"mime"
	"time"

	"github.com/google/uuid"

	"github.com/ayurlekha/ayurlekha/internal/client/backend"
	"github.com/ayurlekha/ayurlekha/internal/client/models"
	"github.com/ayurlekha/ayurlekha/internal/common"
	"github.com/ayurlekha/ayurlekha/internal/filex"
	"github.com/ayurlekha/ayurlekha/internal/logging"
)

// UploadRequest describes one document to push to the backend.
type UploadRequest struct {
	// FilePath is the local file to upload.
	FilePath string
	// FileName overrides the display name; empty means the base of FilePath.
	FileName string
	// PatientID must be a valid UUID of an existing patient.
	PatientID string
	// Category defaults to CategoryGeneral when empty.
	Category models.Category
	Tags     []string
}

// UploadService pushes documents to object storage and registers the
// matching record row. The blob goes up first; if the row insert then fails
// the orphaned blob is removed best-effort.
type UploadService struct {
	client  backend.Client
	records *RecordService
	session *SessionService
	log     logging.Logger

	bucket string
}

func NewUploadService(client backend.Client, records *RecordService, session *SessionService, bucket string, log logging.Logger) *UploadService {
	return &UploadService{client: client, records: records, session: session, bucket: bucket, log: log}
}

// Upload stores the document under {userID}/{patientID}/ with a
// collision-proof name, inserts the record row, and prepends the new record
// to the local cache. The patient id is validated before any network call.
func (s *UploadService) Upload(ctx context.Context, req *UploadRequest) (*models.MedicalRecord, error) {
	if uuid.Validate(req.PatientID) != nil {
		return nil, common.ErrInvalidPatientID
	}
	sess := s.session.Current()
	if sess == nil {
		return nil, backend.ErrUnauthorized
	}

	data, err := filex.ReadDocument(req.FilePath)
	if err != nil {
		return nil, err
	}

	name := req.FileName
	if name == "" {
		name = req.FilePath
	}
	ext := filex.Ext(name)

	contentType := mime.TypeByExtension("." + ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	category := req.Category
	if category == "" {
		category = models.CategoryGeneral
	}

	suffix, err := common.MakeRandHexString(4)
	if err != nil {
		return nil, fmt.Errorf("generate file name: %w", err)
	}
	path := fmt.Sprintf("%s/%s/%d-%s.%s",
		sess.UserID, req.PatientID, time.Now().UnixMilli(), suffix, ext)

	if err := s.client.Upload(ctx, s.bucket, path, data, contentType); err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}

	rec, err := s.client.InsertRecord(ctx, &backend.NewRecord{
		Title:     filex.TitleFromName(name),
		FileURL:   s.client.PublicURL(s.bucket, path),
		FileType:  ext,
		Category:  category,
		PatientID: req.PatientID,
		Tags:      req.Tags,
	})
	if err != nil {
		// The blob is orphaned without its row; try to take it back down.
		if rmErr := s.client.Remove(ctx, s.bucket, []string{path}); rmErr != nil {
			s.log.Warn(ctx, "orphaned blob cleanup failed", "path", path, "error", rmErr)
		}
		return nil, fmt.Errorf("register record: %w", err)
	}

	if err := s.records.Add(ctx, rec); err != nil {
		s.log.Warn(ctx, "caching uploaded record failed", "record_id", rec.ID, "error", err)
	}
	return rec, nil
}
