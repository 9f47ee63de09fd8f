package services

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ayurlekha/ayurlekha/internal/client/backend"
	"github.com/ayurlekha/ayurlekha/internal/client/cache"
	"github.com/ayurlekha/ayurlekha/internal/client/models"
	"github.com/ayurlekha/ayurlekha/internal/logging"
)

// ---- helpers ----

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := cache.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (nopLogger) With(args ...any) logging.Logger                    { return nopLogger{} }

// ---- fake backend ----

// fakeBackend implements backend.Client for unit tests. Behavior is driven
// by the exported fields; arguments of the last call are recorded for
// assertions.
type fakeBackend struct {
	SignInErr  error
	VerifyRet  *models.Session
	VerifyErr  error
	SessionRet *models.Session
	SessionErr error
	SignOutErr error

	UploadErr    error
	ListRet      []backend.ObjectInfo
	ListErr      error
	SignedURLRet string
	SignedURLErr error
	RemoveErr    error
	DownloadRet  []byte
	DownloadErr  error

	InsertPatientRet *models.Patient
	InsertPatientErr error
	ListPatientsRet  []models.Patient
	ListPatientsErr  error
	DeletePatientErr error

	InsertRecordRet *models.MedicalRecord
	InsertRecordErr error
	ListRecordsRet  []models.MedicalRecord
	ListRecordsErr  error
	DeleteRecordErr error

	// ListRecordsHook, when set, runs inside ListRecords before the canned
	// result is returned. Lets tests interleave another operation with an
	// in-flight fetch.
	ListRecordsHook func()

	LastSignInEmail     string
	LastVerifyEmail     string
	LastVerifyCode      string
	LastUploadBucket    string
	LastUploadPath      string
	LastUploadData      []byte
	LastUploadType      string
	LastListPrefix      string
	LastSignedPath      string
	LastSignedTTL       time.Duration
	LastRemovePaths     []string
	LastDownloadURL     string
	LastInsertRecord    *backend.NewRecord
	LastListPatientID   string
	LastDeleteRecordID  string
	LastDeletePatientID string

	callbacks []backend.AuthCallback
	restored  *models.Session
}

func (f *fakeBackend) SignInWithOTP(ctx context.Context, email string) error {
	f.LastSignInEmail = email
	return f.SignInErr
}

func (f *fakeBackend) VerifyOTP(ctx context.Context, email, code string) (*models.Session, error) {
	f.LastVerifyEmail = email
	f.LastVerifyCode = code
	if f.VerifyErr != nil {
		return nil, f.VerifyErr
	}
	f.emit(backend.EventSignedIn, f.VerifyRet)
	return f.VerifyRet, nil
}

func (f *fakeBackend) GetSession(ctx context.Context) (*models.Session, error) {
	return f.SessionRet, f.SessionErr
}

func (f *fakeBackend) RestoreSession(session *models.Session) { f.restored = session }

func (f *fakeBackend) OnAuthStateChange(cb backend.AuthCallback) func() {
	f.callbacks = append(f.callbacks, cb)
	return func() {}
}

func (f *fakeBackend) SignOut(ctx context.Context) error {
	f.emit(backend.EventSignedOut, nil)
	return f.SignOutErr
}

func (f *fakeBackend) emit(event backend.AuthEvent, sess *models.Session) {
	for _, cb := range f.callbacks {
		cb(event, sess)
	}
}

func (f *fakeBackend) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	f.LastUploadBucket = bucket
	f.LastUploadPath = path
	f.LastUploadData = append([]byte(nil), data...)
	f.LastUploadType = contentType
	return f.UploadErr
}

func (f *fakeBackend) List(ctx context.Context, bucket, prefix string) ([]backend.ObjectInfo, error) {
	f.LastListPrefix = prefix
	return f.ListRet, f.ListErr
}

func (f *fakeBackend) CreateSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	f.LastSignedPath = path
	f.LastSignedTTL = ttl
	return f.SignedURLRet, f.SignedURLErr
}

func (f *fakeBackend) Remove(ctx context.Context, bucket string, paths []string) error {
	f.LastRemovePaths = append([]string(nil), paths...)
	return f.RemoveErr
}

func (f *fakeBackend) PublicURL(bucket, path string) string {
	return "https://cdn.example.com/storage/v1/object/public/" + bucket + "/" + path
}

func (f *fakeBackend) Download(ctx context.Context, url string) ([]byte, error) {
	f.LastDownloadURL = url
	return f.DownloadRet, f.DownloadErr
}

func (f *fakeBackend) InsertPatient(ctx context.Context, p *models.Patient) (*models.Patient, error) {
	return f.InsertPatientRet, f.InsertPatientErr
}

func (f *fakeBackend) ListPatients(ctx context.Context) ([]models.Patient, error) {
	return f.ListPatientsRet, f.ListPatientsErr
}

func (f *fakeBackend) DeletePatient(ctx context.Context, id string) error {
	f.LastDeletePatientID = id
	return f.DeletePatientErr
}

func (f *fakeBackend) InsertRecord(ctx context.Context, rec *backend.NewRecord) (*models.MedicalRecord, error) {
	f.LastInsertRecord = rec
	return f.InsertRecordRet, f.InsertRecordErr
}

func (f *fakeBackend) ListRecords(ctx context.Context, patientID string) ([]models.MedicalRecord, error) {
	f.LastListPatientID = patientID
	if f.ListRecordsHook != nil {
		f.ListRecordsHook()
	}
	return f.ListRecordsRet, f.ListRecordsErr
}

func (f *fakeBackend) DeleteRecord(ctx context.Context, id string) error {
	f.LastDeleteRecordID = id
	return f.DeleteRecordErr
}

func (f *fakeBackend) Close() error { return nil }
