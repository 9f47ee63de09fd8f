// Package backend wraps the hosted platform the Ayurlekha client talks to:
// OTP authentication, object storage for document blobs, and the relational
// tables holding patient and record rows.
package backend

import (
	"context"
	"time"

	"github.com/ayurlekha/ayurlekha/internal/client/models"
)

// AuthEvent identifies a change of the authentication state.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// AuthCallback receives auth-state changes. The session is nil for
// EventSignedOut.
type AuthCallback func(event AuthEvent, session *models.Session)

// Auth is the authentication surface of the backend.
type Auth interface {
	// SignInWithOTP requests a one-time code to be e-mailed to the address.
	SignInWithOTP(ctx context.Context, email string) error

	// VerifyOTP exchanges the e-mailed code for a session.
	VerifyOTP(ctx context.Context, email, code string) (*models.Session, error)

	// GetSession returns the current session, refreshing an expired access
	// token when a refresh token is available. ErrUnauthorized means there is
	// no live session.
	GetSession(ctx context.Context) (*models.Session, error)

	// RestoreSession seeds the client with a previously persisted session.
	RestoreSession(session *models.Session)

	// OnAuthStateChange registers cb for the lifetime of the subscription and
	// returns the function that removes it.
	OnAuthStateChange(cb AuthCallback) (unsubscribe func())

	// SignOut invalidates the session on the backend.
	SignOut(ctx context.Context) error
}

// ObjectInfo describes one stored object within a listed folder.
type ObjectInfo struct {
	Name string
}

// ObjectStore is the blob-storage surface of the backend.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	CreateSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, bucket string, paths []string) error
	PublicURL(bucket, path string) string

	// Download fetches the object behind a signed or public URL. A URL whose
	// grant expired fails like any other fetch error.
	Download(ctx context.Context, url string) ([]byte, error)
}

// NewRecord is the insert payload for a medical_records row; the backend
// assigns id and timestamps.
type NewRecord struct {
	Title     string          `json:"title"`
	FileURL   string          `json:"file_url"`
	FileType  string          `json:"file_type"`
	Category  models.Category `json:"category"`
	PatientID string          `json:"patient_id"`
	Tags      []string        `json:"tags"`
}

// Tables is the relational surface of the backend. Deletes of ids that no
// longer exist succeed silently on every implementation, matching the hosted
// platform's behavior.
type Tables interface {
	InsertPatient(ctx context.Context, p *models.Patient) (*models.Patient, error)
	ListPatients(ctx context.Context) ([]models.Patient, error)
	DeletePatient(ctx context.Context, id string) error

	InsertRecord(ctx context.Context, rec *NewRecord) (*models.MedicalRecord, error)

	// ListRecords returns the caller's records newest first; an empty
	// patientID returns the union over all patients.
	ListRecords(ctx context.Context, patientID string) ([]models.MedicalRecord, error)

	DeleteRecord(ctx context.Context, id string) error
}

// Client is the full backend surface consumed by the services.
type Client interface {
	Auth
	ObjectStore
	Tables

	Close() error
}
