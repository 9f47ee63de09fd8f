package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ayurlekha/ayurlekha/internal/client/backend"
	"github.com/ayurlekha/ayurlekha/internal/client/models"
	"github.com/ayurlekha/ayurlekha/internal/client/otp"
	"github.com/ayurlekha/ayurlekha/internal/client/repositories/metadata"
	"github.com/ayurlekha/ayurlekha/internal/logging"
)

// AuthState is the client's authentication phase.
type AuthState string

const (
	// StateAnonymous: no live session, sign-in has not started.
	StateAnonymous AuthState = "anonymous"
	// StateAuthenticating: a code has been requested and awaits verification.
	StateAuthenticating AuthState = "authenticating"
	// StateAuthenticated: a live session exists.
	StateAuthenticated AuthState = "authenticated"
)

// SessionService owns the authentication state machine and the persisted
// session. State transitions are driven by backend auth events, so a session
// acquired, refreshed, or lost anywhere in the client converges here.
//
// Sign-out clears every local cache; the backend call itself is best-effort.
type SessionService struct {
	mu sync.Mutex

	db     *sql.DB
	client backend.Client
	log    logging.Logger

	patients *PatientService
	records  *RecordService

	state   AuthState
	current *models.Session
	pending string // email awaiting code verification
	loading bool

	unsub func()
}

func NewSessionService(db *sql.DB, client backend.Client, patients *PatientService, records *RecordService, log logging.Logger) *SessionService {
	return &SessionService{
		db:       db,
		client:   client,
		patients: patients,
		records:  records,
		log:      log,
		state:    StateAnonymous,
	}
}

func (s *SessionService) meta() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

// Start subscribes to backend auth events and attempts to resume the
// persisted session. A restore failure leaves the client anonymous but keeps
// the persisted tokens: a transient outage at startup should not force a
// fresh sign-in on the next run.
func (s *SessionService) Start(ctx context.Context) {
	s.unsub = s.client.OnAuthStateChange(s.handleAuthEvent)

	stored, err := s.loadPersisted(ctx)
	if err != nil {
		s.log.Warn(ctx, "persisted session unreadable", "error", err)
		return
	}
	if stored == nil {
		return
	}

	s.client.RestoreSession(stored)
	sess, err := s.client.GetSession(ctx)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			s.log.Info(ctx, "persisted session rejected, sign-in required")
		} else {
			s.log.Warn(ctx, "session restore failed", "error", err)
		}
		return
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.current = sess
	s.mu.Unlock()
	s.persist(ctx, sess)
}

// Stop detaches from backend auth events.
func (s *SessionService) Stop() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}

// handleAuthEvent is the single place session state changes land, whatever
// triggered them. Not called with s.mu held.
func (s *SessionService) handleAuthEvent(event backend.AuthEvent, sess *models.Session) {
	ctx := context.Background()

	switch event {
	case backend.EventSignedIn, backend.EventTokenRefreshed:
		s.mu.Lock()
		s.state = StateAuthenticated
		s.current = sess
		s.pending = ""
		s.mu.Unlock()
		s.persist(ctx, sess)

	case backend.EventSignedOut:
		s.mu.Lock()
		s.state = StateAnonymous
		s.current = nil
		s.pending = ""
		s.mu.Unlock()

		if err := s.meta().Delete(ctx, metadata.KeySession); err != nil {
			s.log.Warn(ctx, "clearing persisted session failed", "error", err)
		}
		if err := s.patients.Clear(ctx); err != nil {
			s.log.Warn(ctx, "clearing patient cache failed", "error", err)
		}
		if err := s.records.Clear(ctx); err != nil {
			s.log.Warn(ctx, "clearing record cache failed", "error", err)
		}
	}
}

// BeginSignIn validates the address and requests a one-time code. On success
// the state moves to authenticating; on failure it stays where it was.
func (s *SessionService) BeginSignIn(ctx context.Context, email string) error {
	normalized, err := otp.NormalizeEmail(email)
	if err != nil {
		return err
	}

	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.client.SignInWithOTP(ctx, normalized); err != nil {
		return fmt.Errorf("request code: %w", err)
	}

	s.mu.Lock()
	s.state = StateAuthenticating
	s.pending = normalized
	s.mu.Unlock()
	return nil
}

// CompleteSignIn exchanges the e-mailed code for a session. The resulting
// SIGNED_IN event moves the state machine; a failed verification keeps the
// client in the authenticating state so the code can be retried or resent.
func (s *SessionService) CompleteSignIn(ctx context.Context, code string) error {
	s.mu.Lock()
	email := s.pending
	s.mu.Unlock()
	if email == "" {
		return errors.New("no sign-in in progress")
	}

	s.setLoading(true)
	defer s.setLoading(false)

	if _, err := s.client.VerifyOTP(ctx, email, code); err != nil {
		return err
	}
	return nil
}

// ResendCode requests a fresh code for the e-mail awaiting verification.
func (s *SessionService) ResendCode(ctx context.Context) error {
	s.mu.Lock()
	email := s.pending
	s.mu.Unlock()
	if email == "" {
		return errors.New("no sign-in in progress")
	}

	s.setLoading(true)
	defer s.setLoading(false)
	return s.client.SignInWithOTP(ctx, email)
}

// CancelSignIn abandons a pending verification.
func (s *SessionService) CancelSignIn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAuthenticating {
		s.state = StateAnonymous
		s.pending = ""
	}
}

// SignOut ends the session. The backend call is best-effort: local state and
// caches are cleared through the SIGNED_OUT event even when the network call
// fails.
func (s *SessionService) SignOut(ctx context.Context) {
	s.setLoading(true)
	defer s.setLoading(false)

	// SignOut emits SIGNED_OUT synchronously; s.mu must not be held here.
	if err := s.client.SignOut(ctx); err != nil {
		s.log.Warn(ctx, "backend sign-out failed", "error", err)
	}
}

// State returns the current authentication phase.
func (s *SessionService) State() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the live session, or nil.
func (s *SessionService) Current() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// PendingEmail returns the address awaiting code verification.
func (s *SessionService) PendingEmail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Loading reports whether an auth operation is in flight.
func (s *SessionService) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Authenticated reports whether a live session exists.
func (s *SessionService) Authenticated() bool {
	return s.State() == StateAuthenticated
}

func (s *SessionService) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *SessionService) persist(ctx context.Context, sess *models.Session) {
	data, err := json.Marshal(sess)
	if err != nil {
		s.log.Warn(ctx, "session marshal failed", "error", err)
		return
	}
	if err := s.meta().Set(ctx, metadata.KeySession, data); err != nil {
		s.log.Warn(ctx, "persisting session failed", "error", err)
	}
}

func (s *SessionService) loadPersisted(ctx context.Context) (*models.Session, error) {
	data, err := s.meta().Get(ctx, metadata.KeySession)
	if err != nil || data == nil {
		return nil, err
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}
