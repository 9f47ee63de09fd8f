package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ayurlekha/ayurlekha/internal/client/models"
)

// RESTClient talks to the hosted platform over its HTTP API: /auth/v1 for
// OTP authentication, /rest/v1 for the relational tables and /storage/v1 for
// document blobs.
//
// The client holds the current session and retries a request once after a
// token refresh when the backend reports the access token as expired.
type RESTClient struct {
	baseURL string
	anonKey string
	httpc   *http.Client

	mu          sync.Mutex
	session     *models.Session
	subscribers map[int]AuthCallback
	nextSubID   int
}

// NewRESTClient returns a client for the platform instance at baseURL,
// e.g. "https://myproject.example.co".
func NewRESTClient(baseURL, anonKey string) *RESTClient {
	return &RESTClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		anonKey:     anonKey,
		httpc:       &http.Client{Timeout: 30 * time.Second},
		subscribers: make(map[int]AuthCallback),
	}
}

func (c *RESTClient) Close() error {
	c.httpc.CloseIdleConnections()
	return nil
}

// ---- request plumbing ----

func (c *RESTClient) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session.AccessToken
	}
	return ""
}

// newRequest builds a request with the platform headers. When the client has
// a session its access token is used as the bearer, otherwise the anon key.
func (c *RESTClient) newRequest(ctx context.Context, method, rawURL string, body []byte, contentType string) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.anonKey)
	token := c.accessToken()
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func mapStatus(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, strings.TrimSpace(string(body)))
	case status == http.StatusNotFound:
		return fmt.Errorf("%w", ErrNotFound)
	default:
		return fmt.Errorf("backend returned %d: %s", status, strings.TrimSpace(string(body)))
	}
}

// send performs req and returns the response body. A transport failure maps
// to ErrUnavailable; a non-2xx status maps through mapStatus.
func (c *RESTClient) send(req *http.Request) ([]byte, error) {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, mapStatus(resp.StatusCode, body)
	}
	return body, nil
}

// call sends a request and, when the backend rejects an expired access token,
// refreshes the session once and replays the request.
func (c *RESTClient) call(ctx context.Context, method, rawURL string, body []byte, contentType string, extraHeaders map[string]string) ([]byte, error) {
	attempt := func() ([]byte, error) {
		req, err := c.newRequest(ctx, method, rawURL, body, contentType)
		if err != nil {
			return nil, err
		}
		for k, v := range extraHeaders {
			req.Header.Set(k, v)
		}
		return c.send(req)
	}

	respBody, err := attempt()
	if err == nil || !isUnauthorized(err) {
		return respBody, err
	}

	c.mu.Lock()
	hasRefresh := c.session != nil && c.session.RefreshToken != ""
	c.mu.Unlock()
	if !hasRefresh {
		return nil, err
	}
	if _, refreshErr := c.refreshSession(ctx); refreshErr != nil {
		return nil, err
	}
	return attempt()
}

func isUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// ---- auth ----

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (t *tokenResponse) session() *models.Session {
	s := &models.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		UserID:       t.User.ID,
		Email:        t.User.Email,
	}
	if t.ExpiresIn > 0 {
		s.ExpiresAt = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	if s.UserID == "" {
		// Some token grants omit the user object; fall back to the claims.
		if uid, email, exp, err := ParseAccessToken(t.AccessToken); err == nil {
			s.UserID = uid
			s.Email = email
			if s.ExpiresAt.IsZero() {
				s.ExpiresAt = exp
			}
		}
	}
	return s
}

func (c *RESTClient) authURL(path string) string {
	return c.baseURL + "/auth/v1" + path
}

func (c *RESTClient) SignInWithOTP(ctx context.Context, email string) error {
	payload, err := json.Marshal(map[string]any{
		"email":       email,
		"create_user": true,
	})
	if err != nil {
		return err
	}
	if _, err := c.call(ctx, http.MethodPost, c.authURL("/otp"), payload, "application/json", nil); err != nil {
		return fmt.Errorf("request otp: %w", err)
	}
	return nil
}

func (c *RESTClient) VerifyOTP(ctx context.Context, email, code string) (*models.Session, error) {
	payload, err := json.Marshal(map[string]string{
		"type":  "email",
		"email": email,
		"token": code,
	})
	if err != nil {
		return nil, err
	}

	body, err := c.call(ctx, http.MethodPost, c.authURL("/verify"), payload, "application/json", nil)
	if err != nil {
		return nil, classifyVerifyError(err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}

	session := tr.session()
	c.setSession(session)
	c.emit(EventSignedIn, session)
	return session, nil
}

// classifyVerifyError distinguishes expired from invalid codes for display
// copy only; callers treat both identically.
func classifyVerifyError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "expired") {
		return fmt.Errorf("%w: %v", ErrExpiredCode, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidCode, err)
}

func (c *RESTClient) GetSession(ctx context.Context) (*models.Session, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return nil, ErrUnauthorized
	}
	if session.Expired() && session.RefreshToken != "" {
		return c.refreshSession(ctx)
	}
	copied := *session
	return &copied, nil
}

func (c *RESTClient) refreshSession(ctx context.Context) (*models.Session, error) {
	c.mu.Lock()
	refreshToken := ""
	if c.session != nil {
		refreshToken = c.session.RefreshToken
	}
	c.mu.Unlock()
	if refreshToken == "" {
		return nil, ErrUnauthorized
	}

	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}

	// The refresh grant must not carry the expired access token.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authURL("/token?grant_type=refresh_token"), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.send(req)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decode refresh response: %w", err)
	}

	session := tr.session()
	c.setSession(session)
	c.emit(EventTokenRefreshed, session)
	return session, nil
}

func (c *RESTClient) RestoreSession(session *models.Session) {
	c.setSession(session)
}

func (c *RESTClient) setSession(session *models.Session) {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
}

func (c *RESTClient) SignOut(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodPost, c.authURL("/logout"), nil, "", nil)

	// The local session is gone regardless of whether the backend accepted
	// the logout; a dead token expires on its own.
	c.setSession(nil)
	c.emit(EventSignedOut, nil)

	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func (c *RESTClient) OnAuthStateChange(cb AuthCallback) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = cb
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *RESTClient) emit(event AuthEvent, session *models.Session) {
	c.mu.Lock()
	cbs := make([]AuthCallback, 0, len(c.subscribers))
	for _, cb := range c.subscribers {
		cbs = append(cbs, cb)
	}
	c.mu.Unlock()

	for _, cb := range cbs {
		cb(event, session)
	}
}

// ---- object storage ----

func (c *RESTClient) storageURL(path string) string {
	return c.baseURL + "/storage/v1" + path
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (c *RESTClient) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	u := c.storageURL("/object/" + bucket + "/" + escapePath(path))
	_, err := c.call(ctx, http.MethodPost, u, data, contentType, map[string]string{"x-upsert": "false"})
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

func (c *RESTClient) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	payload, err := json.Marshal(map[string]any{
		"prefix": prefix,
		"limit":  100,
		"sortBy": map[string]string{"column": "name", "order": "desc"},
	})
	if err != nil {
		return nil, err
	}

	body, err := c.call(ctx, http.MethodPost, c.storageURL("/object/list/"+bucket), payload, "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	var entries []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}

	infos := make([]ObjectInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, ObjectInfo{Name: e.Name})
	}
	return infos, nil
}

func (c *RESTClient) CreateSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	payload, err := json.Marshal(map[string]int{"expiresIn": int(ttl.Seconds())})
	if err != nil {
		return "", err
	}

	u := c.storageURL("/object/sign/" + bucket + "/" + escapePath(path))
	body, err := c.call(ctx, http.MethodPost, u, payload, "application/json", nil)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", path, err)
	}

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.Unmarshal(body, &signed); err != nil {
		return "", fmt.Errorf("decode sign response: %w", err)
	}
	if signed.SignedURL == "" {
		return "", fmt.Errorf("sign %s: empty signed url", path)
	}
	return c.storageURL(signed.SignedURL), nil
}

func (c *RESTClient) Remove(ctx context.Context, bucket string, paths []string) error {
	payload, err := json.Marshal(map[string][]string{"prefixes": paths})
	if err != nil {
		return err
	}
	_, err = c.call(ctx, http.MethodDelete, c.storageURL("/object/"+bucket), payload, "application/json", nil)
	if err != nil {
		return fmt.Errorf("remove objects: %w", err)
	}
	return nil
}

func (c *RESTClient) PublicURL(bucket, path string) string {
	return c.storageURL("/object/public/" + bucket + "/" + escapePath(path))
}

func (c *RESTClient) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	body, err := c.send(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	return body, nil
}

// ---- relational tables ----

func (c *RESTClient) restURL(path string) string {
	return c.baseURL + "/rest/v1" + path
}

// insertReturning POSTs rows and decodes the representation the backend
// echoes back.
func (c *RESTClient) insertReturning(ctx context.Context, table string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := c.call(ctx, http.MethodPost, c.restURL("/"+table), body, "application/json",
		map[string]string{"Prefer": "return=representation"})
	if err != nil {
		return err
	}
	return json.Unmarshal(resp, out)
}

func (c *RESTClient) InsertPatient(ctx context.Context, p *models.Patient) (*models.Patient, error) {
	payload := map[string]any{
		"name":   p.Name,
		"age":    p.Age,
		"gender": p.Gender,
	}
	if p.Height != nil {
		payload["height"] = *p.Height
	}
	if p.Ailments != nil {
		payload["ailments"] = p.Ailments
	}
	if p.Medications != nil {
		payload["medications"] = p.Medications
	}

	var rows []models.Patient
	if err := c.insertReturning(ctx, "patients", payload, &rows); err != nil {
		return nil, fmt.Errorf("insert patient: %w", err)
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("insert patient: expected 1 row back, got %d", len(rows))
	}
	return &rows[0], nil
}

func (c *RESTClient) ListPatients(ctx context.Context) ([]models.Patient, error) {
	body, err := c.call(ctx, http.MethodGet, c.restURL("/patients?select=*"), nil, "", nil)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	var rows []models.Patient
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode patients: %w", err)
	}
	return rows, nil
}

func (c *RESTClient) DeletePatient(ctx context.Context, id string) error {
	u := c.restURL("/patients?id=eq." + url.QueryEscape(id))
	if _, err := c.call(ctx, http.MethodDelete, u, nil, "", nil); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

func (c *RESTClient) InsertRecord(ctx context.Context, rec *NewRecord) (*models.MedicalRecord, error) {
	var rows []models.MedicalRecord
	if err := c.insertReturning(ctx, "medical_records", rec, &rows); err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("insert record: expected 1 row back, got %d", len(rows))
	}
	return &rows[0], nil
}

func (c *RESTClient) ListRecords(ctx context.Context, patientID string) ([]models.MedicalRecord, error) {
	u := c.restURL("/medical_records?select=*&order=created_at.desc")
	if patientID != "" {
		u += "&patient_id=eq." + url.QueryEscape(patientID)
	}
	body, err := c.call(ctx, http.MethodGet, u, nil, "", nil)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	var rows []models.MedicalRecord
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return rows, nil
}

func (c *RESTClient) DeleteRecord(ctx context.Context, id string) error {
	u := c.restURL("/medical_records?id=eq." + url.QueryEscape(id))
	if _, err := c.call(ctx, http.MethodDelete, u, nil, "", nil); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}
