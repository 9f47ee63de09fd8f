package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayurlekha/ayurlekha/internal/client/models"
)

const tokenJSON = `{
  "access_token": "at-1",
  "refresh_token": "rt-1",
  "expires_in": 3600,
  "user": {"id": "u1", "email": "user@example.com"}
}`

func TestSignInWithOTP_RequestShape(t *testing.T) {
	var gotPath, gotAPIKey, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "anon-key")
	require.NoError(t, c.SignInWithOTP(context.Background(), "user@example.com"))

	require.Equal(t, "/auth/v1/otp", gotPath)
	require.Equal(t, "anon-key", gotAPIKey)
	require.Equal(t, "Bearer anon-key", gotAuth, "no session yet, the anon key is the bearer")
	require.Equal(t, "user@example.com", gotBody["email"])
	require.Equal(t, true, gotBody["create_user"])
}

func TestVerifyOTP_SessionAndSignedInEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/verify", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "email", body["type"])
		require.Equal(t, "123456", body["token"])
		w.Write([]byte(tokenJSON))
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "anon-key")

	var gotEvent AuthEvent
	var gotSession *models.Session
	unsub := c.OnAuthStateChange(func(event AuthEvent, session *models.Session) {
		gotEvent = event
		gotSession = session
	})
	defer unsub()

	sess, err := c.VerifyOTP(context.Background(), "user@example.com", "123456")
	require.NoError(t, err)
	require.Equal(t, "at-1", sess.AccessToken)
	require.Equal(t, "u1", sess.UserID)
	require.Equal(t, "user@example.com", sess.Email)
	require.False(t, sess.ExpiresAt.IsZero())

	require.Equal(t, EventSignedIn, gotEvent)
	require.Equal(t, sess.AccessToken, gotSession.AccessToken)

	current, err := c.GetSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, "u1", current.UserID)
}

func TestVerifyOTP_ExpiredVersusInvalid(t *testing.T) {
	body := `{"msg":"Token has expired or is invalid"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "anon-key")

	_, err := c.VerifyOTP(context.Background(), "user@example.com", "000000")
	require.ErrorIs(t, err, ErrExpiredCode)

	body = `{"msg":"Invalid otp"}`
	_, err = c.VerifyOTP(context.Background(), "user@example.com", "000000")
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestGetSession_NoSession(t *testing.T) {
	c := NewRESTClient("http://unused.invalid", "anon-key")
	_, err := c.GetSession(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetSession_ExpiredSessionRefreshes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/token", r.URL.Path)
		require.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		require.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"),
			"the refresh grant must not carry the dead access token")
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "rt-0", body["refresh_token"])
		w.Write([]byte(tokenJSON))
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "anon-key")

	var gotEvent AuthEvent
	unsub := c.OnAuthStateChange(func(event AuthEvent, _ *models.Session) { gotEvent = event })
	defer unsub()

	c.RestoreSession(&models.Session{
		AccessToken:  "at-0",
		RefreshToken: "rt-0",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})

	sess, err := c.GetSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, "at-1", sess.AccessToken)
	require.Equal(t, EventTokenRefreshed, gotEvent)
}

func TestCall_RefreshesOnceAndReplays(t *testing.T) {
	var restCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/v1/patients":
			restCalls++
			if r.Header.Get("Authorization") == "Bearer at-dead" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`[]`))
		case "/auth/v1/token":
			w.Write([]byte(tokenJSON))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "anon-key")
	c.RestoreSession(&models.Session{AccessToken: "at-dead", RefreshToken: "rt-0"})

	rows, err := c.ListPatients(context.Background())
	require.NoError(t, err)
	require.Empty(t, rows)
	require.Equal(t, 2, restCalls, "rejected request is replayed once after the refresh")
}

func TestCall_NoRefreshTokenPropagatesUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "anon-key")
	_, err := c.ListPatients(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestSignOut_ClearsSessionEvenWhenBackendFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "anon-key")
	c.RestoreSession(&models.Session{AccessToken: "at-0"})

	var gotEvent AuthEvent
	unsub := c.OnAuthStateChange(func(event AuthEvent, _ *models.Session) { gotEvent = event })
	defer unsub()

	require.Error(t, c.SignOut(context.Background()))
	require.Equal(t, EventSignedOut, gotEvent)

	_, err := c.GetSession(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestUnsubscribe_StopsEvents(t *testing.T) {
	c := NewRESTClient("http://unused.invalid", "anon-key")
	calls := 0
	unsub := c.OnAuthStateChange(func(AuthEvent, *models.Session) { calls++ })

	c.emit(EventSignedIn, nil)
	unsub()
	c.emit(EventSignedOut, nil)

	require.Equal(t, 1, calls)
}

func TestTransportFailure_MapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := NewRESTClient(srv.URL, "anon-key")
	err := c.SignInWithOTP(context.Background(), "user@example.com")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCreateSignedURL_PrefixesStorageBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/storage/v1/object/sign/medical-documents/u1/p1/doc.pdf", r.URL.Path)
		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, 300, body["expiresIn"])
		w.Write([]byte(`{"signedURL":"/object/sign/medical-documents/u1/p1/doc.pdf?token=abc"}`))
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "anon-key")
	url, err := c.CreateSignedURL(context.Background(), "medical-documents", "u1/p1/doc.pdf", 5*time.Minute)
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/storage/v1/object/sign/medical-documents/u1/p1/doc.pdf?token=abc", url)
}

func TestPublicURL(t *testing.T) {
	c := NewRESTClient("https://proj.example.co/", "anon-key")
	require.Equal(t,
		"https://proj.example.co/storage/v1/object/public/medical-documents/u1/p1/a%20b.pdf",
		c.PublicURL("medical-documents", "u1/p1/a b.pdf"))
}

func TestListRecords_QueryShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/v1/medical_records", r.URL.Path)
		require.Equal(t, "created_at.desc", r.URL.Query().Get("order"))
		require.Equal(t, "eq.p1", r.URL.Query().Get("patient_id"))
		w.Write([]byte(`[{"id":"r1","title":"Blood test","file_url":"u","file_type":"pdf","category":"Laboratory","patient_id":"p1","tags":["x"],"created_at":"2026-07-01T10:00:00Z","updated_at":"2026-07-01T10:00:00Z"}]`))
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "anon-key")
	rows, err := c.ListRecords(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "r1", rows[0].ID)
	require.Equal(t, models.CategoryLaboratory, rows[0].Category)
}

func TestDeleteRecord_MissingIDSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/rest/v1/medical_records", r.URL.Path)
		require.Equal(t, "eq.ghost", r.URL.Query().Get("id"))
		// PostgREST reports a delete that matched nothing as a success
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "anon-key")
	require.NoError(t, c.DeleteRecord(context.Background(), "ghost"))
}

func TestInsertPatient_OmitsAbsentOptionalFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "return=representation", r.Header.Get("Prefer"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasHeight := body["height"]
		require.False(t, hasHeight, "a never-entered field must not be sent at all")
		w.Write([]byte(`[{"id":"server-id","name":"Asha","age":62,"gender":"female"}]`))
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "anon-key")
	created, err := c.InsertPatient(context.Background(), &models.Patient{Name: "Asha", Age: 62, Gender: "female"})
	require.NoError(t, err)
	require.Equal(t, "server-id", created.ID)
}
