package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bug-tracker/internal/config"
	"github.com/iliyamo/bug-tracker/internal/model"
	"github.com/iliyamo/bug-tracker/internal/queue"
	"github.com/iliyamo/bug-tracker/internal/repository"
)

// fakeAuthStore keeps users in memory, keyed by email.
type fakeAuthStore struct {
	users map[string]*model.User
}

func newFakeAuthStore() *fakeAuthStore {
	return &fakeAuthStore{users: map[string]*model.User{}}
}

func (f *fakeAuthStore) Create(_ context.Context, u *model.User) error {
	if _, ok := f.users[u.Email]; ok {
		return repository.ErrEmailExists
	}
	cp := *u
	f.users[u.Email] = &cp
	return nil
}

func (f *fakeAuthStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeAuthStore) SetVerified(_ context.Context, id string) error {
	for _, u := range f.users {
		if u.ID == id {
			u.Verified = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func newTestAuth(store *fakeAuthStore, mail *[]queue.MailMessage) *AuthHandler {
	return &AuthHandler{
		Cfg: config.Config{
			JWTSecret:	  "auth-test-secret",
			BcryptCost:	  4,
			AccessTTLMin: 15,
			AppURL:		  "http://localhost:8080",
		},
		Users: store,
		Mail: func(_ context.Context, msg queue.MailMessage) error {
			if mail != nil {
				*mail = append(*mail, msg)
			}
			return nil
		},
	}
}

func postJSON(t *testing.T, h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestRegisterRequiresMatchingPasswords(t *testing.T) {
	store := newFakeAuthStore()
	var mail []queue.MailMessage
	h := newTestAuth(store, &mail)

	rec := postJSON(t, h.Register,
		`{"name":"Ava","email":"ava@example.com","password":"secret1","confirmPassword":"secret2"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, store.users)

	rec = postJSON(t, h.Register,
		`{"name":"Ava","email":"ava@example.com","password":"secret1","confirmPassword":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, mail, 1)
	require.Equal(t, "verification", mail[0].Kind)
	require.Equal(t, "ava@example.com", mail[0].To)
}

func TestLoginRequiresVerifiedEmail(t *testing.T) {
	store := newFakeAuthStore()
	h := newTestAuth(store, nil)

	rec := postJSON(t, h.Register,
		`{"name":"Ava","email":"ava@example.com","password":"secret1","confirmPassword":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	login := `{"email":"ava@example.com","password":"secret1"}`
	rec = postJSON(t, h.Login, login)
	require.Equal(t, http.StatusForbidden, rec.Code)

	require.NoError(t, store.SetVerified(context.Background(), store.users["ava@example.com"].ID))
	rec = postJSON(t, h.Login, login)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Access.Token)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newFakeAuthStore()
	h := newTestAuth(store, nil)

	rec := postJSON(t, h.Login, `{"email":"nobody@example.com","password":"x"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGoogleSigninRejectsPasswordAccount(t *testing.T) {
	store := newFakeAuthStore()
	h := newTestAuth(store, nil)

	rec := postJSON(t, h.Register,
		`{"name":"Ava","email":"ava@example.com","password":"secret1","confirmPassword":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// The google lane must never hand out a token for a password
	// account, whatever body the client sends.
	rec = postJSON(t, h.GoogleSignin, `{"name":"Mallory","email":"ava@example.com"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NotContains(t, rec.Body.String(), "token")
}

func TestGoogleSigninCreatesAndReusesGoogleAccount(t *testing.T) {
	store := newFakeAuthStore()
	h := newTestAuth(store, nil)

	rec := postJSON(t, h.GoogleSignin, `{"name":"Ben","email":"ben@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	u := store.users["ben@example.com"]
	require.True(t, u.GoogleUser)
	require.True(t, u.Verified)

	rec = postJSON(t, h.GoogleSignin, `{"name":"Ben","email":"ben@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.users, 1)

	// Password login stays closed for google accounts.
	rec = postJSON(t, h.Login, `{"email":"ben@example.com","password":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = postJSON(t, h.Login, `{"email":"ben@example.com","password":"guess"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
