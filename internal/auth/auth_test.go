package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AsyncSite/deduction-server/internal/store"
)

func newService(t *testing.T) *Service {
	t.Helper()
	db, err := store.OpenMigrated(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, Options{Secret: "test-secret"})
}

func TestValidateSignup(t *testing.T) {
	cases := []struct {
		user, pw string
		ok       bool
	}{
		{"alice", "password1", true},
		{"al", "password1", false},
		{"alice!", "password1", false},
		{"alice_99", "short", false},
		{"this_name_is_far_too_long_", "password1", false},
	}
	for _, c := range cases {
		err := validateSignup(c.user, c.pw)
		if c.ok {
			assert.NoError(t, err, c.user)
		} else {
			assert.ErrorIs(t, err, ErrInvalidSignup, c.user)
		}
	}
}

func TestSignupLogin(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	u, err := s.Signup(ctx, "  alice ", "password1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = s.Signup(ctx, "ALICE", "password2")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	got, err := s.Login(ctx, "Alice", "password1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokens(t *testing.T) {
	s := newService(t)
	tok, exp, err := s.Sign("id1", "alice")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(14*24*time.Hour), exp, time.Minute)

	p, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, &Principal{ID: "id1", Username: "alice"}, p)

	other := New(nil, Options{Secret: "other"})
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	s.now = func() time.Time { return time.Now().Add(-30 * 24 * time.Hour) }
	old, _, err := s.Sign("id1", "alice")
	require.NoError(t, err)
	_, err = s.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	u, err := s.Signup(ctx, "bob_1", "password1")
	require.NoError(t, err)
	tok, _, err := s.Sign(u.ID, u.Username)
	require.NoError(t, err)

	var seen *Principal
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { seen = FromContext(r.Context()) })

	// Require: no token, bad token, bearer, cookie.
	rec := httptest.NewRecorder()
	s.Require(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	s.Require(h).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	s.Require(h).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, u.ID, seen.ID)

	seen = nil
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "deduction_token", Value: tok})
	s.Optional(h).ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)

	seen = &Principal{}
	s.Optional(h).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, seen)
}

func TestEnsureAnonID(t *testing.T) {
	s := New(nil, Options{Secret: "x"})

	rec := httptest.NewRecorder()
	id := s.EnsureAnonID(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, id, 22)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, id, cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	assert.Equal(t, id, s.EnsureAnonID(rec, req))
	assert.Empty(t, rec.Result().Cookies())
}
