package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spontis/backend-spontis/internal/common"
)

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	svc := newTestService(t, newFakeQuerier())
	m := Middleware{Service: svc}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	})
	rec := httptest.NewRecorder()
	m.RequireAuth(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthAcceptsBearerToken(t *testing.T) {
	q := newFakeQuerier()
	svc := newTestService(t, q)
	_, err := svc.Register(context.Background(), "Anna", "anna@spontis.ch", "password123")
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), "anna@spontis.ch", "password123")
	require.NoError(t, err)

	m := Middleware{Service: svc}
	var gotUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = common.UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rec := httptest.NewRecorder()
	m.RequireAuth(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, login.User.ID, gotUser)
}

func TestRequireAuthAcceptsCookieToken(t *testing.T) {
	q := newFakeQuerier()
	svc := newTestService(t, q)
	_, err := svc.Register(context.Background(), "Anna", "anna@spontis.ch", "password123")
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), "anna@spontis.ch", "password123")
	require.NoError(t, err)

	m := Middleware{Service: svc, AccessCookie: "spontis_access"}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "spontis_access", Value: login.AccessToken})
	rec := httptest.NewRecorder()
	m.RequireAuth(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdminRejectsNonAdmin(t *testing.T) {
	q := newFakeQuerier()
	svc := newTestService(t, q)
	_, err := svc.Register(context.Background(), "Anna", "anna@spontis.ch", "password123")
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), "anna@spontis.ch", "password123")
	require.NoError(t, err)

	m := Middleware{Service: svc}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rec := httptest.NewRecorder()
	m.RequireAdmin(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminAcceptsAdmin(t *testing.T) {
	q := newFakeQuerier()
	svc := newTestService(t, q)
	_, err := svc.Register(context.Background(), "Root", "root@spontis.ch", "password123")
	require.NoError(t, err)
	// Promote the user directly in the fake store.
	user := q.usersByEmail["root@spontis.ch"]
	user.IsAdmin = true
	q.usersByEmail[user.Email] = user
	q.usersByID[uuidString(user.ID)] = user

	login, err := svc.Login(context.Background(), "root@spontis.ch", "password123")
	require.NoError(t, err)

	m := Middleware{Service: svc}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rec := httptest.NewRecorder()
	m.RequireAdmin(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
