package authn_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"signup_service/internal/auth"
	"signup_service/internal/http_server/middleware/authn"
	"signup_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator struct {
	user models.User
	err  error

	gotToken string
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (models.User, error) {
	f.gotToken = token
	if f.err != nil {
		return models.User{}, f.err
	}
	return f.user, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func protected(t *testing.T, svc authn.Authenticator) (http.Handler, *models.User) {
	t.Helper()

	var seen models.User

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := authn.UserFromContext(r.Context())
		require.True(t, ok, "identity missing behind the gate")
		seen = user
		w.WriteHeader(http.StatusOK)
	})

	return authn.New(discardLogger(), svc)(next), &seen
}

func TestAuthn_Success(t *testing.T) {
	t.Parallel()

	svc := &fakeAuthenticator{user: models.User{ID: 3, Email: "a@x.com"}}
	handler, seen := protected(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer some.jwt.token")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "some.jwt.token", svc.gotToken)
	assert.Equal(t, int64(3), seen.ID)
}

func TestAuthn_MissingHeader(t *testing.T) {
	t.Parallel()

	handler, _ := protected(t, &fakeAuthenticator{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/profile", nil))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthn_WrongScheme(t *testing.T) {
	t.Parallel()

	handler, _ := protected(t, &fakeAuthenticator{})

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthn_InvalidToken(t *testing.T) {
	t.Parallel()

	handler, _ := protected(t, &fakeAuthenticator{err: auth.ErrUnauthorized})

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer bad.token")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthn_ErrorShapeIsUniform(t *testing.T) {
	t.Parallel()

	handler, _ := protected(t, &fakeAuthenticator{err: errors.New("subject deleted")})

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer valid.but.orphaned")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	// deleted subject and forged token must be indistinguishable
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"status":"Error","error":"Unauthorized"}`, rr.Body.String())
}
