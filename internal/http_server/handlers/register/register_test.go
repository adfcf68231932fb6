package register_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"signup_service/internal/auth"
	"signup_service/internal/http_server/handlers/register"
	resp "signup_service/internal/lib/api/response"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequester struct {
	err   error
	email string
}

func (f *fakeRequester) RequestChallenge(_ context.Context, email, _, _ string) error {
	f.email = email
	return f.err
}

func newRequest(t *testing.T, body any) *http.Request {
	t.Helper()

	b, err := json.Marshal(body)
	require.NoError(t, err)

	return httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(b))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegister_Success(t *testing.T) {
	t.Parallel()

	svc := &fakeRequester{}
	handler := register.New(discardLogger(), validator.New(), svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(t, map[string]string{
		"email":    "a@x.com",
		"username": "alice",
		"password": "s3cret",
	}))

	require.Equal(t, http.StatusOK, rr.Code)

	var got register.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, resp.StatusOK, got.Status)
	assert.Equal(t, "a@x.com", svc.email)
}

func TestRegister_EmailTaken(t *testing.T) {
	t.Parallel()

	svc := &fakeRequester{err: auth.ErrUserExists}
	handler := register.New(discardLogger(), validator.New(), svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(t, map[string]string{
		"email":    "a@x.com",
		"username": "alice",
		"password": "s3cret",
	}))

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var got resp.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Email already registered", got.Error)
}

func TestRegister_ValidationError(t *testing.T) {
	t.Parallel()

	svc := &fakeRequester{}
	handler := register.New(discardLogger(), validator.New(), svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(t, map[string]string{
		"email":    "not-an-email",
		"username": "",
		"password": "s3cret",
	}))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, svc.email, "service must not be called on invalid input")
}

func TestRegister_BadJSON(t *testing.T) {
	t.Parallel()

	handler := register.New(discardLogger(), validator.New(), &fakeRequester{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader([]byte("{")))
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}
