package authn

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	resp "signup_service/internal/lib/api/response"
	sl "signup_service/internal/lib/logger"
	"signup_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ctxKey struct{}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

// New gates protected routes: it resolves the Bearer token to a user and puts
// it into the request context. Every failure mode is the same 401.
func New(log *slog.Logger, authService Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authn.New"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, ok := bearerToken(r)
			if !ok {
				log.Warn("missing bearer token")

				unauthorized(w, r)

				return
			}

			user, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				log.Warn("authentication failed", sl.Err(err))

				unauthorized(w, r)

				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the identity resolved by the middleware. Handlers
// behind the gate must treat a missing user as a bug, not a guest.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(models.User)
	return user, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}

	return token, true
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, resp.Error("Unauthorized"))
}
