package profile

import (
	"log/slog"
	"net/http"

	"signup_service/internal/http_server/middleware/authn"
	resp "signup_service/internal/lib/api/response"
	"signup_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// New returns the identity resolved by the authn middleware. It never
// re-derives the user itself.
func New(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.profile.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user, ok := authn.UserFromContext(r.Context())
		if !ok {
			log.Error("no authenticated user in context")

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		ResponseOK(w, r, user)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, user models.User) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}
