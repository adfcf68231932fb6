package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"signup_service/internal/auth"
	resp "signup_service/internal/lib/api/response"
	"signup_service/internal/lib/hasher"
	sl "signup_service/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Pass     string `json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
}

type ChallengeRequester interface {
	RequestChallenge(ctx context.Context, email, username, password string) error
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService ChallengeRequester,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		log.Info("Request body decoded")

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		err = authService.RequestChallenge(ctx, req.Email, req.Username, req.Pass)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUserExists):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Email already registered"))
			case errors.Is(err, auth.ErrInvalidEmail):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Invalid email"))
			case errors.Is(err, hasher.ErrPasswordTooLong):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Password too long"))
			default:
				log.Error("failed to request challenge", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		log.Info("Verification code sent", slog.String("email", req.Email))

		ResponseOK(w, r)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Message:  "Verification code sent to email",
	})
}
