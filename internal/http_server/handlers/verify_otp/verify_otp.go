package verifyOTP

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"signup_service/internal/auth"
	resp "signup_service/internal/lib/api/response"
	sl "signup_service/internal/lib/logger"
	"signup_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,numeric"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Response struct {
	resp.Response
	User User `json:"user"`
}

type ChallengeConfirmer interface {
	ConfirmChallenge(ctx context.Context, email, code string) (models.User, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService ChallengeConfirmer,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verifyOTP.New"

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

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, err := authService.ConfirmChallenge(ctx, req.Email, req.Code)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrChallengeNotFound):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("OTP not requested"))
			case errors.Is(err, auth.ErrChallengeExpired):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("OTP expired"))
			case errors.Is(err, auth.ErrCodeMismatch):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Invalid OTP"))
			case errors.Is(err, auth.ErrUserExists):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Email already registered"))
			default:
				log.Error("failed to confirm challenge", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		log.Info("Registration confirmed", slog.Int64("uid", user.ID))

		ResponseOK(w, r, user)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, user models.User) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		User: User{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	})
}
