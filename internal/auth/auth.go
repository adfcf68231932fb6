package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"signup_service/internal/config"
	"signup_service/internal/lib/hasher"
	"signup_service/internal/lib/jwt"
	sl "signup_service/internal/lib/logger"
	"signup_service/internal/lib/otp"
	"signup_service/internal/models"
	"signup_service/internal/storage"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrChallengeNotFound  = errors.New("registration not requested")
	ErrChallengeExpired   = errors.New("code expired")
	ErrCodeMismatch       = errors.New("code mismatch")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

type Auth struct {
	log         *slog.Logger
	usrProvider UserProvider
	challenges  ChallengeStore
	publisher   Publisher

	tokenSecret   string
	tokenTTL      time.Duration
	otpTTL        time.Duration
	otpDigits     int
	allowedDomain string

	// injectable for expiry tests
	now func() time.Time
}

type UserProvider interface {
	User(ctx context.Context, email string) (models.User, error)
}

type ChallengeStore interface {
	ReplaceChallenge(ctx context.Context, ch models.RegistrationChallenge) error
	Challenge(ctx context.Context, email string) (models.RegistrationChallenge, error)
	DeleteChallenge(ctx context.Context, email string) error
	PromoteChallenge(ctx context.Context, email string) (models.User, error)
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

func New(
	log *slog.Logger,
	userProvider UserProvider,
	challengeStore ChallengeStore,
	publisher Publisher,
	cfg *config.Config,
) *Auth {
	return &Auth{
		log:           log,
		usrProvider:   userProvider,
		challenges:    challengeStore,
		publisher:     publisher,
		tokenSecret:   cfg.Tokens.SessionTokenSecret,
		tokenTTL:      cfg.Tokens.SessionTokenTTL,
		otpTTL:        cfg.OTP.CodeTTL,
		otpDigits:     cfg.OTP.CodeDigits,
		allowedDomain: cfg.Registration.AllowedEmailDomain,
		now:           time.Now,
	}
}

// RequestChallenge starts a registration: hashes the password, issues a
// one-time code with a short expiry and queues it for email delivery. A
// repeated request for the same email replaces the pending challenge. A
// failed dispatch does not undo the challenge, the user can request again.
func (a *Auth) RequestChallenge(
	ctx context.Context,
	email, username, password string,
) error {
	const op = "auth.RequestChallenge"

	log := a.log.With(slog.String("op", op))

	email = NormalizeEmail(email)

	if err := a.validateEmail(email); err != nil {
		log.Warn("rejected email", slog.String("email", email))
		return err
	}

	_, err := a.usrProvider.User(ctx, email)
	if err == nil {
		log.Warn("email already registered")
		return ErrUserExists
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		log.Error("failed to get user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := hasher.Hash(password)
	if err != nil {
		if errors.Is(err, hasher.ErrPasswordTooLong) {
			return err
		}

		log.Error("failed to generate password hash", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	code, err := otp.NewCode(a.otpDigits)
	if err != nil {
		log.Error("failed to generate code", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	now := a.now()

	ch := models.RegistrationChallenge{
		Email:     email,
		Username:  username,
		PassHash:  passHash,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(a.otpTTL),
	}

	if err := a.challenges.ReplaceChallenge(ctx, ch); err != nil {
		log.Error("failed to save challenge", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.Message{
		Email:   email,
		Code:    code,
		TTL:     a.otpTTL.String(),
		Purpose: "registration_otp",
	}

	// the challenge is already committed, a dispatch failure is not fatal
	if err := a.publisher.SendMessage(ctx, msg); err != nil {
		log.Error("failed to send verification code", sl.Err(err))
	}

	log.Info("registration challenge issued", slog.String("email", email))

	return nil
}

// ConfirmChallenge checks the submitted code against the pending challenge
// and promotes it into a user. Consumption and user creation happen in one
// transaction, so a concurrent confirm for the same email cannot win twice.
// An expired challenge is discarded on this call; a fresh request is needed.
func (a *Auth) ConfirmChallenge(
	ctx context.Context,
	email, code string,
) (models.User, error) {
	const op = "auth.ConfirmChallenge"

	log := a.log.With(slog.String("op", op))

	email = NormalizeEmail(email)

	ch, err := a.challenges.Challenge(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrChallengeNotFound) {
			log.Warn("no pending challenge")
			return models.User{}, ErrChallengeNotFound
		}

		log.Error("failed to get challenge", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if ch.IsExpired(a.now()) {
		log.Warn("challenge expired")

		if err := a.challenges.DeleteChallenge(ctx, email); err != nil {
			log.Error("failed to delete expired challenge", sl.Err(err))
		}

		return models.User{}, ErrChallengeExpired
	}

	if !otp.Equal(code, ch.Code) {
		log.Warn("code mismatch")
		return models.User{}, ErrCodeMismatch
	}

	user, err := a.challenges.PromoteChallenge(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrChallengeNotFound) {
			// lost the race with a concurrent confirm
			return models.User{}, ErrChallengeNotFound
		}
		if errors.Is(err, storage.ErrUserExists) {
			return models.User{}, ErrUserExists
		}

		log.Error("failed to promote challenge", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("uid", user.ID))

	return user, nil
}

// Login verifies the credentials and returns a signed session token.
func (a *Auth) Login(
	ctx context.Context,
	email, password string,
) (string, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	email = NormalizeEmail(email)

	user, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return "", ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !hasher.Verify(password, user.PassHash) {
		log.Info("invalid credentials")
		return "", ErrInvalidCredentials
	}

	token, err := jwt.NewToken(user, a.tokenSecret, a.tokenTTL)
	if err != nil {
		log.Error("failed to generate session token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.Int64("uid", user.ID))

	return token, nil
}

// Authenticate resolves a session token to the user it was issued for.
// Malformed, forged and expired tokens, and tokens whose subject no longer
// exists, all fail the same way so the caller learns nothing extra.
func (a *Auth) Authenticate(
	ctx context.Context,
	token string,
) (models.User, error) {
	const op = "auth.Authenticate"

	log := a.log.With(slog.String("op", op))

	sub, err := jwt.ParseToken(token, a.tokenSecret)
	if err != nil {
		log.Warn("invalid session token", sl.Err(err))
		return models.User{}, ErrUnauthorized
	}

	user, err := a.usrProvider.User(ctx, sub)
	if err != nil {
		log.Warn("token subject not found", sl.Err(err))
		return models.User{}, ErrUnauthorized
	}

	return user, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Auth) validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	if a.allowedDomain != "" && !strings.HasSuffix(email, "@"+a.allowedDomain) {
		return ErrInvalidEmail
	}

	return nil
}
