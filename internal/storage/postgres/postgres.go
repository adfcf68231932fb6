package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"signup_service/internal/config"
	"signup_service/internal/models"
	"signup_service/internal/storage"
	"signup_service/internal/storage/postgres/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const uniqueViolation = "23505"

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	dsn := dsn(cfg)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	if err := runMigrations(ctx, dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

// goose works over database/sql, so migrations go through a short-lived
// stdlib connection instead of the pool.
func runMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

func (r *PostgresRepo) User(ctx context.Context, email string) (models.User, error) {
	query := `
		SELECT id, email, username, password_hash
		FROM users
		WHERE email = $1;
	`

	row := r.pool.QueryRow(ctx, query, email)

	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PassHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, err
	}

	return u, nil
}

// ReplaceChallenge upserts the challenge for its email, atomically replacing
// any prior pending one. At most one challenge per email can exist.
func (r *PostgresRepo) ReplaceChallenge(ctx context.Context, ch models.RegistrationChallenge) error {
	const op = "storage.postgres.ReplaceChallenge"

	query := `
		INSERT INTO registration_challenges (email, username, password_hash, code, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE
		SET username = EXCLUDED.username,
		    password_hash = EXCLUDED.password_hash,
		    code = EXCLUDED.code,
		    issued_at = EXCLUDED.issued_at,
		    expires_at = EXCLUDED.expires_at;
	`

	_, err := r.pool.Exec(ctx, query,
		ch.Email,
		ch.Username,
		string(ch.PassHash),
		ch.Code,
		ch.IssuedAt,
		ch.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to save challenge: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) Challenge(ctx context.Context, email string) (models.RegistrationChallenge, error) {
	query := `
		SELECT email, username, password_hash, code, issued_at, expires_at
		FROM registration_challenges
		WHERE email = $1;
	`

	row := r.pool.QueryRow(ctx, query, email)

	var ch models.RegistrationChallenge
	err := row.Scan(
		&ch.Email,
		&ch.Username,
		&ch.PassHash,
		&ch.Code,
		&ch.IssuedAt,
		&ch.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RegistrationChallenge{}, storage.ErrChallengeNotFound
		}

		return models.RegistrationChallenge{}, err
	}

	return ch, nil
}

func (r *PostgresRepo) DeleteChallenge(ctx context.Context, email string) error {
	query := `DELETE FROM registration_challenges WHERE email = $1`

	_, err := r.pool.Exec(ctx, query, email)

	return err
}

// PromoteChallenge consumes the pending challenge and creates the user in one
// transaction. Of two concurrent calls for the same email exactly one deletes
// the row; the other gets ErrChallengeNotFound.
func (r *PostgresRepo) PromoteChallenge(ctx context.Context, email string) (models.User, error) {
	const op = "storage.postgres.PromoteChallenge"

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.User{}, fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}
	defer tx.Rollback(ctx)

	deleteQuery := `
		DELETE FROM registration_challenges
		WHERE email = $1
		RETURNING username, password_hash;
	`

	var (
		username string
		passHash []byte
	)

	err = tx.QueryRow(ctx, deleteQuery, email).Scan(&username, &passHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrChallengeNotFound
		}

		return models.User{}, fmt.Errorf("%s: failed to consume challenge: %w", op, err)
	}

	insertQuery := `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id;
	`

	var id int64

	err = tx.QueryRow(ctx, insertQuery, email, username, string(passHash)).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, storage.ErrUserExists
		}

		return models.User{}, fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.User{}, fmt.Errorf("%s: failed to commit: %w", op, err)
	}

	return models.User{
		ID:       id,
		Email:    email,
		Username: username,
		PassHash: passHash,
	}, nil
}

// DeleteExpiredChallenges drops challenges past their expiry. Called
// periodically from main.
func (r *PostgresRepo) DeleteExpiredChallenges(ctx context.Context) (int64, error) {
	const op = "storage.postgres.DeleteExpiredChallenges"

	query := `DELETE FROM registration_challenges WHERE expires_at < NOW()`

	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
