package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teampulse/teampulse/internal/db"
)

// Store is the persistence capability the service depends on. The email
// uniqueness constraint lives in the database, not in callers.
type Store interface {
	Create(ctx context.Context, params CreateParams) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	LinkGoogleID(ctx context.Context, id, googleID string) (User, error)
}

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const userColumns = "id, name, email, password_hash, phone, google_id, subscription, created_at, updated_at"

func (s *PostgresStore) Create(ctx context.Context, params CreateParams) (User, error) {
	if s.pool == nil {
		return User{}, fmt.Errorf("user store not configured")
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, phone, google_id, subscription)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		params.Name,
		NormalizeEmail(params.Email),
		db.TextFromString(params.PasswordHash),
		db.TextFromString(params.Phone),
		db.TextFromString(params.GoogleID),
		params.Subscription,
	)
	user, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (User, error) {
	if s.pool == nil {
		return User{}, fmt.Errorf("user store not configured")
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		NormalizeEmail(email),
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (User, error) {
	if s.pool == nil {
		return User{}, fmt.Errorf("user store not configured")
	}
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return User{}, ErrUserNotFound
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, pgID,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) LinkGoogleID(ctx context.Context, id, googleID string) (User, error) {
	if s.pool == nil {
		return User{}, fmt.Errorf("user store not configured")
	}
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return User{}, ErrUserNotFound
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE users SET google_id = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		pgID, db.TextFromString(googleID),
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("link google id: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id           pgtype.UUID
		passwordHash pgtype.Text
		phone        pgtype.Text
		googleID     pgtype.Text
		createdAt    pgtype.Timestamptz
		updatedAt    pgtype.Timestamptz
		user         User
	)
	err := row.Scan(&id, &user.Name, &user.Email, &passwordHash, &phone, &googleID, &user.Subscription, &createdAt, &updatedAt)
	if err != nil {
		return User{}, err
	}
	user.ID = db.UUIDString(id)
	user.PasswordHash = db.TextToString(passwordHash)
	user.Phone = db.TextToString(phone)
	user.GoogleID = db.TextToString(googleID)
	user.CreatedAt = db.TimeFromPg(createdAt)
	user.UpdatedAt = db.TimeFromPg(updatedAt)
	return user, nil
}
