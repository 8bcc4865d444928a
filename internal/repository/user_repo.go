package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"memwatch/internal/model"
)

// UserRepository is the credential store. Each call runs as a single
// statement on a pooled connection, so inserts are atomic and concurrent
// readers and writers do not need coordination here.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT username, email, password_hash, activated, created_at
		 FROM users WHERE username = $1`, strings.TrimSpace(username)).
		Scan(&u.Username, &u.Email, &u.PasswordHash, &u.Activated, &u.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT username, email, password_hash, activated, created_at
		 FROM users WHERE email = $1`, strings.TrimSpace(email)).
		Scan(&u.Username, &u.Email, &u.PasswordHash, &u.Activated, &u.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (username, email, password_hash, activated, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.Username, u.Email, u.PasswordHash, u.Activated, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
