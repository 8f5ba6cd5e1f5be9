// Package pg provides the PostgreSQL implementations of the repository
// interfaces, over a pgx connection pool.
package pg

import (
	"context"
	"errors"
	"fmt"

	"WaveFM/model"
	"WaveFM/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code for unique-constraint failures.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// userRepository implements repository.UserRepository for PostgreSQL.
type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a PostgreSQL-backed UserRepository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

// CreateUser adds a new user to the database.
func (r *userRepository) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	query := `INSERT INTO users (username, email, password_hash, first_name, last_name)
	          VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, '')) RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

// GetUserByID retrieves a user by their ID.
func (r *userRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT id, username, email, password_hash,
	                 COALESCE(first_name, ''), COALESCE(last_name, ''), created_at, last_login
	          FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetUserByLogin retrieves a user by username or email.
func (r *userRepository) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	query := `SELECT id, username, email, password_hash,
	                 COALESCE(first_name, ''), COALESCE(last_name, ''), created_at, last_login
	          FROM users WHERE username = $1 OR email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, login))
}

// TouchLastLogin records a successful login.
func (r *userRepository) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to update last_login for user %d: %w", id, err)
	}
	return nil
}

// ListUsers retrieves all users, newest first.
func (r *userRepository) ListUsers(ctx context.Context) ([]*model.User, error) {
	query := `SELECT id, username, email, password_hash,
	                 COALESCE(first_name, ''), COALESCE(last_name, ''), created_at, last_login
	          FROM users ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		user := &model.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
			&user.FirstName, &user.LastName, &user.CreatedAt, &user.LastLogin); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during users iteration: %w", err)
	}
	return users, nil
}

func (r *userRepository) scanUser(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.CreatedAt, &user.LastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return user, nil
}
