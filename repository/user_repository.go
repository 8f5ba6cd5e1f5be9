package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"WaveFM/model"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	// GetUserByLogin matches the login value against username or email.
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	TouchLastLogin(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// sqliteUserRepository implements UserRepository for SQLite.
type sqliteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a new sqliteUserRepository.
func NewSQLiteUserRepository(db *sql.DB) UserRepository {
	return &sqliteUserRepository{db: db}
}

// isUniqueViolation reports whether err is a SQLite unique-constraint error.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// CreateUser adds a new user to the database.
func (r *sqliteUserRepository) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	query := `INSERT INTO users (username, email, password_hash, first_name, last_name)
	          VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, nullString(user.FirstName), nullString(user.LastName))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

// GetUserByID retrieves a user by their ID.
func (r *sqliteUserRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT id, username, email, password_hash, first_name, last_name, created_at, last_login
	          FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetUserByLogin retrieves a user by username or email.
func (r *sqliteUserRepository) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	query := `SELECT id, username, email, password_hash, first_name, last_name, created_at, last_login
	          FROM users WHERE username = ? OR email = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, login, login))
}

// TouchLastLogin records a successful login.
func (r *sqliteUserRepository) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to update last_login for user %d: %w", id, err)
	}
	return nil
}

// ListUsers retrieves all users, newest first.
func (r *sqliteUserRepository) ListUsers(ctx context.Context) ([]*model.User, error) {
	query := `SELECT id, username, email, password_hash, first_name, last_name, created_at, last_login
	          FROM users ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during users iteration: %w", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row *sql.Row) (*model.User, error) {
	user, err := scanUserRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUserRow(s rowScanner) (*model.User, error) {
	user := &model.User{}
	var firstName, lastName sql.NullString
	var lastLogin sql.NullTime
	err := s.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&firstName, &lastName, &user.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	user.FirstName = firstName.String
	user.LastName = lastName.String
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
