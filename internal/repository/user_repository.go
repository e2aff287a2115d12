package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/driving-lesson-scheduler/internal/model"
	"github.com/iliyamo/driving-lesson-scheduler/internal/utils"
)

// UserRepo is the identity directory.  Students, instructors and staff
// all live in the 'users' table and are distinguished by role.  The
// scheduling core resolves identities strictly by id + role; free-text
// name search is a separate directory operation exposed to the UI.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = `id, full_name, email, password_hash, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, fullName, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (full_name, email, password_hash, role) VALUES (?,?,?,?)",
		strings.TrimSpace(fullName), email, hash, role)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email for login.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return u, nil
}

// GetActiveByRole fetches an active user by id, constrained to the given
// role.  It is how the booking and attendance paths resolve students and
// instructors: an existing user with the wrong role is still
// ErrUserNotFound, so an instructor id can never be booked as a student.
func (r *UserRepo) GetActiveByRole(ctx context.Context, id uint64, role string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND role=? AND is_active=1 LIMIT 1",
		id, role))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return u, nil
}

// SearchByName performs a case-insensitive substring search over user
// names, optionally filtered by role.  This is the explicitly fuzzy
// directory lookup: it can return zero, one or many matches and the
// caller decides which id to use.  Results are capped at limit.
func (r *UserRepo) SearchByName(ctx context.Context, name, role string, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := "SELECT " + userColumns + " FROM users WHERE full_name LIKE ? AND is_active=1"
	args := []interface{}{"%" + strings.TrimSpace(name) + "%"}
	if role != "" {
		q += " AND role=?"
		args = append(args, role)
	}
	q += " ORDER BY full_name, id LIMIT ?"
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
