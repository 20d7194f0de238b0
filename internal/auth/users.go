// Package auth provides API key, user and passkey management for the
// visitor-desk server.
package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Role controls what a user may do.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCompany  Role = "company"
	RoleEmployee Role = "employee"
)

// Roles lists the assignable roles.
var Roles = []Role{RoleAdmin, RoleCompany, RoleEmployee}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	for _, v := range Roles {
		if r == v {
			return true
		}
	}
	return false
}

// ErrUserNotFound is returned when a user does not exist.
var ErrUserNotFound = errors.New("user not found")

// User represents an authorized user.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore manages authorized users in SQLite.
type UserStore struct {
	db         *sql.DB
	adminEmail string
}

// NewUserStore creates a user store.
func NewUserStore(db *sql.DB, adminEmail string) *UserStore {
	return &UserStore{db: db, adminEmail: strings.ToLower(strings.TrimSpace(adminEmail))}
}

// IsAuthorized checks if an email is allowed to use the API.
// The admin email is always authorized (outside the users table).
func (s *UserStore) IsAuthorized(email string) bool {
	email = strings.ToLower(email)

	if s.adminEmail != "" && email == s.adminEmail {
		return true
	}

	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM authorized_users WHERE LOWER(email) = ?", email,
	).Scan(&count)
	if err != nil {
		return false
	}

	return count > 0
}

// IsAdmin checks if an email is the configured admin.
func (s *UserStore) IsAdmin(email string) bool {
	return s.adminEmail != "" && strings.ToLower(email) == s.adminEmail
}

// Lookup returns the user for email. The configured admin is synthesized
// when not stored.
func (s *UserStore) Lookup(email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := scanUser(s.db.QueryRow(
		"SELECT id, email, name, role, created_at FROM authorized_users WHERE LOWER(email) = ?", email,
	))
	if err == nil {
		if s.IsAdmin(email) {
			u.Role = RoleAdmin
		}
		return u, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	if s.IsAdmin(email) {
		return &User{Email: email, Role: RoleAdmin}, nil
	}
	return nil, ErrUserNotFound
}

// Add creates a new authorized user. An empty role means employee.
func (s *UserStore) Add(email, name string, role Role) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if role == "" {
		role = RoleEmployee
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid role: %q", role)
	}

	result, err := s.db.Exec(
		"INSERT INTO authorized_users (email, name, role) VALUES (?, ?, ?)",
		email, name, role,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("user already exists: %s", email)
		}
		return nil, fmt.Errorf("adding user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user ID: %w", err)
	}

	return s.GetByID(id)
}

// List returns all authorized users.
func (s *UserStore) List() ([]*User, error) {
	rows, err := s.db.Query(
		"SELECT id, email, name, role, created_at FROM authorized_users ORDER BY email",
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "err", cerr)
		}
	}()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// GetByID returns a user by ID.
func (s *UserStore) GetByID(id int64) (*User, error) {
	u, err := scanUser(s.db.QueryRow(
		"SELECT id, email, name, role, created_at FROM authorized_users WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// Delete removes an authorized user by ID.
func (s *UserStore) Delete(id int64) error {
	result, err := s.db.Exec("DELETE FROM authorized_users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// AllEmails returns all authorized emails including the admin.
// Passkey login uses it to resolve a user handle.
func (s *UserStore) AllEmails() ([]string, error) {
	rows, err := s.db.Query("SELECT email FROM authorized_users")
	if err != nil {
		return nil, fmt.Errorf("listing emails: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "err", cerr)
		}
	}()

	var emails []string
	if s.adminEmail != "" {
		emails = append(emails, s.adminEmail)
	}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scanning email: %w", err)
		}
		if strings.ToLower(email) != s.adminEmail {
			emails = append(emails, strings.ToLower(email))
		}
	}

	return emails, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(s rowScanner) (*User, error) {
	var u User
	if err := s.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
