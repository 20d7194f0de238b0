package visitor

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a visitor ID does not exist.
var ErrNotFound = errors.New("visitor not found")

const selectColumns = "id, name, phone, status, purpose, image_ref, added_by, created_at, checked_in_at, checked_out_at"

// Repository provides CRUD operations for visitor records.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a visitor repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// NewVisitor holds the fields needed to register a visitor.
type NewVisitor struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Purpose  string `json:"purpose"`
	ImageRef string `json:"image_ref"`
}

// Add registers a new pending visitor on behalf of addedBy.
func (r *Repository) Add(nv NewVisitor, addedBy string) (*Visitor, error) {
	name := strings.TrimSpace(nv.Name)
	if name == "" {
		return nil, fmt.Errorf("invalid visitor: name is required")
	}

	result, err := r.db.Exec(
		"INSERT INTO visitors (name, phone, purpose, image_ref, added_by, status) VALUES (?, ?, ?, ?, ?, ?)",
		name, strings.TrimSpace(nv.Phone), strings.TrimSpace(nv.Purpose), strings.TrimSpace(nv.ImageRef), addedBy, Pending,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting visitor: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a single visitor.
func (r *Repository) GetByID(id int64) (*Visitor, error) {
	v, err := scanVisitor(r.db.QueryRow("SELECT "+selectColumns+" FROM visitors WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("visitor %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading visitor: %w", err)
	}
	return v, nil
}

// List returns every visitor, newest first.
func (r *Repository) List() (visitors []Visitor, err error) {
	rows, err := r.db.Query("SELECT " + selectColumns + " FROM visitors ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing visitors: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	visitors = make([]Visitor, 0)
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning visitor: %w", err)
		}
		visitors = append(visitors, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating visitors: %w", err)
	}

	return visitors, nil
}

// Count returns the total number of visitors.
func (r *Repository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM visitors").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting visitors: %w", err)
	}
	return n, nil
}

// UpdateStatus moves a visitor to a new status. Check-in and check-out
// times are stamped the first time the visitor enters those states.
func (r *Repository) UpdateStatus(id int64, status Status) (*Visitor, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status: %q", status)
	}

	now := time.Now().UTC()
	var result sql.Result
	var err error
	switch status {
	case CheckedIn:
		result, err = r.db.Exec(
			"UPDATE visitors SET status = ?, checked_in_at = COALESCE(checked_in_at, ?) WHERE id = ?",
			status, now, id,
		)
	case CheckedOut:
		result, err = r.db.Exec(
			"UPDATE visitors SET status = ?, checked_in_at = COALESCE(checked_in_at, ?), checked_out_at = COALESCE(checked_out_at, ?) WHERE id = ?",
			status, now, now, id,
		)
	default:
		result, err = r.db.Exec("UPDATE visitors SET status = ? WHERE id = ?", status, id)
	}
	if err != nil {
		return nil, fmt.Errorf("updating status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("visitor %d: %w", id, ErrNotFound)
	}

	return r.GetByID(id)
}

// Delete removes a visitor by ID.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM visitors WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting visitor: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("visitor %d: %w", id, ErrNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVisitor(s scanner) (*Visitor, error) {
	var v Visitor
	var checkedIn, checkedOut sql.NullTime
	if err := s.Scan(&v.ID, &v.Name, &v.Phone, &v.Status, &v.Purpose, &v.ImageRef, &v.AddedBy,
		&v.CreatedAt, &checkedIn, &checkedOut); err != nil {
		return nil, err
	}
	if checkedIn.Valid {
		t := checkedIn.Time
		v.CheckedInAt = &t
	}
	if checkedOut.Valid {
		t := checkedOut.Time
		v.CheckedOutAt = &t
	}
	return &v, nil
}
