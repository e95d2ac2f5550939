package roster

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"rollcall/internal/store"
)

// Student is one roster entry. Attendance records reference students by id
// and never embed them.
type Student struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Repository persists the student roster in Postgres.
type Repository struct {
	db store.Querier
}

// NewRepository creates a repo.
func NewRepository(db store.Querier) *Repository {
	return &Repository{db: db}
}

// List returns all students ordered by name for a stable display order.
func (r *Repository) List(ctx context.Context) ([]Student, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, phone FROM students ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// Insert writes a new student, minting an id when none is set.
func (r *Repository) Insert(ctx context.Context, s Student) (Student, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if _, err := r.db.Exec(ctx, `
		INSERT INTO students (id, name, phone)
		VALUES ($1, $2, $3)
	`, s.ID, s.Name, s.Phone); err != nil {
		return Student{}, fmt.Errorf("failed to insert student: %w", err)
	}
	return s, nil
}

// Update rewrites a student's name and phone in place.
func (r *Repository) Update(ctx context.Context, s Student) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE students SET name = $2, phone = $3 WHERE id = $1
	`, s.ID, s.Name, s.Phone)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a student by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NamesByID resolves display names for the given student ids.
func (r *Repository) NamesByID(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, name FROM students WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query student names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan student name row: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}
