package roster

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNameRequired rejects an add/update with an empty trimmed name.
	ErrNameRequired = errors.New("student name is required")
	// ErrPhoneRequired rejects an add/update with an empty trimmed phone.
	ErrPhoneRequired = errors.New("student phone is required")
	// ErrNotFound reports an unknown student id.
	ErrNotFound = errors.New("student not found")
)

// Service validates roster input before it reaches the store.
type Service struct {
	repo *Repository
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// List returns the current roster.
func (s *Service) List(ctx context.Context) ([]Student, error) {
	return s.repo.List(ctx)
}

// Add creates a student. Validation failures happen before any store call.
func (s *Service) Add(ctx context.Context, name, phone string) (Student, error) {
	name, phone, err := cleanInput(name, phone)
	if err != nil {
		return Student{}, err
	}
	return s.repo.Insert(ctx, Student{Name: name, Phone: phone})
}

// Update rewrites an existing student's name and phone.
func (s *Service) Update(ctx context.Context, id, name, phone string) (Student, error) {
	name, phone, err := cleanInput(name, phone)
	if err != nil {
		return Student{}, err
	}
	st := Student{ID: id, Name: name, Phone: phone}
	if err := s.repo.Update(ctx, st); err != nil {
		return Student{}, err
	}
	return st, nil
}

// Remove deletes a student by id.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func cleanInput(name, phone string) (string, string, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return "", "", ErrNameRequired
	}
	if phone == "" {
		return "", "", ErrPhoneRequired
	}
	return name, phone, nil
}
