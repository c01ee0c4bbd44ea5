// Package auth tracks the logged-in employee. The backend owns the accounts;
// this package only resolves a code to a user and remembers the result
// locally so the CLI stays logged in between runs.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotLoggedIn is returned when no user is stored locally.
var ErrNotLoggedIn = errors.New("not logged in")

// User is the authenticated employee.
type User struct {
	ID           int64
	EmployeeCode string
	EmployeeName string
}

// Resolver resolves an employee code against the backend.
type Resolver interface {
	Login(ctx context.Context, employeeCode string) (*User, error)
}

// Service binds the backend resolver to the local store.
type Service struct {
	resolver Resolver
	store    *Store
}

// NewService creates an auth service.
func NewService(resolver Resolver, store *Store) *Service {
	return &Service{resolver: resolver, store: store}
}

// Login resolves the code and persists the resulting user.
func (s *Service) Login(ctx context.Context, employeeCode string) (*User, error) {
	code := strings.TrimSpace(employeeCode)
	if code == "" {
		return nil, errors.New("employee code is required")
	}

	user, err := s.resolver.Login(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(user); err != nil {
		return nil, fmt.Errorf("persist login: %w", err)
	}
	return user, nil
}

// Logout forgets the stored user. Idempotent.
func (s *Service) Logout() error {
	return s.store.Clear()
}

// Current returns the stored user or ErrNotLoggedIn.
func (s *Service) Current() (*User, error) {
	return s.store.Current()
}
