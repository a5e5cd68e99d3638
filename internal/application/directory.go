package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// DeveloperRepository captures the document operations needed by the developer directory.
// Implementations key every record by Developer.ID.
type DeveloperRepository interface {
	ListDevelopers(ctx context.Context) ([]Developer, error)
	GetDeveloper(ctx context.Context, id string) (Developer, error)
	PutDeveloper(ctx context.Context, developer Developer) error
	InsertDeveloper(ctx context.Context, developer Developer) error
}

// DirectoryService is the sole writer of developer records.
type DirectoryService struct {
	developers DeveloperRepository
	opts       serviceOptions
}

// NewDirectoryService wires dependencies for the developer directory.
func NewDirectoryService(developers DeveloperRepository, opts ...Option) *DirectoryService {
	return &DirectoryService{developers: developers, opts: newServiceOptions(opts)}
}

func (s *DirectoryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.opts.logger, "DirectoryService", operation, attrs...)
}

// ListDevelopers returns every developer record. Order is whatever the store yields.
func (s *DirectoryService) ListDevelopers(ctx context.Context) ([]Developer, error) {
	if s == nil {
		return nil, fmt.Errorf("DirectoryService is nil")
	}
	if s.developers == nil {
		return nil, nil
	}

	developers, err := s.developers.ListDevelopers(ctx)
	if err != nil {
		err = storeUnavailable(err)
		s.opts.metrics.StoreError("list")
		s.loggerWith(ctx, "ListDevelopers").ErrorContext(ctx, "failed to list developers", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return developers, nil
}

// DeveloperExists reports whether a record keyed by the normalized email is present.
func (s *DirectoryService) DeveloperExists(ctx context.Context, email string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("DirectoryService is nil")
	}
	key := NormalizeEmail(email)
	if key == "" || s.developers == nil {
		return false, nil
	}

	if _, err := s.developers.GetDeveloper(ctx, key); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		err = storeUnavailable(err)
		s.opts.metrics.StoreError("exists")
		s.loggerWith(ctx, "DeveloperExists", "email", key).ErrorContext(ctx, "existence check failed", "error", err, "error_kind", ErrorKind(err))
		return false, err
	}
	return true, nil
}

// CreateDeveloper upserts the developer keyed by its normalized email. Calling it twice
// with the same email overwrites the first record.
func (s *DirectoryService) CreateDeveloper(ctx context.Context, input DeveloperInput) (Developer, error) {
	if s == nil {
		return Developer{}, fmt.Errorf("DirectoryService is nil")
	}
	developer, err := newDeveloperRecord(input)
	if err != nil {
		return Developer{}, err
	}
	if s.developers == nil {
		return developer, nil
	}

	if err := s.developers.PutDeveloper(ctx, developer); err != nil {
		err = storeUnavailable(err)
		s.opts.metrics.StoreError("create")
		s.loggerWith(ctx, "CreateDeveloper", "developer_id", developer.ID).ErrorContext(ctx, "failed to write developer", "error", err, "error_kind", ErrorKind(err))
		return Developer{}, err
	}

	s.loggerWith(ctx, "CreateDeveloper", "developer_id", developer.ID).InfoContext(ctx, "developer written")
	return developer, nil
}

// CreateDeveloperIfAbsent writes the developer only when no record holds the same key.
// It returns ErrDuplicateEmail otherwise.
func (s *DirectoryService) CreateDeveloperIfAbsent(ctx context.Context, input DeveloperInput) (Developer, error) {
	if s == nil {
		return Developer{}, fmt.Errorf("DirectoryService is nil")
	}
	developer, err := newDeveloperRecord(input)
	if err != nil {
		return Developer{}, err
	}
	if s.developers == nil {
		return developer, nil
	}

	logger := s.loggerWith(ctx, "CreateDeveloperIfAbsent", "developer_id", developer.ID)
	if err := s.developers.InsertDeveloper(ctx, developer); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return Developer{}, ErrDuplicateEmail
		}
		err = storeUnavailable(err)
		s.opts.metrics.StoreError("create")
		logger.ErrorContext(ctx, "failed to insert developer", "error", err, "error_kind", ErrorKind(err))
		return Developer{}, err
	}

	logger.InfoContext(ctx, "developer inserted")
	return developer, nil
}

func newDeveloperRecord(input DeveloperInput) (Developer, error) {
	email := NormalizeEmail(input.Email)
	if email == "" {
		vErr := &ValidationError{}
		vErr.add("email", "email is required")
		return Developer{}, vErr
	}
	return Developer{
		ID:         email,
		Name:       input.Name,
		EmployeeID: input.EmployeeID,
		Email:      email,
		Location:   input.Location,
		Role:       input.Role,
		Project:    input.Project,
		Active:     input.Active,
		Skills:     cloneSkills(input.Skills),
	}, nil
}
