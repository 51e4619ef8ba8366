package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/frahmantamala/account-hub/internal/app"
	"github.com/frahmantamala/account-hub/internal/core/events"
)

var (
	ErrInvalidAuthorization = errors.New("invalid authorization")
	ErrUserNotFound         = errors.New("user not found")

	// ErrVersionConflict is returned by a UserStore when the row changed since it was read.
	ErrVersionConflict = errors.New("permissions version conflict")

	// ErrConflict is returned once every retry lost the race.
	ErrConflict = errors.New("permissions modified concurrently")
)

const defaultMaxAttempts = 3

// Subject is the slice of a user record the permission manager works on.
type Subject struct {
	UserID      string
	Permissions List
	Version     int64
}

// UserStore reads and conditionally writes a user's permission list. A nil
// Subject with a nil error means the user does not exist.
type UserStore interface {
	GetPermissions(ctx context.Context, userID string) (*Subject, error)
	UpdatePermissions(ctx context.Context, userID string, perms List, version int64) error
}

type AppVerifier interface {
	Verify(ctx context.Context, code string) (*app.Application, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	verifier    AppVerifier
	store       UserStore
	publisher   Publisher
	logger      *slog.Logger
	maxAttempts int
}

func NewService(verifier AppVerifier, store UserStore, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		verifier:    verifier,
		store:       store,
		publisher:   publisher,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
	}
}

func (s *Service) authorize(ctx context.Context, code string) (string, error) {
	application, err := s.verifier.Verify(ctx, code)
	if err != nil {
		if errors.Is(err, app.ErrInvalidAuthorization) {
			return "", ErrInvalidAuthorization
		}
		return "", fmt.Errorf("verify authorization: %w", err)
	}
	if application == nil {
		return "", ErrInvalidAuthorization
	}
	return application.ID, nil
}

func (s *Service) load(ctx context.Context, userID string) (*Subject, error) {
	subject, err := s.store.GetPermissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get permissions: %w", err)
	}
	if subject == nil {
		return nil, ErrUserNotFound
	}
	return subject, nil
}

// List returns the full permission list of the user.
func (s *Service) List(ctx context.Context, code, userID string) (List, error) {
	if _, err := s.authorize(ctx, code); err != nil {
		return nil, err
	}
	subject, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return subject.Permissions.Clone(), nil
}

// Grant adds role for the calling application. A role that is already held
// is reported as success without touching the store.
func (s *Service) Grant(ctx context.Context, code, userID, role string) (List, error) {
	return s.mutate(ctx, code, userID, GrantOp{Role: role}, func(l List, appID string) bool {
		return !l.HasRole(appID, role)
	})
}

func (s *Service) Replace(ctx context.Context, code, userID, oldRole, newRole string) (List, error) {
	return s.mutate(ctx, code, userID, ReplaceOp{OldRole: oldRole, NewRole: newRole}, nil)
}

// Revoke removes role for the calling application. The list is written back
// even when the role was not held.
func (s *Service) Revoke(ctx context.Context, code, userID, role string) (List, error) {
	return s.mutate(ctx, code, userID, RevokeOp{Role: role}, nil)
}

// mutate runs the read-modify-write cycle for op, retrying on version
// conflicts. needsWrite, when set, decides per attempt whether the store is
// written at all.
func (s *Service) mutate(ctx context.Context, code, userID string, op Operation, needsWrite func(List, string) bool) (List, error) {
	appID, err := s.authorize(ctx, code)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		subject, err := s.load(ctx, userID)
		if err != nil {
			return nil, err
		}

		if needsWrite != nil && !needsWrite(subject.Permissions, appID) {
			s.logger.Debug("permission unchanged", "operation", op.Name(), "user_id", userID, "app_id", appID)
			return subject.Permissions.Clone(), nil
		}

		updated := op.Apply(subject.Permissions, appID)
		err = s.store.UpdatePermissions(ctx, userID, updated, subject.Version)
		if errors.Is(err, ErrVersionConflict) {
			s.logger.Warn("permission update lost race, retrying",
				"operation", op.Name(), "user_id", userID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update permissions: %w", err)
		}

		s.logger.Info("permissions updated",
			"operation", op.Name(), "user_id", userID, "app_id", appID,
			"roles", slices.Clone(updated.Roles(appID)))
		s.notify(ctx, userID, appID, op)
		return updated, nil
	}

	return nil, ErrConflict
}

func (s *Service) notify(ctx context.Context, userID, appID string, op Operation) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewPermissionsChangedEvent(userID, appID, op.Name())); err != nil {
		s.logger.Warn("failed to publish permissions event", "user_id", userID, "error", err)
	}
}
