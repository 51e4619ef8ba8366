package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	userDatamodel "github.com/frahmantamala/account-hub/internal/core/datamodel/user"
	"golang.org/x/crypto/bcrypt"
)

// Repository returns (nil, nil) when no user matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetByID(ctx context.Context, userID string) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return FromDataModel(u), nil
}

// GetByIdentity resolves an email address or a username to a user. Email is
// tried first since that is what OAuth providers hand over.
func (s *Service) GetByIdentity(ctx context.Context, identity string) (*User, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, ErrNotFound
	}

	if strings.Contains(identity, "@") {
		u, err := s.repo.GetByEmail(ctx, strings.ToLower(identity))
		if err != nil {
			return nil, fmt.Errorf("failed to get user by email: %w", err)
		}
		if u != nil {
			return FromDataModel(u), nil
		}
	}

	u, err := s.repo.GetByUsername(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return FromDataModel(u), nil
}

// ValidateCredentials checks a username/password pair and returns the matching
// user. A wrong password or unknown user yields ErrInvalidCredentials.
func (s *Service) ValidateCredentials(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.GetByIdentity(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if u.PasswordHash == "" {
		s.logger.WarnContext(ctx, "credentials sign-in for user without password", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}
	return u, nil
}

var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
