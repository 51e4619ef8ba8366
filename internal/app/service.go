package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	appDatamodel "github.com/frahmantamala/account-hub/internal/core/datamodel/app"
	"github.com/rs/xid"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*appDatamodel.Application, error)
	Create(ctx context.Context, a *appDatamodel.Application) error
	UpdateSecret(ctx context.Context, id, hashedSecret string) error
	SetActive(ctx context.Context, id string, active bool) error
}

type Service struct {
	repo       Repository
	codes      *CodeSigner
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, codes *CodeSigner, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		codes:      codes,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates an application and returns it together with its plaintext
// secret. Only the bcrypt hash of the secret is stored.
func (s *Service) Register(ctx context.Context, name string) (*Application, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", errors.New("application name is required")
	}

	secret, err := newSecret(secretSize)
	if err != nil {
		return nil, "", fmt.Errorf("generate secret: %w", err)
	}
	hashed, err := hashSecret(secret, s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash secret: %w", err)
	}

	model := &appDatamodel.Application{
		ID:           xid.New().String(),
		Name:         name,
		HashedSecret: hashed,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, model); err != nil {
		return nil, "", fmt.Errorf("create application: %w", err)
	}

	s.logger.Info("application registered", "app_id", model.ID, "name", name)
	return FromDataModel(model), secret, nil
}

// RotateSecret replaces the secret of an existing application.
func (s *Service) RotateSecret(ctx context.Context, id string) (string, error) {
	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get application: %w", err)
	}
	if model == nil {
		return "", ErrNotFound
	}

	secret, err := newSecret(secretSize)
	if err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	hashed, err := hashSecret(secret, s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	if err := s.repo.UpdateSecret(ctx, id, hashed); err != nil {
		return "", fmt.Errorf("update secret: %w", err)
	}

	s.logger.Info("application secret rotated", "app_id", id)
	return secret, nil
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get application: %w", err)
	}
	if model == nil {
		return ErrNotFound
	}
	return s.repo.SetActive(ctx, id, false)
}

// IssueCode exchanges client credentials for a short-lived authorization code.
func (s *Service) IssueCode(ctx context.Context, id, secret string) (string, time.Time, error) {
	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("get application: %w", err)
	}
	if model == nil || !model.IsActive {
		return "", time.Time{}, ErrInvalidClient
	}

	ok, err := compareSecret(secret, model.HashedSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("compare secret: %w", err)
	}
	if !ok {
		return "", time.Time{}, ErrInvalidClient
	}

	code, expiresAt, err := s.codes.Issue(model.ID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign code: %w", err)
	}
	return code, expiresAt, nil
}

// Verify resolves an authorization code to the application it was issued to.
func (s *Service) Verify(ctx context.Context, code string) (*Application, error) {
	if code == "" {
		return nil, ErrInvalidAuthorization
	}

	appID, err := s.codes.Parse(code)
	if err != nil {
		s.logger.Debug("authorization code rejected", "error", err)
		return nil, ErrInvalidAuthorization
	}

	model, err := s.repo.GetByID(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if model == nil || !model.IsActive {
		return nil, ErrInvalidAuthorization
	}
	return FromDataModel(model), nil
}
