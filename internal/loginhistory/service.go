package loginhistory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	loginDatamodel "github.com/frahmantamala/account-hub/internal/core/datamodel/loginhistory"
	"github.com/frahmantamala/account-hub/internal/core/events"
	"github.com/google/uuid"
)

type Repository interface {
	Insert(ctx context.Context, e *loginDatamodel.LoginEvent) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*loginDatamodel.LoginEvent, error)
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

func (s *Service) Record(ctx context.Context, userID, provider, ipAddress, userAgent string) error {
	if userID == "" {
		return errors.New("login event without user id")
	}

	e := &loginDatamodel.LoginEvent{
		ID:         uuid.NewString(),
		UserID:     userID,
		Provider:   provider,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		LoggedInAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		return fmt.Errorf("insert login event: %w", err)
	}

	s.logger.Debug("login recorded", "user_id", userID, "provider", provider)
	return nil
}

func (s *Service) ListByUser(ctx context.Context, userID string, limit int) ([]Login, error) {
	rows, err := s.repo.ListByUser(ctx, userID, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list login events: %w", err)
	}

	out := make([]Login, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

// HandleUserSignedIn is the event bus subscriber for sign-in events.
func (s *Service) HandleUserSignedIn(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.UserSignedInEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for %s", event, event.EventType())
	}
	return s.Record(ctx, e.UserID, e.Provider, e.IPAddress, e.UserAgent)
}

// Subscribe registers the service on bus.
func (s *Service) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeUserSignedIn, s.HandleUserSignedIn)
}
