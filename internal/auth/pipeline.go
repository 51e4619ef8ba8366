package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/account-hub/internal/core/events"
	"github.com/frahmantamala/account-hub/internal/user"
)

type UserLookup interface {
	GetByIdentity(ctx context.Context, identity string) (*user.User, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Pipeline holds the sign-in, token and session callbacks run around every
// authentication.
type Pipeline struct {
	users     UserLookup
	publisher Publisher
	pages     Pages
	logger    *slog.Logger
}

func NewPipeline(users UserLookup, publisher Publisher, pages Pages, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		users:     users,
		publisher: publisher,
		pages:     pages,
		logger:    logger,
	}
}

func (p *Pipeline) lookup(ctx context.Context, identity string) (*user.User, error) {
	u, err := p.users.GetByIdentity(ctx, identity)
	if errors.Is(err, user.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

// SignIn decides whether identity may sign in. It returns the page to
// redirect to when it may not, or "" when sign-in proceeds.
func (p *Pipeline) SignIn(ctx context.Context, identity Identity) (string, error) {
	key := identity.Email
	if key == "" {
		key = identity.Username
	}

	u, err := p.lookup(ctx, key)
	if err != nil {
		return "", fmt.Errorf("sign-in lookup: %w", err)
	}
	if u == nil {
		p.logger.InfoContext(ctx, "sign-in for unknown user", "provider", identity.Provider)
		return p.pages.SignUp, nil
	}
	return "", nil
}

// JWT refreshes the user projection in tok from the stored user, found by
// email or, for users without a primary email, by username. The token is
// returned as is when it carries neither or the user no longer exists.
func (p *Pipeline) JWT(ctx context.Context, tok Token) (Token, error) {
	key := tok.Email
	if key == "" {
		key = tok.Username
	}
	if key == "" {
		return tok, nil
	}

	u, err := p.lookup(ctx, key)
	if err != nil {
		return tok, fmt.Errorf("token lookup: %w", err)
	}
	if u == nil {
		return tok, nil
	}

	tok.Profile = ProjectUser(u)
	return tok, nil
}

// Session copies the token projection onto the session user and records the
// sign-in in the background.
func (p *Pipeline) Session(ctx context.Context, session Session, tok Token) Session {
	if session.User == nil {
		return session
	}

	session.User.Profile = tok.Profile
	if session.User.UserID == "" || p.publisher == nil {
		return session
	}

	client := ClientInfoFromContext(ctx)
	event := events.NewUserSignedInEvent(session.User.UserID, tok.Provider, client.IPAddress, client.UserAgent)
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.WarnContext(ctx, "failed to publish sign-in event", "user_id", session.User.UserID, "error", err)
	}
	return session
}
