package postgres

import (
	"context"
	"fmt"

	loginDatamodel "github.com/frahmantamala/account-hub/internal/core/datamodel/loginhistory"
	"github.com/frahmantamala/account-hub/internal/loginhistory"
	"github.com/jmoiron/sqlx"
)

type LoginHistoryRepository struct {
	db *sqlx.DB
}

var _ loginhistory.Repository = (*LoginHistoryRepository)(nil)

func NewLoginHistoryRepository(db *sqlx.DB) *LoginHistoryRepository {
	return &LoginHistoryRepository{db: db}
}

func (r *LoginHistoryRepository) Insert(ctx context.Context, e *loginDatamodel.LoginEvent) error {
	query := `
INSERT INTO login_history (id, user_id, provider, ip_address, user_agent, logged_in_at)
VALUES (:id, :user_id, :provider, :ip_address, :user_agent, :logged_in_at)
`
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("insert login_history: %w", err)
	}
	return nil
}

func (r *LoginHistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*loginDatamodel.LoginEvent, error) {
	query := r.db.Rebind(`
SELECT id, user_id, provider, ip_address, user_agent, logged_in_at
FROM login_history
WHERE user_id = ?
ORDER BY logged_in_at DESC
LIMIT ?
`)
	var rows []*loginDatamodel.LoginEvent
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list login_history: %w", err)
	}
	return rows, nil
}
