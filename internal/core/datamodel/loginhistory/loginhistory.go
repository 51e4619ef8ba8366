package loginhistory

import "time"

type LoginEvent struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	Provider   string    `db:"provider"`
	IPAddress  string    `db:"ip_address"`
	UserAgent  string    `db:"user_agent"`
	LoggedInAt time.Time `db:"logged_in_at"`
}
