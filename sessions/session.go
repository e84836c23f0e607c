package sessions

import "time"

// Session is one established login. A user may hold several at once.
type Session struct {
	ID        string    `json:"id"`      // Random 256 bit identifier, hex
	UserID    string    `json:"user_id"` // Local user the session belongs to
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is at or past ExpiresAt.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
