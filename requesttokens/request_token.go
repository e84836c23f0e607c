package requesttokens

import "time"

// RequestToken is the short-lived credential pair issued by the provider at the
// start of a login. It is single use: Consumed flips false to true exactly once.
type RequestToken struct {
	Token       string    `json:"token"`
	TokenSecret string    `json:"-"`
	CallbackURL string    `json:"callback_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Consumed    bool      `json:"consumed"`
}

// Expired reports whether now is at or past ExpiresAt.
func (rt *RequestToken) Expired(now time.Time) bool {
	return !now.Before(rt.ExpiresAt)
}

// Usable reports whether the token can still be consumed at now.
func (rt *RequestToken) Usable(now time.Time) bool {
	return !rt.Consumed && !rt.Expired(now)
}
