package token

import "time"

// AccessToken is the long-lived credential pair the provider issues once the
// user approves. It is stored against the local user it belongs to.
type AccessToken struct {
	Token          string    `json:"token"`
	TokenSecret    Redacted  `json:"token_secret"`
	UserID         string    `json:"user_id"`
	ProviderUserID string    `json:"provider_user_id"`
	ObtainedAt     time.Time `json:"obtained_at"`
}
