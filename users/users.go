package users

import (
	"time"

	"github.com/jrsteele09/go-oauth1-login/internal/utils"
)

// User is the local account linked to one provider identity. ProviderUserID is
// the join key: the same provider id always resolves to the same User.
type User struct {
	ID             string    `json:"id,omitempty"`               // Local identifier (UUID)
	ProviderUserID string    `json:"provider_user_id,omitempty"` // Stable id issued by the identity provider
	DisplayName    string    `json:"display_name,omitempty"`
	Handle         string    `json:"handle,omitempty"`
	Email          *string   `json:"email,omitempty"` // Only present when the provider shares it
	FollowerCount  int       `json:"follower_count"`
	FollowingCount int       `json:"following_count"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
	LastLoginAt    time.Time `json:"last_login_at,omitempty"`
}

// EmailOrEmpty returns the email address or "" when the provider withheld it.
func (u *User) EmailOrEmpty() string {
	return utils.Value(u.Email)
}

// Clone returns a deep copy safe to hand out of a repository.
func (u *User) Clone() *User {
	cp := *u
	cp.Email = utils.Clone(u.Email)
	return &cp
}
