package users

import "context"

type UserRepo interface {
	// Create inserts a new user, ErrConflict if ProviderUserID is already linked
	Create(ctx context.Context, user *User) error
	// Update overwrites the profile fields of an existing user, ErrNotFound if absent
	Update(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByProviderUserID(ctx context.Context, providerUserID string) (*User, error)
}
