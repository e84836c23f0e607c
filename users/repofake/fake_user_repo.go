package fakeuserrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/users"
	"github.com/pkg/errors"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users       map[string]*users.User
	providerIDs map[string]string // provider user id to user id
	lock        sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:       make(map[string]*users.User),
		providerIDs: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.providerIDs[user.ProviderUserID]; ok {
		return errors.Wrapf(autherrors.ErrConflict, "provider user %s", user.ProviderUserID)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	ur.users[user.ID] = user.Clone()
	ur.providerIDs[user.ProviderUserID] = user.ID
	return nil
}

func (ur *FakeUserRepo) Update(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	existing, ok := ur.users[user.ID]
	if !ok {
		return autherrors.ErrNotFound
	}
	updated := user.Clone()
	updated.ProviderUserID = existing.ProviderUserID
	updated.CreatedAt = existing.CreatedAt
	ur.users[user.ID] = updated
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	return user.Clone(), nil
}

func (ur *FakeUserRepo) GetByProviderUserID(_ context.Context, providerUserID string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.providerIDs[providerUserID]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	return ur.users[id].Clone(), nil
}

// Count returns the number of stored users.
func (ur *FakeUserRepo) Count() int {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return len(ur.users)
}
