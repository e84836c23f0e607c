package tokenfakerepo

import (
	"context"
	"sync"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/token"
)

var _ token.AccessTokenRepo = (*FakeTokenRepo)(nil)

type FakeTokenRepo struct {
	tokens map[string]*token.AccessToken // user id to token
	lock   sync.RWMutex
}

func NewFakeTokensRepo() *FakeTokenRepo {
	return &FakeTokenRepo{
		tokens: make(map[string]*token.AccessToken),
	}
}

func (tr *FakeTokenRepo) Upsert(_ context.Context, at *token.AccessToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	cp := *at
	tr.tokens[at.UserID] = &cp
	return nil
}

func (tr *FakeTokenRepo) GetByUserID(_ context.Context, userID string) (*token.AccessToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	at, ok := tr.tokens[userID]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	cp := *at
	return &cp, nil
}
