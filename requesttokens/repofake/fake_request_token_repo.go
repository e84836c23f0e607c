package fakerequesttokenrepo

import (
	"context"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/requesttokens"
	"github.com/pkg/errors"
)

var _ requesttokens.Repo = (*FakeRequestTokenRepo)(nil)

// FakeRequestTokenRepo is the in-memory Token Store. Consume runs under the write
// lock, which makes the check and the flip one atomic step.
type FakeRequestTokenRepo struct {
	tokens map[string]*requesttokens.RequestToken
	lock   sync.RWMutex
}

func NewFakeRequestTokenRepo() *FakeRequestTokenRepo {
	return &FakeRequestTokenRepo{
		tokens: make(map[string]*requesttokens.RequestToken),
	}
}

func (r *FakeRequestTokenRepo) Create(_ context.Context, rt *requesttokens.RequestToken) error {
	if rt == nil || rt.Token == "" {
		return errors.New("request token cannot be empty")
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.tokens[rt.Token]; ok {
		return errors.Wrapf(autherrors.ErrConflict, "request token %s", rt.Token)
	}
	stored := *rt
	r.tokens[rt.Token] = &stored
	return nil
}

func (r *FakeRequestTokenRepo) Get(_ context.Context, token string) (*requesttokens.RequestToken, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	cp := *rt
	return &cp, nil
}

func (r *FakeRequestTokenRepo) Consume(_ context.Context, token string, now time.Time) (*requesttokens.RequestToken, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	rt, ok := r.tokens[token]
	if !ok || !rt.Usable(now) {
		return nil, autherrors.ErrInvalidOrExpiredToken
	}
	rt.Consumed = true
	cp := *rt
	return &cp, nil
}

func (r *FakeRequestTokenRepo) Delete(_ context.Context, token string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.tokens, token)
	return nil
}

func (r *FakeRequestTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	purged := 0
	for token, rt := range r.tokens {
		if rt.Expired(now) {
			delete(r.tokens, token)
			purged++
		}
	}
	return purged, nil
}

// Len returns the number of stored tokens.
func (r *FakeRequestTokenRepo) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.tokens)
}
