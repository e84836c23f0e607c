package fakesessionrepo

import (
	"context"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/sessions"
	"github.com/pkg/errors"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	sessions map[string]*sessions.Session
	lock     sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]*sessions.Session),
	}
}

func (sr *FakeSessionRepo) Create(_ context.Context, session *sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if _, ok := sr.sessions[session.ID]; ok {
		return errors.Wrapf(autherrors.ErrConflict, "session %s", session.ID)
	}
	cp := *session
	sr.sessions[session.ID] = &cp
	return nil
}

func (sr *FakeSessionRepo) Get(_ context.Context, sessionID string) (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	session, ok := sr.sessions[sessionID]
	if !ok {
		return nil, autherrors.ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (sr *FakeSessionRepo) Delete(_ context.Context, sessionID string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if _, ok := sr.sessions[sessionID]; !ok {
		return autherrors.ErrSessionNotFound
	}
	delete(sr.sessions, sessionID)
	return nil
}

func (sr *FakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	purged := 0
	for id, session := range sr.sessions {
		if session.Expired(now) {
			delete(sr.sessions, id)
			purged++
		}
	}
	return purged, nil
}

// ForUser returns the sessions held by userID.
func (sr *FakeSessionRepo) ForUser(userID string) []*sessions.Session {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	var out []*sessions.Session
	for _, session := range sr.sessions {
		if session.UserID == userID {
			cp := *session
			out = append(out, &cp)
		}
	}
	return out
}
