package auth

import (
	"context"
	"time"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/internal/utils"
	"github.com/jrsteele09/go-oauth1-login/provider"
	"github.com/jrsteele09/go-oauth1-login/sessions"
	"github.com/jrsteele09/go-oauth1-login/token"
	"github.com/jrsteele09/go-oauth1-login/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// LoginResult is what a successful login produces.
type LoginResult struct {
	Session      *sessions.Session
	SessionToken string
	User         *users.User
	Profile      *provider.Profile
}

// Establish links profile to a local user, stores the access token and opens a
// new session. Users are created on first sight and updated on every later login.
func (s *Service) Establish(ctx context.Context, profile *provider.Profile, at *token.AccessToken) (*LoginResult, error) {
	now := s.nowTime()

	user, err := s.upsertUser(ctx, profile, now)
	if err != nil {
		return nil, errors.Wrap(err, "[Establish] upsert user")
	}

	stored := *at
	stored.UserID = user.ID
	stored.ProviderUserID = profile.ProviderUserID
	if stored.ObtainedAt.IsZero() {
		stored.ObtainedAt = now
	}
	if err := s.repos.AccessTokens.Upsert(ctx, &stored); err != nil {
		return nil, errors.Wrap(err, "[Establish] store access token")
	}

	sessionID, err := sessions.NewID()
	if err != nil {
		return nil, errors.Wrap(err, "[Establish] session id")
	}
	session := &sessions.Session{
		ID:        sessionID,
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.settings.SessionTTL),
	}
	if err := s.repos.Sessions.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, "[Establish] create session")
	}

	sessionToken, err := s.tokenSigner.Sign(session)
	if err != nil {
		return nil, errors.Wrap(err, "[Establish] sign session token")
	}

	return &LoginResult{
		Session:      session,
		SessionToken: sessionToken,
		User:         user,
		Profile:      profile,
	}, nil
}

// upsertUser creates the user for profile or refreshes the existing one. A
// concurrent first login for the same identity surfaces as ErrConflict on
// Create; the row is then re-read and updated.
func (s *Service) upsertUser(ctx context.Context, profile *provider.Profile, now time.Time) (*users.User, error) {
	existing, err := s.repos.Users.GetByProviderUserID(ctx, profile.ProviderUserID)
	switch {
	case errors.Is(err, autherrors.ErrNotFound):
		user := &users.User{
			ProviderUserID: profile.ProviderUserID,
			CreatedAt:      now,
		}
		applyProfile(user, profile, now)
		err := s.repos.Users.Create(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, autherrors.ErrConflict) {
			return nil, err
		}
		log.Info().Str("provider_user_id", profile.ProviderUserID).Msg("concurrent first login, updating existing user")
		if existing, err = s.repos.Users.GetByProviderUserID(ctx, profile.ProviderUserID); err != nil {
			return nil, errors.Wrap(err, "re-read after conflict")
		}
	case err != nil:
		return nil, err
	}

	applyProfile(existing, profile, now)
	if err := s.repos.Users.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func applyProfile(user *users.User, profile *provider.Profile, now time.Time) {
	user.DisplayName = profile.DisplayName
	user.Handle = profile.Handle
	if profile.Email != nil {
		user.Email = utils.Clone(profile.Email)
	}
	user.FollowerCount = profile.FollowerCount
	user.FollowingCount = profile.FollowingCount
	user.UpdatedAt = now
	user.LastLoginAt = now
}

// CurrentUser resolves a session token to its user.
func (s *Service) CurrentUser(ctx context.Context, sessionToken string) (*users.User, *sessions.Session, error) {
	session, err := s.resolveSession(ctx, sessionToken)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.repos.Users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[CurrentUser] load user")
	}
	return user, session, nil
}

// Logout ends the session behind sessionToken.
func (s *Service) Logout(ctx context.Context, sessionToken string) error {
	session, err := s.resolveSession(ctx, sessionToken)
	if err != nil {
		return err
	}
	if err := s.repos.Sessions.Delete(ctx, session.ID); err != nil {
		return errors.Wrap(err, "[Logout] delete session")
	}
	log.Info().Str("user_id", session.UserID).Str("session_id", session.ID).Msg("logged out")
	return nil
}

func (s *Service) resolveSession(ctx context.Context, sessionToken string) (*sessions.Session, error) {
	if sessionToken == "" {
		return nil, autherrors.ErrSessionNotFound
	}
	sessionID, userID, err := s.tokenSigner.Verify(sessionToken)
	if err != nil {
		return nil, err
	}
	session, err := s.repos.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, errors.Wrap(autherrors.ErrSessionNotFound, "session token subject mismatch")
	}
	if session.Expired(s.nowTime()) {
		return nil, autherrors.ErrSessionExpired
	}
	return session, nil
}
