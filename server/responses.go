package server

import (
	"encoding/json"
	"net/http"
	"time"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/users"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type startResponse struct {
	Success      bool      `json:"success"`
	AuthorizeURL string    `json:"authorizeUrl"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type loginResponse struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

type meResponse struct {
	Success bool         `json:"success"`
	User    userResponse `json:"user"`
}

type userResponse struct {
	ID             string  `json:"id"`
	ProviderUserID string  `json:"providerUserId"`
	DisplayName    string  `json:"displayName"`
	Handle         string  `json:"handle"`
	Email          *string `json:"email"`
	FollowerCount  int     `json:"followerCount"`
	FollowingCount int     `json:"followingCount"`
}

func newUserResponse(u *users.User) userResponse {
	return userResponse{
		ID:             u.ID,
		ProviderUserID: u.ProviderUserID,
		DisplayName:    u.DisplayName,
		Handle:         u.Handle,
		Email:          u.Email,
		FollowerCount:  u.FollowerCount,
		FollowingCount: u.FollowingCount,
	}
}

// statusForError maps the error taxonomy onto HTTP status codes. Client and
// protocol failures are 4xx, provider failures 502/503, anything else 500.
func statusForError(err error) int {
	switch {
	case autherrors.Is(err, autherrors.ErrMalformedCallback),
		autherrors.Is(err, autherrors.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest
	case autherrors.Is(err, autherrors.ErrExchangeRejected),
		autherrors.Is(err, autherrors.ErrSessionNotFound),
		autherrors.Is(err, autherrors.ErrSessionExpired):
		return http.StatusUnauthorized
	case autherrors.Is(err, autherrors.ErrUserDenied):
		return http.StatusForbidden
	case autherrors.Is(err, autherrors.ErrCallbackNotConfirmed),
		autherrors.Is(err, autherrors.ErrIncompleteProfile):
		return http.StatusBadGateway
	case autherrors.Is(err, autherrors.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), errorResponse{Success: false, Error: autherrors.Reason(err)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("failed to write response body")
	}
}
