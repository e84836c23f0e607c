package server

import (
	"net/http"

	"github.com/jrsteele09/go-oauth1-login/auth"
)

// StartHandler begins a login and sends the user to the provider.
func (s *Server) StartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started, err := s.auth.Start(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if wantsJSON(r) {
			writeJSON(w, http.StatusOK, startResponse{
				Success:      true,
				AuthorizeURL: started.AuthorizeURL,
				ExpiresAt:    started.ExpiresAt,
			})
			return
		}
		http.Redirect(w, r, started.AuthorizeURL, http.StatusSeeOther)
	}
}

// CallbackHandler completes the login the provider redirected back to.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.auth.Callback(r.Context(), auth.CallbackParamsFromQuery(r.URL.Query()))
		if err != nil {
			writeError(w, err)
			return
		}

		s.SetSessionCookie(w, r, result.SessionToken, result.Session.ExpiresAt)
		if wantsJSON(r) {
			writeJSON(w, http.StatusOK, loginResponse{
				Success:   true,
				Token:     result.SessionToken,
				ExpiresAt: result.Session.ExpiresAt,
				User:      newUserResponse(result.User),
			})
			return
		}
		http.Redirect(w, r, s.config.GetPostLoginRedirect(), http.StatusSeeOther)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _, err := s.auth.CurrentUser(r.Context(), sessionToken(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, meResponse{Success: true, User: newUserResponse(user)})
	}
}

// LogoutHandler ends the session. The cookie is cleared even when the session
// was already gone.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.auth.Logout(r.Context(), sessionToken(r))
		s.ClearSessionCookie(w, r)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Success bool `json:"success"`
		}{Success: true})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
