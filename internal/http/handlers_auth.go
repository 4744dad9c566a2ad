package http

import (
	"net/http"
	"time"

	"tracker/internal/auth"
	"tracker/internal/log"
)

type credentialsPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

type sessionResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      auth.CurrentUser `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var p credentialsPayload
	if err := decodeJSON(r, &p); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := storeContext(r)
	defer cancel()

	session, err := s.authSvc.SignUp(ctx, p.Email, p.Password, p.DisplayName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.InfoContext(ctx, "Account registered", log.FieldOwner, session.User.Email)
	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      session.User,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var p credentialsPayload
	if err := decodeJSON(r, &p); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := storeContext(r)
	defer cancel()

	session, err := s.authSvc.SignIn(ctx, p.Email, p.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      session.User,
	})
}

// handleLogout ends the session client-side. Tokens are stateless, so the
// server only acknowledges; the client discards its copy.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := auth.UserFrom(r.Context()); ok {
		s.logger.InfoContext(r.Context(), "Signed out", log.FieldOwner, user.Email)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		writeErrorStatus(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
