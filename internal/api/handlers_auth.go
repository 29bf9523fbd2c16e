package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"ledrent/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(body.Email) == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	// Поаккаунтный счетчик в хранилище сессий: в отличие от адресного
	// лимитера он общий для всех инстансов и переживает рестарт.
	key := "login:" + strings.ToLower(strings.TrimSpace(body.Email))
	allowed, err := s.sessions.CheckLoginRate(r.Context(), key,
		models.LoginAttemptLimit, models.LoginAttemptWindow*time.Second)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login rate check failed")
	} else if !allowed {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	user, err := s.users.Authenticate(r.Context(), body.Email, body.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	session, err := s.sessions.Issue(r.Context(), user.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("issue session failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.sessions.SetCookie(w, session.Token)
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := s.sessions.TokenFromRequest(r)
	if err := s.sessions.Revoke(r.Context(), token); err != nil {
		s.logger.Warn().Err(err).Msg("revoke session failed")
	}
	s.sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := s.users.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
