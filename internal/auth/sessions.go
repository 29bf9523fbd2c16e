package auth

import (
	"context"
	"net/http"
	"time"

	"ledrent/internal/domain"
	"ledrent/internal/models"

	"github.com/google/uuid"
)

// SessionManager issues and resolves opaque session tokens. The token is a
// random uuid; everything about the session lives server-side, so tokens
// carry no user data and revocation is immediate.
type SessionManager struct {
	repo       domain.SessionRepository
	ttl        time.Duration
	cookieName string
}

func NewSessionManager(repo domain.SessionRepository, ttl time.Duration, cookieName string) *SessionManager {
	if cookieName == "" {
		cookieName = models.DefaultSessionCookie
	}
	return &SessionManager{repo: repo, ttl: ttl, cookieName: cookieName}
}

// Issue creates a session for the user and returns its token.
func (m *SessionManager) Issue(ctx context.Context, userID int64) (*models.Session, error) {
	session := &models.Session{
		Token:    uuid.NewString(),
		UserID:   userID,
		IssuedAt: time.Now(),
	}
	if err := m.repo.SetSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Resolve looks the token up; a nil session means "not logged in".
func (m *SessionManager) Resolve(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}
	return m.repo.GetSession(ctx, token)
}

// Revoke drops the session server-side.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.repo.DeleteSession(ctx, token)
}

// CheckLoginRate limits login attempts for a client key.
func (m *SessionManager) CheckLoginRate(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return m.repo.CheckRateLimit(ctx, key, limit, window)
}

// SetCookie writes the session cookie: HTTP-only, Lax, 7-day default TTL.
func (m *SessionManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest extracts the session token from the request cookie.
func (m *SessionManager) TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
