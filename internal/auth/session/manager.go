package session

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/clubos/internal/config"
)

const DefaultCookieName = "__session"

// Manager extracts the caller's bearer credential from a request.
type Manager struct {
	cookieName string
}

func NewManager(cfg config.Config) *Manager {
	name := strings.TrimSpace(cfg.Auth.SessionCookieName)
	if name == "" {
		name = DefaultCookieName
	}
	return &Manager{cookieName: name}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

// ReadToken prefers the Authorization header and falls back to the session cookie.
func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
		return token, true
	}

	token, err := c.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) < len("bearer ") || !strings.EqualFold(header[:len("bearer ")], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[len("bearer "):])
	return token, token != ""
}
