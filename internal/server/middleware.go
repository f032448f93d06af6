package server

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/clubos/internal/auth/domain"
	"github.com/smallbiznis/clubos/internal/authorization"
)

const (
	contextKeyActor  = "actor"
	headerAdminToken = "X-Admin-Token"
	queryAdminToken  = "token"
)

type admitFunc func(ctx context.Context, token string) (*authdomain.Actor, error)

// PlatformAdminRequired guards backoffice routes.
func (s *Server) PlatformAdminRequired() gin.HandlerFunc {
	return s.actorRequired(s.guard.RequirePlatformAdmin)
}

// ClubRoleRequired guards facility-operator routes.
func (s *Server) ClubRoleRequired() gin.HandlerFunc {
	return s.actorRequired(s.guard.RequireClubRole)
}

func (s *Server) actorRequired(admit admitFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, authorization.ErrUnauthorized)
			return
		}

		actor, err := admit(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextKeyActor, actor)
		c.Request = c.Request.WithContext(authorization.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// AdminTokenRequired checks the shared admin secret from the header or the token query parameter.
func (s *Server) AdminTokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := strings.TrimSpace(c.GetHeader(headerAdminToken))
		if presented == "" {
			presented = strings.TrimSpace(c.Query(queryAdminToken))
		}
		if !s.guard.RequireAdminToken(presented) {
			AbortWithError(c, authorization.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func actorFromContext(c *gin.Context) (*authdomain.Actor, bool) {
	value, ok := c.Get(contextKeyActor)
	if !ok {
		return nil, false
	}
	actor, ok := value.(*authdomain.Actor)
	return actor, ok && actor != nil
}
