package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/alertabh/internal/auth"
	"github.com/shenikar/alertabh/internal/models"
	"github.com/sirupsen/logrus"
)

const sessionKey = "session"

// SessionAuthMiddleware - middleware для аутентификации по токену сессии
func SessionAuthMiddleware(issuer *auth.Issuer, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			log.Warn("Session token missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session token required"})
			return
		}

		session, err := issuer.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.WithError(err).Warn("Invalid session token provided")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// sessionFrom достает сессию, сохраненную middleware
func sessionFrom(c *gin.Context) models.Session {
	v, _ := c.Get(sessionKey)
	s, _ := v.(models.Session)
	return s
}
