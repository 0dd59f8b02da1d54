package router

import (
	"errors"
	"net/http"

	"neuroscreen/internal/handlers"
	"neuroscreen/internal/repository"
	"neuroscreen/internal/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionLoader resolves the assessment ID stored in the cookie and puts it
// in the context. IDs for sessions that were evicted are cleared so the
// client does not keep presenting a dead session.
func SessionLoader(log *zap.Logger, store *repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie := sessions.Default(c)
		raw, ok := cookie.Get(handlers.SessionCookieKey).(string)
		if !ok {
			// No assessment yet, proceed as a new visitor.
			c.Next()
			return
		}

		id, err := uuid.Parse(raw)
		if err == nil {
			err = store.ViewSession(id, func(*session.Session) error { return nil })
		}
		if err != nil {
			if !errors.Is(err, repository.ErrSessionNotFound) {
				log.Warn("Malformed session cookie", zap.Error(err))
			}
			cookie.Delete(handlers.SessionCookieKey)
			if err := cookie.Save(); err != nil {
				log.Error("Failed to clear stale session cookie", zap.Error(err))
			}
			c.Set(expiredContextKey, true)
			c.Next()
			return
		}

		c.Set(handlers.SessionContextKey, id)
		c.Next()
	}
}

const expiredContextKey = "sessionExpired"

// SessionRequired rejects requests that have no live assessment session.
func SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if handlers.CurrentSessionID(c) != uuid.Nil {
			c.Next()
			return
		}
		if c.GetBool(expiredContextKey) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Session expired"})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No active session"})
	}
}
