package router

import (
	"errors"
	"net/http"

	"neuroscreen/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Define keys for storing the token in the session and context.
const (
	csrfTokenSessionKey = "csrf_token"
	csrfTokenContextKey = "csrf_token"
	csrfTokenHeaderKey  = "X-CSRF-Token"
)

// CSRFProtection issues a per-cookie token on every response header and
// requires it back on unsafe methods.
func CSRFProtection() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		// 1. Get or create the CSRF token for the cookie session.
		token, _ := session.Get(csrfTokenSessionKey).(string)
		if token == "" {
			// Unsafe requests cannot carry a token that was never issued.
			if isUnsafe(c.Request.Method) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "CSRF token not found in session"})
				return
			}
			newToken, err := utils.NewCSRFToken()
			if err != nil {
				c.AbortWithError(http.StatusInternalServerError, errors.New("failed to generate CSRF token"))
				return
			}
			token = newToken
			session.Set(csrfTokenSessionKey, token)
			if err := session.Save(); err != nil {
				c.AbortWithError(http.StatusInternalServerError, errors.New("failed to save session"))
				return
			}
		}

		// 2. Expose the token to handlers and to fetch clients.
		c.Set(csrfTokenContextKey, token)
		c.Header(csrfTokenHeaderKey, token)

		// 3. Validate the token on unsafe methods.
		if isUnsafe(c.Request.Method) {
			if !utils.TokensMatch(c.GetHeader(csrfTokenHeaderKey), token) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid CSRF token"})
				return
			}
		}

		c.Next()
	}
}

func isUnsafe(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodDelete
}
