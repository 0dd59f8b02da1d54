package router

import (
	"fmt"
	"net/http"

	"neuroscreen/internal/handlers"
	"neuroscreen/internal/utils"

	"github.com/gin-gonic/gin"
)

// contentSecurityPolicy only lets scripts and styles carrying the response's
// nonce run.
const contentSecurityPolicy = "default-src 'none'; script-src 'nonce-%[1]s'; style-src 'nonce-%[1]s'; " +
	"img-src data:; base-uri 'none'; form-action 'self'; frame-ancestors 'none'"

// NonceMiddleware creates a fresh nonce for each request, adds it to the
// context for templates and sends the matching Content-Security-Policy.
func NonceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce, err := utils.NewNonce()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to generate CSP nonce"})
			return
		}
		c.Set(handlers.CSPNonceContextKey, nonce)
		c.Header("Content-Security-Policy", fmt.Sprintf(contentSecurityPolicy, nonce))
		c.Next()
	}
}
