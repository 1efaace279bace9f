package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthRequired checks the Authorization header for a valid admin bearer
// token and aborts the request otherwise.
func AuthRequired(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := auth.ParseToken(token)
		if err != nil {
			if err == ErrTokenExpired {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("adminEmail", claims.Email)
		c.Next()
	}
}
