package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
// code is the AUTH_* error code when extraction fails.
func bearerToken(c *gin.Context) (token, code, message string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "AUTH_REQUIRED", "Authorization header required"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "AUTH_INVALID_FORMAT", "Invalid authorization format. Use: Bearer <admin_key>"
	}
	return parts[1], "", ""
}

func keyMatches(provided, key string) bool {
	// Constant-time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare([]byte(provided), []byte(key)) == 1
}

// AdminKeyAuth returns middleware that requires adminKey as a bearer token.
// An empty adminKey disables the check (local dev).
func AdminKeyAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.Next()
			return
		}

		token, code, message := bearerToken(c)
		if code != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": message,
				"code":  code,
			})
			return
		}

		if !keyMatches(token, adminKey) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid admin key",
				"code":  "AUTH_INVALID_KEY",
			})
			return
		}

		c.Next()
	}
}

// VerifyAdminKey returns a handler that reports whether the caller's admin key is valid.
// Used by clients to check if their stored key is still valid.
func VerifyAdminKey(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.JSON(http.StatusOK, gin.H{
				"valid":        true,
				"auth_enabled": false,
				"message":      "Authentication is not configured",
			})
			return
		}

		token, code, message := bearerToken(c)
		if code != "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"valid": false,
				"error": message,
				"code":  code,
			})
			return
		}

		if !keyMatches(token, adminKey) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"valid": false,
				"error": "Invalid admin key",
				"code":  "AUTH_INVALID_KEY",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"valid":        true,
			"auth_enabled": true,
		})
	}
}

// GetAuthStatus returns a public handler reporting whether admin auth is enabled
func GetAuthStatus(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"auth_enabled": adminKey != "",
		})
	}
}
