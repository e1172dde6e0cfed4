package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/phrasebook/internal/auth"
)

// UserIDHeader carries the signed-in user's id, set by the auth proxy in front of the API
const UserIDHeader = "X-User-ID"

const maxUserIDLength = 128

// RequireUser rejects requests without a user id and stores the id on the
// request context for the services layer.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User not signed in",
				"code":  "AUTH_REQUIRED",
			})
			return
		}
		if len(userID) > maxUserIDLength || strings.ContainsAny(userID, ":/ ") {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Invalid user id",
				"code":  "AUTH_INVALID_USER",
			})
			return
		}

		c.Set("user_id", userID)
		c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}
