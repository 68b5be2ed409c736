package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pagewatch/internal/api/types"
)

const (
	userIDKey = "user_id"

	// QueryTokenParam carries the token on websocket upgrades, where browsers
	// cannot set an Authorization header.
	QueryTokenParam = "access_token"
)

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user id on the context.
func RequireAuth(tm *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractToken(c)
		if !ok {
			types.AbortWithError(c, types.AuthenticationError("missing or malformed authorization header"))
			return
		}

		claims, err := tm.ValidateToken(token)
		if err != nil {
			types.AbortWithError(c, types.AuthenticationError(err.Error()))
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// UserID returns the id of the authenticated user, or 0 outside RequireAuth.
func UserID(c *gin.Context) uint {
	id, _ := c.Get(userIDKey)
	uid, _ := id.(uint)
	return uid
}

func extractToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	if websocket.IsWebSocketUpgrade(c.Request) {
		if token := c.Query(QueryTokenParam); token != "" {
			return token, true
		}
	}
	return "", false
}
