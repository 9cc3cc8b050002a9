package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/utils"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"

	GuestIDHeader = "X-Guest-ID"
)

// UserID returns the shopper or admin id set by one of the auth middlewares.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")), true
}

// ShopperIdentity resolves the cart owner: the token subject when a bearer
// token is sent, otherwise the X-Guest-ID header, otherwise a new guest id
// that is echoed back in the X-Guest-ID response header.
func ShopperIdentity(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			claims, err := utils.ParseToken(secret, tokenString)
			if err != nil || claims.Subject == "" {
				utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid or expired token"))
				c.Abort()
				return
			}
			c.Set(ContextUserID, claims.Subject)
			c.Set(ContextRole, claims.Role)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader(GuestIDHeader))
		if !utils.ValidID(guestID) {
			guestID = utils.NewGuestID()
		}
		c.Header(GuestIDHeader, guestID)
		c.Set(ContextUserID, guestID)
		c.Next()
	}
}

// AuthMiddleware requires a valid bearer token.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}
		authenticate(c, secret, tokenString)
	}
}

// WebSocketAuthMiddleware reads the token from the query string, since
// browsers cannot set headers on websocket upgrades.
func WebSocketAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		authenticate(c, secret, tokenString)
	}
}

func authenticate(c *gin.Context, secret []byte, tokenString string) {
	claims, err := utils.ParseToken(secret, tokenString)
	if err != nil || claims.Subject == "" {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid or expired token"))
		c.Abort()
		return
	}
	c.Set(ContextUserID, claims.Subject)
	c.Set(ContextRole, claims.Role)
	c.Next()
}
