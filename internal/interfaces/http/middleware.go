package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// ContextUserIDKey is the gin context key under which the authenticated
// user id is stored.
const ContextUserIDKey = "userID"

// AuthMiddleware verifies the bearer token and stores the caller's user id
// in the request context. Everything under it can trust ContextUserIDKey.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			respondError(c, http.StatusUnauthorized, "authorization header required")
			c.Abort()
			return
		}
		tokenString, ok := strings.CutPrefix(tokenString, "Bearer ")
		if !ok {
			respondError(c, http.StatusUnauthorized, "authorization header must use the Bearer scheme")
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			slog.WarnContext(c.Request.Context(), "rejected invalid token", "error", err)
			respondError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			respondError(c, http.StatusUnauthorized, "invalid token claims")
			c.Abort()
			return
		}
		userID, ok := claims["userID"].(string)
		if !ok || userID == "" {
			respondError(c, http.StatusUnauthorized, "invalid token claims")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}
