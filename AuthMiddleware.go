package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const authUserKey = "auth_user"

// AuthUser is the identity the auth middleware attaches to the request.
type AuthUser struct {
	ID      string
	GameID  string
	IsAdmin bool
}

// AuthMiddleware resolves the bearer token and stores the caller's identity
// in the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return jwtSecret(), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		userID, _ := claims["user_id"].(string)
		gameID, _ := claims["game_id"].(string)
		isAdmin, _ := claims["is_admin"].(bool)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		c.Set(authUserKey, AuthUser{ID: userID, GameID: gameID, IsAdmin: isAdmin})
		c.Next()
	}
}

// AdminMiddleware re-verifies the admin flag against the live user row, so a
// token issued before a privilege revocation stops working immediately.
func (a *App) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := getAuthUser(c)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		current, err := a.users.GetUserByID(c.Request.Context(), user.ID)
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		if err != nil {
			a.log.Error("admin check failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			c.Abort()
			return
		}
		if !current.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		user.IsAdmin = true
		c.Set(authUserKey, user)
		c.Next()
	}
}

func getAuthUser(c *gin.Context) (AuthUser, bool) {
	v, exists := c.Get(authUserKey)
	if !exists {
		return AuthUser{}, false
	}
	user, ok := v.(AuthUser)
	return user, ok
}
