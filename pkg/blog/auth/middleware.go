package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/blog/pkg/blog/models"
)

const (
	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = "user_id"
	// ContextKeyEmail is the key for email in gin context
	ContextKeyEmail = "email"
	// ContextKeySystemRole is the key for system role in gin context
	ContextKeySystemRole = "system_role"
)

// AuthorLookup resolves the author of the resource a request targets. When
// it returns false it has already written the error response.
type AuthorLookup func(c *gin.Context) (authorID uint, ok bool)

func deny(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}

// AuthMiddleware requires a valid bearer token and stores the caller's
// identity in the gin context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			deny(c, http.StatusUnauthorized, "Authorization header required")
			return
		}
		token, ok := bearerToken(header)
		if !ok {
			deny(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := ValidateToken(token)
		switch {
		case errors.Is(err, ErrExpiredToken):
			deny(c, http.StatusUnauthorized, "Token has expired")
			return
		case err != nil:
			deny(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeySystemRole, claims.SystemRole)
		c.Next()
	}
}

// RequireAdmin only lets admins through. It must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ContextKeySystemRole); !ok {
			deny(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !IsAdmin(c) {
			deny(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}

// RequireAuthorOrAdmin lets the caller through when they wrote the targeted
// resource or are an admin. action completes the 403 message, as in
// "Only the author can <action>". It must run after AuthMiddleware.
func RequireAuthorOrAdmin(lookup AuthorLookup, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserID(c); !ok {
			deny(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		authorID, ok := lookup(c)
		if !ok {
			c.Abort()
			return
		}
		if !CanModify(c, authorID) {
			deny(c, http.StatusForbidden, "Only the author can "+action)
			return
		}
		c.Next()
	}
}

// CanModify reports whether the caller is authorID or an admin
func CanModify(c *gin.Context, authorID uint) bool {
	userID, ok := GetUserID(c)
	return (ok && userID == authorID) || IsAdmin(c)
}

// GetUserID returns the user ID from the gin context
func GetUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextKeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// IsAdmin reports whether the authenticated user has the admin role
func IsAdmin(c *gin.Context) bool {
	return c.GetString(ContextKeySystemRole) == string(models.SystemRoleAdmin)
}
