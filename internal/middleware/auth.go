package middleware

import (
	"strings"

	"hospital-management-server/internal/config"
	"hospital-management-server/internal/models"
	"hospital-management-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// Keys under which the caller's identity is stored on the gin context.
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

// AuthMiddleware admits requests carrying a valid access token and records
// the account id and role for the handlers behind it. Refresh tokens are
// signed with a different secret and are rejected here.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, msg := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			utils.Unauthorized(c, msg)
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(token, cfg.JWTSecret)
		if err != nil {
			utils.Unauthorized(c, "access token is invalid or expired")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. On failure the token is empty and msg says why.
func bearerToken(header string) (token, msg string) {
	if header == "" {
		return "", "missing bearer token"
	}
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" || strings.ContainsAny(token, " \t") {
		return "", "authorization header must be 'Bearer <token>'"
	}
	return token, ""
}

// RoleAuthMiddleware restricts a route to the listed roles. It must run
// after AuthMiddleware; a missing role is a routing mistake and answers 500.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, ok := GetUserRoleFromContext(c)
		if !ok {
			utils.InternalServerError(c, "route requires authentication but no caller role is set")
			c.Abort()
			return
		}
		if _, ok := allowed[role]; !ok {
			utils.Forbidden(c, "role "+string(role)+" may not access this resource")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserIDFromContext returns the caller's account id; ok is false on
// unauthenticated routes.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserID)
	return id, id != ""
}

func GetUserRoleFromContext(c *gin.Context) (models.Role, bool) {
	v, exists := c.Get(ContextUserRole)
	if !exists {
		return "", false
	}
	role, ok := v.(models.Role)
	return role, ok
}
