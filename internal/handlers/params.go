package handlers

import (
	"strconv"
	"strings"
	"time"

	"hospital-management-server/internal/middleware"
	"hospital-management-server/internal/models"
	"hospital-management-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// uintParam parses a numeric path parameter, answering 400 when it is not one.
func uintParam(c *gin.Context, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.BadRequest(c, "Invalid "+label+" ID")
		return 0, false
	}
	return uint(id), true
}

// uintQuery parses an optional numeric query parameter; absent means 0.
func uintQuery(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		utils.BadRequest(c, "Invalid "+name+" query parameter")
		return 0, false
	}
	return uint(v), true
}

func parseDate(c *gin.Context, raw string) (time.Time, bool) {
	d, err := time.Parse(models.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

// caller returns the authenticated user id and role.
func caller(c *gin.Context) (string, models.Role, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return "", "", false
	}
	role, _ := middleware.GetUserRoleFromContext(c)
	return userID, role, true
}

func sanitizeUsers(users []models.User) []models.UserSanitized {
	out := make([]models.UserSanitized, 0, len(users))
	for i := range users {
		out = append(out, users[i].Sanitize())
	}
	return out
}
