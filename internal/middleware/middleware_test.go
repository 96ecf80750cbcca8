package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hospital-management-server/internal/config"
	"hospital-management-server/internal/models"
	"hospital-management-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testCfg = &config.Config{
	JWTSecret:                 "access-secret",
	JWTRefreshSecret:          "refresh-secret",
	JWTExpirationMinutes:      5,
	JWTRefreshExpirationHours: 1,
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/private", append(handlers, func(c *gin.Context) {
		userID, _ := GetUserIDFromContext(c)
		role, _ := GetUserRoleFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user": userID, "role": role})
	})...)
	return r
}

func bearer(t *testing.T, role models.Role, secret string) string {
	t.Helper()
	cfg := *testCfg
	cfg.JWTSecret = secret
	access, _, err := utils.GenerateTokens(&models.User{BaseModel: models.BaseModel{ID: "u-1"}, Role: role}, &cfg)
	require.NoError(t, err)
	return "Bearer " + access
}

func get(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(testCfg))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"scheme only", "Bearer", http.StatusUnauthorized},
		{"extra fields", bearer(t, models.RolePatient, testCfg.JWTSecret) + " extra", http.StatusUnauthorized},
		{"wrong secret", bearer(t, models.RolePatient, "other-secret"), http.StatusUnauthorized},
		{"refresh token", bearer(t, models.RolePatient, testCfg.JWTRefreshSecret), http.StatusUnauthorized},
		{"valid", bearer(t, models.RolePatient, testCfg.JWTSecret), http.StatusOK},
		{"lowercase scheme", "bearer " + strings.TrimPrefix(bearer(t, models.RolePatient, testCfg.JWTSecret), "Bearer "), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.header)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	w := get(r, bearer(t, models.RoleLab, testCfg.JWTSecret))
	assert.JSONEq(t, `{"user":"u-1","role":"lab"}`, w.Body.String())
}

func TestRoleAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(testCfg), RoleAuthMiddleware(models.RoleAdmin, models.RoleDoctor))

	assert.Equal(t, http.StatusOK, get(r, bearer(t, models.RoleDoctor, testCfg.JWTSecret)).Code)
	assert.Equal(t, http.StatusForbidden, get(r, bearer(t, models.RolePatient, testCfg.JWTSecret)).Code)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		msg    string
	}{
		{"", "", "missing bearer token"},
		{"Bearer abc.def", "abc.def", ""},
		{"  BEARER   abc.def  ", "abc.def", ""},
		{"Token abc.def", "", "authorization header must be 'Bearer <token>'"},
		{"Bearer a b", "", "authorization header must be 'Bearer <token>'"},
		{"Bearer ", "", "authorization header must be 'Bearer <token>'"},
	}
	for _, tt := range tests {
		token, msg := bearerToken(tt.header)
		assert.Equal(t, tt.token, token, "header %q", tt.header)
		assert.Equal(t, tt.msg, msg, "header %q", tt.header)
	}
}

func TestRoleAuthMiddleware_ForbiddenNamesRole(t *testing.T) {
	r := newRouter(AuthMiddleware(testCfg), RoleAuthMiddleware(models.RoleAdmin))

	w := get(r, bearer(t, models.RoleLab, testCfg.JWTSecret))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "role lab may not access this resource")
}

func TestRoleAuthMiddleware_WithoutAuth(t *testing.T) {
	r := newRouter(RoleAuthMiddleware(models.RoleAdmin))
	assert.Equal(t, http.StatusInternalServerError, get(r, "").Code)
}

func TestRequestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	r := newRouter(RequestLogger(log), AuthMiddleware(testCfg))

	get(r, bearer(t, models.RolePatient, testCfg.JWTSecret))
	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, http.StatusOK, entry.Data["status"])
	assert.Equal(t, "u-1", entry.Data["user_id"])

	hook.Reset()
	get(r, "")
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.NotContains(t, hook.LastEntry().Data, "user_id")
}

func TestRecovery(t *testing.T) {
	log, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(Recovery(log))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "kaboom", hook.LastEntry().Data["panic"])
}
