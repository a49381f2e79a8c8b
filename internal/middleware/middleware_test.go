package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listinghub/internal/models"
	"listinghub/internal/security"
)

const testSecret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) {
		identity, _ := CurrentIdentity(c)
		c.JSON(http.StatusOK, gin.H{"user_id": identity.UserID, "role": identity.Role})
	})
	r.GET("/protected", chain...)
	return r
}

func token(t *testing.T, role models.UserRole, ttl time.Duration) string {
	t.Helper()
	tok, err := security.GenerateAccessToken(testSecret, models.User{ID: 7, Email: "a@example.com", Role: role}, ttl)
	require.NoError(t, err)
	return tok
}

func do(r http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMissingOrMalformedHeader(t *testing.T) {
	r := newRouter(Auth(testSecret))

	for _, header := range []string{"", "Token abc", "Bearer", "Bearer   "} {
		w := do(r, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		assert.JSONEq(t, `{"error":"authentication required"}`, w.Body.String())
	}
}

func TestAuthInvalidToken(t *testing.T) {
	r := newRouter(Auth(testSecret))

	cases := map[string]string{
		"garbage":      "Bearer not-a-jwt",
		"expired":      "Bearer " + token(t, models.UserRoleUser, -time.Minute),
		"wrong secret": "Bearer " + func() string {
			tok, err := security.GenerateAccessToken("other", models.User{ID: 7, Role: models.UserRoleUser}, time.Hour)
			require.NoError(t, err)
			return tok
		}(),
	}
	for name, header := range cases {
		w := do(r, header)
		assert.Equal(t, http.StatusForbidden, w.Code, name)
		assert.JSONEq(t, `{"error":"invalid or expired token"}`, w.Body.String(), name)
	}
}

func TestAuthSetsIdentity(t *testing.T) {
	r := newRouter(Auth(testSecret))

	w := do(r, "Bearer "+token(t, models.UserRoleUser, time.Hour))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"role":"user"}`, w.Body.String())
}

func TestRequireRoles(t *testing.T) {
	r := newRouter(Auth(testSecret), RequireRoles(models.UserRoleAdmin))

	w := do(r, "Bearer "+token(t, models.UserRoleUser, time.Hour))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, "Bearer "+token(t, models.UserRoleAdmin, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesWithoutAuth(t *testing.T) {
	r := newRouter(RequireRoles(models.UserRoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(requestIDHeader), 36)
}

func TestRecoveryReturnsGenericError(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(zerolog.Nop()))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://app.test"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://app.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://app.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDReplacesUnusableValues(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	for _, bad := range []string{"has space", strings.Repeat("x", maxRequestIDLen+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, bad)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		got := w.Header().Get(requestIDHeader)
		assert.NotEqual(t, bad, got)
		assert.Len(t, got, 36)
		assert.Equal(t, got, w.Body.String())
	}
}
