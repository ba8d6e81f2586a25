package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/mreply/internal/pkg/errcode"
	"github.com/xxxsen/mreply/internal/pkg/jwt"
)

func newAuthRouter(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(secret))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, OwnerID(c))
	})
	return r
}

func envelopeCode(t *testing.T, body []byte) float64 {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	code, _ := out["code"].(float64)
	return code
}

func TestJWTAuth(t *testing.T) {
	secret := []byte("test-secret")
	r := newAuthRouter(secret)
	token, err := jwt.GenerateToken("owner-7", secret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		owner  string
	}{
		{name: "missing", header: ""},
		{name: "wrong scheme", header: "Basic " + token},
		{name: "bad token", header: "Bearer nope"},
		{name: "ok", header: "bearer " + token, owner: "owner-7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)
			require.Equal(t, http.StatusOK, resp.Code)
			if tt.owner != "" {
				require.Equal(t, tt.owner, resp.Body.String())
				return
			}
			require.Equal(t, float64(errcode.ErrUnauthorized), envelopeCode(t, resp.Body.Bytes()))
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com", " "}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, "https://app.example.com", resp.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, corsMethods, resp.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, resp.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusNoContent, resp.Code)

	open := gin.New()
	open.Use(CORS(nil))
	open.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	resp = httptest.NewRecorder()
	open.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
}
