package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/phrasebook/internal/auth"
)

func TestAdminKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		adminKey       string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "no admin key configured - allows all requests",
			adminKey:       "",
			authHeader:     "",
			expectedStatus: http.StatusOK,
			expectedBody:   "ok",
		},
		{
			name:           "valid admin key",
			adminKey:       "test-secret-key",
			authHeader:     "Bearer test-secret-key",
			expectedStatus: http.StatusOK,
			expectedBody:   "ok",
		},
		{
			name:           "missing auth header",
			adminKey:       "test-secret-key",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "AUTH_REQUIRED",
		},
		{
			name:           "invalid auth format - no Bearer",
			adminKey:       "test-secret-key",
			authHeader:     "test-secret-key",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "AUTH_INVALID_FORMAT",
		},
		{
			name:           "invalid admin key",
			adminKey:       "test-secret-key",
			authHeader:     "Bearer wrong-key",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "AUTH_INVALID_KEY",
		},
		{
			name:           "case insensitive Bearer",
			adminKey:       "test-secret-key",
			authHeader:     "bearer test-secret-key",
			expectedStatus: http.StatusOK,
			expectedBody:   "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(AdminKeyAuth(tt.adminKey))
			router.GET("/test", func(c *gin.Context) {
				c.String(http.StatusOK, "ok")
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedBody != "" && !strings.Contains(w.Body.String(), tt.expectedBody) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestVerifyAdminKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		adminKey       string
		authHeader     string
		expectedStatus int
		expectedValid  bool
	}{
		{
			name:           "auth disabled - always valid",
			adminKey:       "",
			expectedStatus: http.StatusOK,
			expectedValid:  true,
		},
		{
			name:           "valid key",
			adminKey:       "test-key",
			authHeader:     "Bearer test-key",
			expectedStatus: http.StatusOK,
			expectedValid:  true,
		},
		{
			name:           "invalid key",
			adminKey:       "test-key",
			authHeader:     "Bearer wrong-key",
			expectedStatus: http.StatusUnauthorized,
			expectedValid:  false,
		},
		{
			name:           "missing header",
			adminKey:       "test-key",
			expectedStatus: http.StatusUnauthorized,
			expectedValid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/auth/verify", VerifyAdminKey(tt.adminKey))

			req := httptest.NewRequest(http.MethodPost, "/auth/verify", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			valid := strings.Contains(w.Body.String(), `"valid":true`)
			if valid != tt.expectedValid {
				t.Errorf("expected valid=%v in response, got %s", tt.expectedValid, w.Body.String())
			}
		})
	}
}

func TestGetAuthStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, key := range []string{"", "some-key"} {
		router := gin.New()
		router.GET("/auth/status", GetAuthStatus(key))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/status", nil))

		if w.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", w.Code)
		}
		expected := `"auth_enabled":false`
		if key != "" {
			expected = `"auth_enabled":true`
		}
		if !strings.Contains(w.Body.String(), expected) {
			t.Errorf("expected %s, got %s", expected, w.Body.String())
		}
	}
}

func TestRequireUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedBody   string
	}{
		{"missing header", "", http.StatusUnauthorized, "AUTH_REQUIRED"},
		{"blank header", "   ", http.StatusUnauthorized, "AUTH_REQUIRED"},
		{"path separator", "a/b", http.StatusBadRequest, "AUTH_INVALID_USER"},
		{"redis key separator", "a:b", http.StatusBadRequest, "AUTH_INVALID_USER"},
		{"too long", strings.Repeat("x", 129), http.StatusBadRequest, "AUTH_INVALID_USER"},
		{"valid", "user-42", http.StatusOK, "user-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(RequireUser())
			router.GET("/me", func(c *gin.Context) {
				id, _ := auth.UserIDFromContext(c.Request.Context())
				c.String(http.StatusOK, id)
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(UserIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.expectedBody) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedBody, w.Body.String())
			}
		})
	}
}
