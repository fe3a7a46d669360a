package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(svc jwt.Service) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, found := ClaimsFrom(r.Context())
		if !found {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.Write([]byte(c.EmployeeID))
	})
	return jwtauth.Verifier(svc.JWTAuth())(AuthRequired(ok))
}

func TestAuthRequired(t *testing.T) {
	svc := jwt.NewJWTService("secret", time.Hour)
	access, _, err := svc.GenerateAccessToken("emp-1", false)
	require.NoError(t, err)
	stream, _, err := svc.GenerateStreamToken("emp-1", false)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"stream token", "Bearer " + stream, http.StatusUnauthorized},
		{"access token", "Bearer " + access, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protected(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "emp-1", rec.Body.String())
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	svc := jwt.NewJWTService("secret", time.Hour)
	h := jwtauth.Verifier(svc.JWTAuth())(AuthRequired(AdminOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))))

	for _, isAdmin := range []bool{false, true} {
		token, _, err := svc.GenerateAccessToken("emp-1", isAdmin)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if isAdmin {
			assert.Equal(t, http.StatusOK, rec.Code)
		} else {
			assert.Equal(t, http.StatusForbidden, rec.Code)
		}
	}
}

func TestStreamAuth(t *testing.T) {
	svc := jwt.NewJWTService("secret", time.Hour)
	h := StreamAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, _ := ClaimsFrom(r.Context())
		w.Write([]byte(c.EmployeeID))
	}))

	stream, _, err := svc.GenerateStreamToken("emp-7", false)
	require.NoError(t, err)
	access, _, err := svc.GenerateAccessToken("emp-7", false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?token="+stream, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "emp-7", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?token="+access, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
