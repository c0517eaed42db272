package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leaftown/property-api/internal/domain"
	jwtinfra "github.com/leaftown/property-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
)

func requestWithRole(role string) *http.Request {
	claims := &jwtinfra.Claims{
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	ctx := context.WithValue(req.Context(), ClaimsKey, claims)
	return req.WithContext(ctx)
}

func TestRequireRole_Allowed(t *testing.T) {
	rr := httptest.NewRecorder()
	RequireRole(domain.RoleSeller)(http.HandlerFunc(okHandler)).ServeHTTP(rr, requestWithRole(domain.RoleSeller))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireRole_WrongRole(t *testing.T) {
	rr := httptest.NewRecorder()
	RequireRole(domain.RoleSeller)(http.HandlerFunc(okHandler)).ServeHTTP(rr, requestWithRole(domain.RoleBuyer))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireRole_NoClaims(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	RequireRole(domain.RoleSeller)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireRole_MultipleRoles(t *testing.T) {
	rr := httptest.NewRecorder()
	RequireRole(domain.RoleBuyer, domain.RoleSeller)(http.HandlerFunc(okHandler)).ServeHTTP(rr, requestWithRole(domain.RoleBuyer))
	assert.Equal(t, http.StatusOK, rr.Code)
}
