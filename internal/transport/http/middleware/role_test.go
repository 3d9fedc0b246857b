package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/socialx-api/internal/domain"
	jwtinfra "github.com/socialx-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
)

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		claims  *jwtinfra.Claims
		allowed []string
		want    int
	}{
		{"anonymous", nil, []string{domain.RoleAdmin}, http.StatusUnauthorized},
		{"user on admin route", &jwtinfra.Claims{Role: domain.RoleUser}, []string{domain.RoleAdmin}, http.StatusForbidden},
		{"admin on admin route", &jwtinfra.Claims{Role: domain.RoleAdmin}, []string{domain.RoleAdmin}, http.StatusOK},
		{"user among several", &jwtinfra.Claims{Role: domain.RoleUser}, []string{domain.RoleAdmin, domain.RoleUser}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			if tc.claims != nil {
				ctx = WithClaims(ctx, tc.claims)
			}
			req := httptest.NewRequest(http.MethodDelete, "/v1/users/u2", nil).WithContext(ctx)
			rr := httptest.NewRecorder()
			RequireRole(tc.allowed...)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestRequireRole_ForbiddenBody(t *testing.T) {
	ctx := WithClaims(context.Background(), &jwtinfra.Claims{Role: domain.RoleUser})
	req := httptest.NewRequest(http.MethodDelete, "/v1/users/u2", nil).WithContext(ctx)
	rr := httptest.NewRecorder()
	RequireRole(domain.RoleAdmin)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.JSONEq(t, `{"error":"your role cannot perform this action","code":"forbidden"}`, rr.Body.String())
}
