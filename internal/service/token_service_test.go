package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func runMiddleware(t *testing.T, svc *TokenService, raw string) (echo.Context, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+raw)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := svc.AutoRefreshMiddleware(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)
	return c, err
}

func TestMiddlewareAcceptsSignedAccessToken(t *testing.T) {
	svc := &TokenService{JWTSecret: []byte("access"), RefreshSecret: []byte("refresh")}

	raw, err := SignAccessToken(7, "admin", svc.JWTSecret)
	require.NoError(t, err)

	c, err := runMiddleware(t, svc, raw)
	require.NoError(t, err)
	require.Equal(t, uint(7), c.Get("userID"))
	require.Equal(t, "admin", c.Get("role"))
}

func TestMiddlewareRejectsUnsignedToken(t *testing.T) {
	svc := &TokenService{JWTSecret: []byte("access"), RefreshSecret: []byte("refresh")}

	claims := jwt.MapClaims{
		"sub":  float64(7),
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = runMiddleware(t, svc, raw)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestMiddlewareRejectsWrongSecret(t *testing.T) {
	svc := &TokenService{JWTSecret: []byte("access"), RefreshSecret: []byte("refresh")}

	raw, err := SignAccessToken(7, "admin", []byte("someone-elses-secret"))
	require.NoError(t, err)

	_, err = runMiddleware(t, svc, raw)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}
