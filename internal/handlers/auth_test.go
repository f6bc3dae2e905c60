package handlers

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/dkotenko/eshop/internal/hash"
	"github.com/dkotenko/eshop/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: []byte("access"), RefreshSecret: []byte("refresh")}

	rec, c := doJSONRequest(t, http.MethodPost, "/api/v1/auth/register",
		map[string]any{"name": "alice", "email": "alice@example.com", "password": "secret1"})
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, db.Where("email = ?", "alice@example.com").First(&user).Error)
	require.Equal(t, models.RoleUser, user.Role)
	require.True(t, user.Active)
	require.NotEqual(t, "secret1", user.PasswordHash)
	require.True(t, hash.CheckPassword(user.PasswordHash, "secret1"))

	rec, c = doJSONRequest(t, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": "alice@example.com", "password": "secret1"})
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	names := make(map[string]bool, len(cookies))
	for _, ck := range cookies {
		names[ck.Name] = true
	}
	require.True(t, names["accessToken"])
	require.True(t, names["refreshToken"])

	var stored models.RefreshToken
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&stored).Error)
	require.False(t, stored.Revoked)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: []byte("access"), RefreshSecret: []byte("refresh")}

	_, c := doJSONRequest(t, http.MethodPost, "/api/v1/auth/register",
		map[string]any{"name": "alice", "email": "alice@example.com", "password": "secret1"})
	require.NoError(t, h.Register(c))

	_, c = doJSONRequest(t, http.MethodPost, "/api/v1/auth/register",
		map[string]any{"name": "alice2", "email": "alice@example.com", "password": "secret2"})
	err := h.Register(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusConflict, he.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: []byte("access"), RefreshSecret: []byte("refresh")}

	_, c := doJSONRequest(t, http.MethodPost, "/api/v1/auth/register",
		map[string]any{"name": "alice", "email": "alice@example.com", "password": "secret1"})
	require.NoError(t, h.Register(c))

	_, c = doJSONRequest(t, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": "alice@example.com", "password": "wrong"})
	err := h.Login(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: []byte("access"), RefreshSecret: []byte("refresh")}

	passwordHash, err := hash.HashPassword("secret1")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		Name: "gone", Email: "gone@example.com", PasswordHash: passwordHash,
		Role: models.RoleUser, Active: false,
	}).Error)

	_, c := doJSONRequest(t, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": "gone@example.com", "password": "secret1"})
	err = h.Login(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestRegisterValidation(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db}

	_, c := doJSONRequest(t, http.MethodPost, "/api/v1/auth/register",
		map[string]any{"name": "a", "email": "not-an-email", "password": "123"})
	err := h.Register(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)

	fields, ok := he.Message.(map[string]string)
	require.True(t, ok)
	require.Contains(t, fields, "Name")
	require.Contains(t, fields, "Email")
	require.Contains(t, fields, "Password")
}
