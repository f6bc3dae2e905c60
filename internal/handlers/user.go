package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkotenko/eshop/internal/crud"
	"github.com/dkotenko/eshop/internal/hash"
	"github.com/dkotenko/eshop/internal/models"
	"github.com/dkotenko/eshop/internal/query"
	"github.com/dkotenko/eshop/internal/respond"
)

// NewUserAdminHandler builds the admin-facing CRUD handler for users.
func NewUserAdminHandler(db *gorm.DB, baseURL string) *crud.Handler[models.User] {
	h := crud.New[models.User](db, "user", query.Allow{
		Filter: []string{"name", "email", "role", "active"},
		Sort:   []string{"name", "email", "created_at"},
		Select: []string{"id", "name", "email", "role", "active", "phone", "profile_image", "created_at", "updated_at"},
		Search: []string{"name", "email"},
	})

	h.Decode = func(c echo.Context) (*models.User, error) {
		var req struct {
			Name     string `json:"name"     validate:"required,min=2,max=64"`
			Email    string `json:"email"    validate:"required,email"`
			Password string `json:"password" validate:"required,min=6"`
			Role     string `json:"role"     validate:"omitempty,oneof=user manager admin"`
			Phone    string `json:"phone"`
		}
		if err := c.Bind(&req); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := c.Validate(&req); err != nil {
			return nil, err
		}
		passwordHash, err := hash.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		if req.Role == "" {
			req.Role = models.RoleUser
		}
		return &models.User{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: passwordHash,
			Role:         req.Role,
			Phone:        req.Phone,
			Active:       true,
		}, nil
	}

	h.DecodeUpdate = func(c echo.Context) (*models.User, error) {
		var req struct {
			Name  string `json:"name"  validate:"omitempty,min=2,max=64"`
			Email string `json:"email" validate:"omitempty,email"`
			Role  string `json:"role"  validate:"omitempty,oneof=user manager admin"`
			Phone string `json:"phone"`
		}
		if err := c.Bind(&req); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := c.Validate(&req); err != nil {
			return nil, err
		}
		return &models.User{Name: req.Name, Email: req.Email, Role: req.Role, Phone: req.Phone}, nil
	}

	h.Present = func(u *models.User) {
		u.ProfileImage = ImageURL(baseURL, "users", u.ProfileImage)
	}

	return h
}

// ProfileHandler serves the authenticated user's own record.
type ProfileHandler struct {
	DB      *gorm.DB
	BaseURL string
}

func (h *ProfileHandler) GetMe(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return err
	}
	user.ProfileImage = ImageURL(h.BaseURL, "users", user.ProfileImage)
	return respond.Success(c, http.StatusOK, user)
}

func (h *ProfileHandler) UpdateMe(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name         string `json:"name"  validate:"omitempty,min=2,max=64"`
		Email        string `json:"email" validate:"omitempty,email"`
		Phone        string `json:"phone"`
		ProfileImage string `json:"profileImage"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return err
	}
	patch := models.User{Name: req.Name, Email: req.Email, Phone: req.Phone, ProfileImage: req.ProfileImage}
	if err := h.DB.Model(&user).Updates(patch).Error; err != nil {
		return err
	}
	user.ProfileImage = ImageURL(h.BaseURL, "users", user.ProfileImage)
	return respond.Success(c, http.StatusOK, user)
}

func (h *ProfileHandler) ChangePassword(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword"     validate:"required,min=6"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return echo.NewHTTPError(http.StatusUnauthorized, "current password is wrong")
	}

	passwordHash, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := h.DB.Model(&user).Update("password_hash", passwordHash).Error; err != nil {
		return err
	}

	// revoke outstanding refresh tokens, tokens issued before the
	// change must not survive it
	if err := h.DB.Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Update("revoked", true).Error; err != nil {
		return err
	}

	return respond.Success(c, http.StatusOK, echo.Map{"message": "password updated"})
}

func (h *ProfileHandler) DeactivateMe(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}
	if err := h.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("active", false).Error; err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
