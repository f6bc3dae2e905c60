package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkotenko/eshop/internal/respond"
	"github.com/dkotenko/eshop/internal/validate"
)

// NewErrorHandler renders every error through the response envelope.
// In production unexpected errors collapse to a generic message.
func NewErrorHandler(production bool, log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var payload interface{} = "internal server error"

		var he *echo.HTTPError
		var verrs validator.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			code = http.StatusBadRequest
			payload = validate.Fields(verrs)
		case errors.As(err, &he):
			code = he.Code
			payload = he.Message
			if code == http.StatusInternalServerError && production {
				payload = "internal server error"
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			code = http.StatusNotFound
			payload = "resource not found"
		case errors.Is(err, gorm.ErrDuplicatedKey):
			code = http.StatusConflict
			payload = "duplicate value for a unique field"
		default:
			if !production {
				payload = err.Error()
			}
		}

		if code >= http.StatusInternalServerError {
			log.Error("request failed", "error", err, "path", c.Path())
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = respond.Error(c, code, payload)
	}
}
