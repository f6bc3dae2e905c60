package validate

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator adapts go-playground/validator to echo's Validator interface.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		// keep the ValidationErrors value intact so the central error
		// handler can map it to a per-field response
		return echo.NewHTTPError(http.StatusBadRequest, Fields(err)).SetInternal(err)
	}
	return nil
}

// Fields flattens validation errors to a field -> message map.
func Fields(err error) map[string]string {
	out := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out["request"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = fe.Field() + " is required"
		case "email":
			out[fe.Field()] = fe.Field() + " must be a valid email"
		case "min":
			out[fe.Field()] = fe.Field() + " must be at least " + fe.Param()
		case "max":
			out[fe.Field()] = fe.Field() + " must be at most " + fe.Param()
		default:
			out[fe.Field()] = fe.Field() + " is invalid"
		}
	}
	return out
}
