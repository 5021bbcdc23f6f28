// Package request binds and validates JSON request bodies. Validation
// failures surface as validator.ValidationErrors, which the central error
// handler turns into a 400 VALIDATION_ERROR response with per-field details.
package request

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// Bind decodes the request body into dst and validates it against the
// struct's validate tags.
func Bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return validate.Struct(dst)
}

// Validate checks dst against its validate tags without binding. Used for
// structs assembled from form fields rather than a JSON body.
func Validate(dst interface{}) error {
	return validate.Struct(dst)
}
