// Package request holds helpers handlers use to read request bodies and headers.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrMissingField is wrapped by the 400 error RequiredParam returns.
var ErrMissingField = errors.New("required field missing")

// RequiredParam returns body[name]. A missing key or a JSON null yields a
// 400 *echo.HTTPError naming the field.
func RequiredParam(body map[string]any, name string) (any, error) {
	v, ok := body[name]
	if !ok || v == nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("required field '%s' missing from request", name),
		).SetInternal(fmt.Errorf("%w: %s", ErrMissingField, name))
	}
	return v, nil
}

// RequiredString is RequiredParam for fields that must hold a JSON string.
func RequiredString(body map[string]any, name string) (string, error) {
	v, err := RequiredParam(body, name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("field '%s' must be a string", name))
	}
	return s, nil
}

// DecodeBody parses the request body as a JSON object.
func DecodeBody(c echo.Context) (map[string]any, error) {
	var body map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest,
			"request body must be a JSON object").SetInternal(err)
	}
	if body == nil {
		// literal "null"
		return nil, echo.NewHTTPError(http.StatusBadRequest, "request body must be a JSON object")
	}
	return body, nil
}
