package api

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"evalgo.org/schemaeditor/internal/validation"
)

// validateResource validates a resource document without changing the
// schema.
func (s *Server) validateResource(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return BadRequestError("Failed to read request body", err.Error())
	}

	_, result := validation.New().ValidateResource(body)
	if result.Valid {
		return c.JSON(http.StatusOK, result)
	}
	return c.JSON(http.StatusUnprocessableEntity, result)
}
