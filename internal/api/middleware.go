package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"evalgo.org/schemaeditor/models"
)

// maxDepthParam bounds the depth query parameter of tree routes.
const maxDepthParam = 10

// ValidateContentType middleware ensures that requests with a body have the correct Content-Type
func ValidateContentType(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		method := c.Request().Method

		// Only check POST, PUT, PATCH requests
		if method == "POST" || method == "PUT" || method == "PATCH" {
			contentType := c.Request().Header.Get("Content-Type")

			// Allow empty body for some requests
			if c.Request().ContentLength == 0 {
				return next(c)
			}

			// Check if Content-Type is application/json
			if !strings.HasPrefix(contentType, "application/json") {
				return BadRequestError(
					"Invalid Content-Type",
					"Content-Type must be 'application/json'. Got: "+contentType,
				)
			}
		}

		return next(c)
	}
}

// ValidateAcceptHeader middleware ensures that clients can accept JSON responses
func ValidateAcceptHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accept := c.Request().Header.Get("Accept")

		// If no Accept header, assume */*; websocket upgrades are exempt
		if accept == "" || strings.EqualFold(c.Request().Header.Get("Upgrade"), "websocket") {
			return next(c)
		}

		// Check if Accept includes application/json or */*
		if !strings.Contains(accept, "application/json") &&
			!strings.Contains(accept, "*/*") &&
			!strings.Contains(accept, "application/*") {
			return BadRequestError(
				"Invalid Accept header",
				"API only returns JSON. Accept header must include 'application/json' or '*/*'. Got: "+accept,
			)
		}

		return next(c)
	}
}

// ValidateNameParam middleware validates the :name path parameter of entity routes
func ValidateNameParam(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")

		// If no name param, skip validation
		if name == "" {
			return next(c)
		}

		if strings.ContainsAny(name, " /\\") {
			return BadRequestError(
				"Invalid name format",
				"Name cannot contain spaces or slashes",
			)
		}

		if len(name) > 253 {
			return BadRequestError(
				"Invalid name format",
				"Name must not exceed 253 characters",
			)
		}

		return next(c)
	}
}

// ValidateQueryParams middleware validates the tree query parameters
func ValidateQueryParams(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if dir := c.QueryParam("direction"); dir != "" {
			if !models.Direction(dir).Valid() {
				return BadRequestError(
					"Invalid direction parameter",
					"Direction must be one of: to, from. Got: "+dir,
				)
			}
		}

		if depthStr := c.QueryParam("depth"); depthStr != "" {
			depth, err := strconv.Atoi(depthStr)
			if err != nil || depth < 1 || depth > maxDepthParam {
				return BadRequestError(
					"Invalid depth parameter",
					fmt.Sprintf("Depth must be an integer between 1 and %d. Got: %s", maxDepthParam, depthStr),
				)
			}
		}

		return next(c)
	}
}

// SecurityHeaders middleware adds security headers to responses
func SecurityHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Add security headers
		c.Response().Header().Set("X-Content-Type-Options", "nosniff")
		c.Response().Header().Set("X-Frame-Options", "DENY")
		c.Response().Header().Set("X-XSS-Protection", "1; mode=block")
		c.Response().Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		return next(c)
	}
}
