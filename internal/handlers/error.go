// Package handlers provides the HTTP API handlers for the TeamPulse server.
package handlers

import "github.com/labstack/echo/v4"

// ErrorResponse is the standard API error body: success flag plus message.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// fail writes the standard error body. Messages come from sentinel error
// text; raw hashes or signing material never reach this path.
func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorResponse{Success: false, Message: message})
}
