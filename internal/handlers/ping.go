package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// PingHandler serves the liveness probe.
type PingHandler struct{}

// NewPingHandler creates the ping handler.
func NewPingHandler() *PingHandler {
	return &PingHandler{}
}

// Register mounts GET /ping.
func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
}

// Ping godoc
// @Summary Liveness probe
// @Success 200 {string} string "pong"
// @Router /ping [get].
func (h *PingHandler) Ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}
