package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/teampulse/teampulse/internal/workspace"
)

// WorkspaceHandler serves the Slack aggregation routes. All of them sit
// behind the JWT middleware.
type WorkspaceHandler struct {
	service *workspace.Service
	logger  *slog.Logger
}

// NewWorkspaceHandler creates the workspace handler.
func NewWorkspaceHandler(log *slog.Logger, service *workspace.Service) *WorkspaceHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WorkspaceHandler{
		service: service,
		logger:  log.With(slog.String("handler", "workspace")),
	}
}

// Register mounts the /slack routes.
func (h *WorkspaceHandler) Register(e *echo.Echo) {
	g := e.Group("/slack")
	g.GET("/members", h.Members)
	g.GET("/user/profile", h.Profile)
	g.GET("/activity", h.Activity)
	g.GET("/channels", h.Channels)
	g.GET("/chat", h.ChatHistory)
}

// Members godoc
// @Summary List workspace members
// @Tags slack
// @Success 200 {array} workspace.Member
// @Failure 500 {object} ErrorResponse
// @Router /slack/members [get].
func (h *WorkspaceHandler) Members(c echo.Context) error {
	members, err := h.service.Members(c.Request().Context())
	if err != nil {
		h.logger.Error("list members failed", slog.Any("error", err))
		return fail(c, http.StatusInternalServerError, "failed to fetch slack members")
	}
	return c.JSON(http.StatusOK, members)
}

// Profile godoc
// @Summary Get own workspace profile
// @Tags slack
// @Success 200 {object} workspace.Profile
// @Failure 500 {object} ErrorResponse
// @Router /slack/user/profile [get].
func (h *WorkspaceHandler) Profile(c echo.Context) error {
	profile, err := h.service.Profile(c.Request().Context())
	if err != nil {
		h.logger.Error("fetch profile failed", slog.Any("error", err))
		return fail(c, http.StatusInternalServerError, "failed to fetch user profile")
	}
	return c.JSON(http.StatusOK, profile)
}

// Activity godoc
// @Summary List recent activity across all channels
// @Description First batch of messages per channel; failing channels are skipped
// @Tags slack
// @Success 200 {array} workspace.ChannelMessage
// @Failure 500 {object} ErrorResponse
// @Router /slack/activity [get].
func (h *WorkspaceHandler) Activity(c echo.Context) error {
	activity, err := h.service.Activity(c.Request().Context())
	if err != nil {
		h.logger.Error("aggregate activity failed", slog.Any("error", err))
		return fail(c, http.StatusInternalServerError, "failed to fetch slack activity")
	}
	return c.JSON(http.StatusOK, activity)
}

// Channels godoc
// @Summary List workspace channels
// @Tags slack
// @Success 200 {array} workspace.Channel
// @Failure 500 {object} ErrorResponse
// @Router /slack/channels [get].
func (h *WorkspaceHandler) Channels(c echo.Context) error {
	channels, err := h.service.Channels(c.Request().Context())
	if err != nil {
		h.logger.Error("list channels failed", slog.Any("error", err))
		return fail(c, http.StatusInternalServerError, "failed to fetch slack channels")
	}
	return c.JSON(http.StatusOK, channels)
}

// ChatHistory godoc
// @Summary Get full chat history for a channel or user DM
// @Tags slack
// @Param id query string true "Channel or user ID"
// @Param type query string true "channel or user"
// @Success 200 {array} workspace.Message
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /slack/chat [get].
func (h *WorkspaceHandler) ChatHistory(c echo.Context) error {
	target := workspace.Target{
		Kind: c.QueryParam("type"),
		ID:   c.QueryParam("id"),
	}
	if target.ID == "" || target.Kind == "" {
		return fail(c, http.StatusBadRequest, "channel or user id and type are required")
	}

	messages, err := h.service.ChatHistory(c.Request().Context(), target)
	if err != nil {
		switch {
		case errors.Is(err, workspace.ErrInvalidTarget):
			return fail(c, http.StatusBadRequest, "invalid type: must be 'channel' or 'user'")
		case errors.Is(err, workspace.ErrNoDirectConversation):
			return fail(c, http.StatusNotFound, "no direct message conversation found with this user")
		default:
			h.logger.Error("fetch chat history failed", slog.Any("error", err))
			return fail(c, http.StatusInternalServerError, "failed to fetch chat history")
		}
	}
	return c.JSON(http.StatusOK, messages)
}
