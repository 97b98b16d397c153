package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/teampulse/teampulse/internal/auth"
	"github.com/teampulse/teampulse/internal/googleauth"
	"github.com/teampulse/teampulse/internal/users"
)

// Federation is the Google bridge capability the auth handler consumes.
type Federation interface {
	ExchangeCode(ctx context.Context, code string) (googleauth.Tokens, error)
	VerifyIdentity(ctx context.Context, rawIDToken string) (googleauth.Identity, error)
}

// AuthHandler serves registration, logins, and the session introspection route.
type AuthHandler struct {
	userService *users.Service
	federation  Federation
	jwtSecret   string
	expiresIn   time.Duration
	logger      *slog.Logger
}

// NewAuthHandler creates the auth handler with user service, Google bridge, and JWT config.
func NewAuthHandler(log *slog.Logger, userService *users.Service, federation Federation, jwtSecret string, expiresIn time.Duration) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		userService: userService,
		federation:  federation,
		jwtSecret:   jwtSecret,
		expiresIn:   expiresIn,
		logger:      log.With(slog.String("handler", "auth")),
	}
}

// Register mounts the auth routes. All of them are public except that
// /auth/me reads the bearer token itself.
func (h *AuthHandler) Register(e *echo.Echo) {
	g := e.Group("/auth")
	g.POST("/register", h.RegisterUser)
	g.POST("/login", h.Login)
	g.POST("/google", h.GoogleLogin)
	g.GET("/me", h.Me)
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest is the body for POST /auth/google. LinkExisting is the
// explicit consent flag for attaching the Google identity to an existing
// password account with the same email.
type GoogleLoginRequest struct {
	Code         string `json:"code"`
	LinkExisting bool   `json:"link_existing"`
}

// SessionResponse is the success body for register and login.
type SessionResponse struct {
	Success bool             `json:"success"`
	Token   string           `json:"token"`
	User    users.PublicView `json:"user"`
}

// GoogleSessionResponse additionally forwards the provider access token to
// the caller; the server does not retain it.
type GoogleSessionResponse struct {
	Success     bool             `json:"success"`
	Token       string           `json:"token"`
	GoogleToken string           `json:"googleToken"`
	User        users.PublicView `json:"user"`
}

// UserResponse is the success body for GET /auth/me.
type UserResponse struct {
	Success bool             `json:"success"`
	User    users.PublicView `json:"user"`
}

// RegisterUser godoc
// @Summary Register
// @Description Create a password account and issue a session token
// @Tags auth
// @Param payload body users.RegisterRequest true "Registration payload"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/register [post].
func (h *AuthHandler) RegisterUser(c echo.Context) error {
	var req users.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	user, err := h.userService.Register(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrMissingFields):
			return fail(c, http.StatusBadRequest, "please fill all required fields")
		case errors.Is(err, users.ErrEmailTaken):
			return fail(c, http.StatusConflict, "user already exists, please login instead")
		default:
			h.logger.Error("registration failed", slog.Any("error", err))
			return fail(c, http.StatusInternalServerError, "registration failed, please try again")
		}
	}

	return h.session(c, http.StatusCreated, user)
}

// Login godoc
// @Summary Login
// @Description Validate email + password and issue a session token
// @Tags auth
// @Param payload body LoginRequest true "Login payload"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/login [post].
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	user, err := h.userService.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrMissingFields):
			return fail(c, http.StatusBadRequest, "please provide email and password")
		case errors.Is(err, users.ErrInvalidCredentials):
			return fail(c, http.StatusUnauthorized, "invalid email or password")
		default:
			h.logger.Error("login failed", slog.Any("error", err))
			return fail(c, http.StatusInternalServerError, "login failed, please try again")
		}
	}

	return h.session(c, http.StatusOK, user)
}

// GoogleLogin godoc
// @Summary Google login
// @Description Exchange an authorization code, verify the identity token, and issue a session token
// @Tags auth
// @Param payload body GoogleLoginRequest true "Google login payload"
// @Success 200 {object} GoogleSessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/google [post].
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	var req GoogleLoginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return fail(c, http.StatusBadRequest, "authorization code is required")
	}

	ctx := c.Request().Context()
	tokens, err := h.federation.ExchangeCode(ctx, req.Code)
	if err != nil {
		h.logger.Warn("google code exchange failed", slog.Any("error", err))
		return fail(c, http.StatusInternalServerError, "google authentication failed")
	}
	identity, err := h.federation.VerifyIdentity(ctx, tokens.IDToken)
	if err != nil {
		h.logger.Warn("google identity verification failed", slog.Any("error", err))
		return fail(c, http.StatusInternalServerError, "google authentication failed")
	}

	user, err := h.userService.EnsureGoogleUser(ctx, identity.Name, identity.Email, identity.Subject, req.LinkExisting)
	if err != nil {
		if errors.Is(err, users.ErrAccountLinkRequired) {
			return fail(c, http.StatusConflict, "an account with this email already exists; confirm linking to continue")
		}
		h.logger.Error("google login failed", slog.Any("error", err))
		return fail(c, http.StatusInternalServerError, "google authentication failed")
	}

	token, _, err := auth.GenerateToken(user.ID, h.jwtSecret, h.expiresIn)
	if err != nil {
		h.logger.Error("token issue failed", slog.Any("error", err))
		return fail(c, http.StatusInternalServerError, "google authentication failed")
	}

	return c.JSON(http.StatusOK, GoogleSessionResponse{
		Success:     true,
		Token:       token,
		GoogleToken: tokens.AccessToken,
		User:        user.Public(),
	})
}

// Me godoc
// @Summary Who am I
// @Description Return the user behind the bearer token
// @Tags auth
// @Success 200 {object} UserResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/me [get].
func (h *AuthHandler) Me(c echo.Context) error {
	raw := auth.TokenFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	userID, err := auth.ParseToken(raw, h.jwtSecret)
	if err != nil {
		if errors.Is(err, auth.ErrTokenMissing) {
			return fail(c, http.StatusUnauthorized, "unauthorized: no token provided")
		}
		return fail(c, http.StatusUnauthorized, "unauthorized: invalid or expired token")
	}

	user, err := h.userService.Get(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		h.logger.Error("user lookup failed", slog.Any("error", err))
		return fail(c, http.StatusInternalServerError, "failed to retrieve user data")
	}

	return c.JSON(http.StatusOK, UserResponse{Success: true, User: user.Public()})
}

func (h *AuthHandler) session(c echo.Context, status int, user users.User) error {
	token, _, err := auth.GenerateToken(user.ID, h.jwtSecret, h.expiresIn)
	if err != nil {
		h.logger.Error("token issue failed", slog.Any("error", err))
		return fail(c, http.StatusInternalServerError, "failed to issue session token")
	}
	return c.JSON(status, SessionResponse{Success: true, Token: token, User: user.Public()})
}
