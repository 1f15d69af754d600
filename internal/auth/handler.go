package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"medialist/internal/events"

	"github.com/gin-gonic/gin"
)

// LoginRequest is the request payload for POST /api/login.
// Missing fields decode as empty strings and fail as invalid credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response after a successful login
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// Handler handles login and logout HTTP requests
type Handler struct {
	service   Service
	publisher events.Publisher
	logger    *slog.Logger
}

// NewHandler creates a new authentication handler
func NewHandler(service Service, publisher events.Publisher, logger *slog.Logger) *Handler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:   service,
		publisher: publisher,
		logger:    logger,
	}
}

// RegisterRoutes mounts the session endpoints on r
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/api/login", h.Login)
	r.DELETE("/api/login", h.Logout)
	r.GET("/api/session", RequireSession(), h.Current)
}

// Login handles POST /api/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "reason": "Invalid request body."})
		return
	}

	sess, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.logger.Warn("Invalid login attempt", "username", req.Username)
			events.PublishBestEffort(c.Request.Context(), h.publisher, h.logger,
				events.New(events.TypeLoginFailed, req.Username))
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "reason": "Invalid username or password."})
			return
		}

		h.logger.Error("Failed to log in", "username", req.Username, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "reason": "Login is temporarily unavailable."})
		return
	}

	h.logger.Info("User logged in", "username", sess.Username)
	events.PublishBestEffort(c.Request.Context(), h.publisher, h.logger,
		events.New(events.TypeSessionOpened, sess.Username))

	c.JSON(http.StatusOK, LoginResponse{Success: true, Token: sess.Token})
}

// Logout handles DELETE /api/login
func (h *Handler) Logout(c *gin.Context) {
	sess := SessionFrom(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "reason": "No active session."})
		return
	}

	h.service.Logout(sess.Token)

	h.logger.Info("User logged out", "username", sess.Username)
	events.PublishBestEffort(c.Request.Context(), h.publisher, h.logger,
		events.New(events.TypeSessionClosed, sess.Username))

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out."})
}

// Current handles GET /api/session
func (h *Handler) Current(c *gin.Context) {
	sess := SessionFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"username": sess.Username,
		"is_admin": sess.IsAdmin,
	})
}
