package users

import (
	"errors"
	"log/slog"
	"net/http"

	"medialist/internal/auth"

	"github.com/gin-gonic/gin"
)

// RegisterRequest is the request payload for POST /users
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=1"`
}

// UpdatePasswordRequest is the request payload for PUT /users/:username
type UpdatePasswordRequest struct {
	Password string `json:"password" binding:"required,min=1"`
}

// SessionRevoker closes the live sessions of an account
type SessionRevoker interface {
	CloseUser(username, keepToken string) int
}

// Handler handles account HTTP requests
type Handler struct {
	store    Store
	hasher   Hasher
	sessions SessionRevoker
	logger   *slog.Logger
}

// NewHandler creates a new users handler. Deleting an account or changing
// its password revokes the account's other sessions through sessions.
func NewHandler(store Store, hasher Hasher, sessions SessionRevoker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, hasher: hasher, sessions: sessions, logger: logger}
}

// RegisterRoutes mounts the account endpoints on r.
// Registration is public; everything else needs a session.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/users", h.Register)

	users := r.Group("/users")
	users.Use(auth.RequireSession())
	{
		users.GET("/:username", h.Get)
		users.PUT("/:username", h.UpdatePassword)
		users.DELETE("/:username", h.Delete)
	}
}

// Register handles POST /users
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "reason": "Username and password are required."})
		return
	}

	hash, err := h.hasher.Hash(req.Username, req.Password)
	if err != nil {
		h.logger.Error("Failed to hash password", "username", req.Username, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "reason": "Failed to create user."})
		return
	}

	user, err := h.store.Create(c.Request.Context(), req.Username, hash)
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameExists):
			c.JSON(http.StatusConflict, gin.H{"success": false, "reason": "Username already exists."})
		default:
			h.logger.Error("Failed to create user", "username", req.Username, "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "reason": "Failed to create user."})
		}
		return
	}

	h.logger.Info("User registered", "username", user.Username)
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User created."})
}

// Get handles GET /users/:username
func (h *Handler) Get(c *gin.Context) {
	user, err := h.store.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "username": user.Username})
}

// UpdatePassword handles PUT /users/:username. Owner or admin only.
func (h *Handler) UpdatePassword(c *gin.Context) {
	target := c.Param("username")
	if err := auth.RequireOwnerOrAdmin(auth.SessionFrom(c), target); err != nil {
		auth.AbortWithError(c, err)
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "reason": "Password is required."})
		return
	}

	hash, err := h.hasher.Hash(target, req.Password)
	if err != nil {
		h.logger.Error("Failed to hash password", "username", target, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "reason": "Failed to update user."})
		return
	}

	if err := h.store.UpdatePassword(c.Request.Context(), target, hash); err != nil {
		h.respondStoreError(c, err)
		return
	}

	// The caller keeps its own session; every other one must log in again
	revoked := h.sessions.CloseUser(target, auth.SessionFrom(c).Token)
	h.logger.Info("Password updated", "username", target, "revoked_sessions", revoked)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User '" + target + "' updated."})
}

// Delete handles DELETE /users/:username. Owner or admin only.
func (h *Handler) Delete(c *gin.Context) {
	target := c.Param("username")
	if err := auth.RequireOwnerOrAdmin(auth.SessionFrom(c), target); err != nil {
		auth.AbortWithError(c, err)
		return
	}

	if err := h.store.Delete(c.Request.Context(), target); err != nil {
		h.respondStoreError(c, err)
		return
	}

	revoked := h.sessions.CloseUser(target, "")
	h.logger.Info("User deleted", "username", target, "by", auth.SessionFrom(c).Username, "revoked_sessions", revoked)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User '" + target + "' deleted."})
}

func (h *Handler) respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "reason": "User not found."})
		return
	}
	h.logger.Error("User store failure", "path", c.Request.URL.Path, "error", err.Error())
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "reason": "Internal server error."})
}
