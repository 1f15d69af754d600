package genres

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"medialist/internal/auth"

	"github.com/gin-gonic/gin"
)

// CreateRequest is the request payload for POST /genres
type CreateRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// Handler handles genre HTTP requests
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler creates a new genres handler
func NewHandler(store Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes mounts the genre endpoints on r
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	genres := r.Group("/genres")
	genres.Use(auth.RequireSession())
	{
		genres.GET("", h.List)
		genres.GET("/:name", h.Get)
		genres.POST("", requireAdmin(), h.Create)
		genres.DELETE("/:name", requireAdmin(), h.Delete)
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.RequireAdmin(auth.SessionFrom(c)); err != nil {
			auth.AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// List handles GET /genres
func (h *Handler) List(c *gin.Context) {
	genres, err := h.store.List(c.Request.Context())
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "genres": genres})
}

// Get handles GET /genres/:name
func (h *Handler) Get(c *gin.Context) {
	genre, err := h.store.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "genre": genre})
}

// Create handles POST /genres. Admin only.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "reason": "Genre name is required."})
		return
	}

	genre, err := h.store.Create(c.Request.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	h.logger.Info("Genre created", "name", genre.Name, "by", auth.SessionFrom(c).Username)
	c.JSON(http.StatusCreated, gin.H{"success": true, "genre": genre})
}

// Delete handles DELETE /genres/:name. Admin only.
func (h *Handler) Delete(c *gin.Context) {
	name := c.Param("name")
	if err := h.store.Delete(c.Request.Context(), name); err != nil {
		h.respondStoreError(c, err)
		return
	}

	h.logger.Info("Genre deleted", "name", name, "by", auth.SessionFrom(c).Username)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Genre '" + name + "' deleted."})
}

func (h *Handler) respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrGenreNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "reason": "Genre not found."})
	case errors.Is(err, ErrGenreExists):
		c.JSON(http.StatusConflict, gin.H{"success": false, "reason": "Genre already exists."})
	default:
		h.logger.Error("Genre store failure", "path", c.Request.URL.Path, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "reason": "Internal server error."})
	}
}
