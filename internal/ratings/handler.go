package ratings

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"medialist/internal/auth"

	"github.com/gin-gonic/gin"
)

// CreateRequest is the request payload for POST /ratings
type CreateRequest struct {
	MediaID int64  `json:"media_id" binding:"required,min=1"`
	Score   int    `json:"score" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// UpdateRequest is the request payload for PUT /ratings/:id; absent fields
// are left unchanged
type UpdateRequest struct {
	Score   *int    `json:"score" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" binding:"omitempty,max=2000"`
}

// Handler handles rating HTTP requests
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler creates a new ratings handler
func NewHandler(store Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes mounts the rating endpoints on r. All of them need a session.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	ratings := r.Group("/ratings")
	ratings.Use(auth.RequireSession())
	{
		ratings.POST("", h.Create)
		ratings.PUT("/:id", h.Update)
		ratings.DELETE("/:id", h.Delete)
		ratings.POST("/:id/confirm", h.Confirm)
		ratings.POST("/:id/like", h.ToggleLike)
	}
}

// Create handles POST /ratings
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "reason": "media_id and a score from 1 to 5 are required."})
		return
	}

	username := auth.SessionFrom(c).Username
	rating, err := h.store.Create(c.Request.Context(), username, req.MediaID, req.Score, req.Comment)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	h.logger.Info("Rating created", "rating_id", rating.ID, "media_id", rating.MediaID, "username", username)
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": rating.ID})
}

// Update handles PUT /ratings/:id. Author or admin only.
func (h *Handler) Update(c *gin.Context) {
	rating, ok := h.loadOwned(c)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "reason": "Score must be between 1 and 5."})
		return
	}

	if err := h.store.Update(c.Request.Context(), rating.ID, req.Score, req.Comment); err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Rating updated."})
}

// Delete handles DELETE /ratings/:id. Author or admin only.
func (h *Handler) Delete(c *gin.Context) {
	rating, ok := h.loadOwned(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), rating.ID); err != nil {
		h.respondStoreError(c, err)
		return
	}

	h.logger.Info("Rating deleted", "rating_id", rating.ID, "author", rating.Username, "by", auth.SessionFrom(c).Username)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Rating deleted."})
}

// Confirm handles POST /ratings/:id/confirm. Author or admin only.
func (h *Handler) Confirm(c *gin.Context) {
	rating, ok := h.loadOwned(c)
	if !ok {
		return
	}

	if err := h.store.Confirm(c.Request.Context(), rating.ID); err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment confirmed."})
}

// ToggleLike handles POST /ratings/:id/like
func (h *Handler) ToggleLike(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	liked, err := h.store.ToggleLike(c.Request.Context(), auth.SessionFrom(c).Username, id)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "is_liked": liked})
}

// loadOwned fetches the rating named by :id and checks that the caller wrote
// it or is an administrator. On failure the response is already written.
func (h *Handler) loadOwned(c *gin.Context) (*Rating, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}

	rating, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondStoreError(c, err)
		return nil, false
	}

	if err := auth.RequireOwnerOrAdmin(auth.SessionFrom(c), rating.Username); err != nil {
		auth.AbortWithError(c, err)
		return nil, false
	}
	return rating, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "reason": "Invalid ID."})
		return 0, false
	}
	return id, true
}

func (h *Handler) respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrRatingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "reason": "Rating not found."})
	case errors.Is(err, ErrMediaNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "reason": "Media not found."})
	case errors.Is(err, ErrAlreadyRated):
		c.JSON(http.StatusConflict, gin.H{"success": false, "reason": "User has already rated this media entry."})
	case errors.Is(err, ErrUnknownUser):
		auth.AbortWithError(c, auth.ErrUnauthenticated)
	default:
		h.logger.Error("Rating store failure", "path", c.Request.URL.Path, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "reason": "Internal server error."})
	}
}
