package media

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"medialist/internal/auth"

	"github.com/gin-gonic/gin"
)

// CreateRequest is the request payload for POST /media
type CreateRequest struct {
	Title          string `json:"title" binding:"required,max=200"`
	Description    string `json:"description"`
	Type           string `json:"type" binding:"max=50"`
	ReleaseYear    int    `json:"release_year" binding:"min=0"`
	AgeRestriction int    `json:"age_restriction" binding:"min=0"`
}

// GenreRequest is the request payload for POST /media/:id/genres
type GenreRequest struct {
	Name string `json:"name" binding:"required"`
}

// Handler handles media HTTP requests
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler creates a new media handler
func NewHandler(store Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes mounts the media endpoints on r.
// Listing and detail are public; everything else needs a session.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/media", h.List)
	r.GET("/media/:id", h.Get)

	media := r.Group("/media")
	media.Use(auth.RequireSession())
	{
		media.POST("", h.Create)
		media.GET("/recommendations", h.Recommendations)
		media.PUT("/:id", h.Update)
		media.DELETE("/:id", h.Delete)
		media.POST("/:id/favorite", h.ToggleFavorite)
		media.POST("/:id/genres", h.AddGenre)
	}
}

// List handles GET /media. Malformed numeric filters are ignored.
func (h *Handler) List(c *gin.Context) {
	filter := Filter{
		Search: c.Query("search"),
		Type:   c.Query("type"),
		Genre:  c.Query("genre"),
		Sort:   c.Query("sort"),
	}
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	if age, err := strconv.Atoi(c.Query("age")); err == nil {
		filter.MaxAge = age
	}

	entries, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
}

// Get handles GET /media/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	entry, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	reviews, err := h.store.Reviews(c.Request.Context(), id)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": entry, "ratings": reviews})
}

// Create handles POST /media. The caller becomes the entry's creator.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "reason": "Title is required."})
		return
	}

	sess := auth.SessionFrom(c)
	entry, err := h.store.Create(c.Request.Context(), sess.Username, Media{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Type:           strings.TrimSpace(req.Type),
		ReleaseYear:    req.ReleaseYear,
		AgeRestriction: req.AgeRestriction,
	})
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	h.logger.Info("Media created", "media_id", entry.ID, "title", entry.Title, "by", sess.Username)
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": entry.ID, "message": "Media entry created."})
}

// Update handles PUT /media/:id. Creator or admin only.
func (h *Handler) Update(c *gin.Context) {
	entry, ok := h.loadOwned(c)
	if !ok {
		return
	}

	var changes Changes
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "reason": "Invalid request body."})
		return
	}
	if changes.Title != nil {
		title := strings.TrimSpace(*changes.Title)
		if title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "reason": "Title cannot be empty."})
			return
		}
		changes.Title = &title
	}

	if err := h.store.Update(c.Request.Context(), entry.ID, changes); err != nil {
		h.respondStoreError(c, err)
		return
	}

	h.logger.Info("Media updated", "media_id", entry.ID, "by", auth.SessionFrom(c).Username)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Media updated."})
}

// Delete handles DELETE /media/:id. Creator or admin only.
func (h *Handler) Delete(c *gin.Context) {
	entry, ok := h.loadOwned(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), entry.ID); err != nil {
		h.respondStoreError(c, err)
		return
	}

	h.logger.Info("Media deleted", "media_id", entry.ID, "creator", entry.Creator, "by", auth.SessionFrom(c).Username)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Media deleted."})
}

// ToggleFavorite handles POST /media/:id/favorite
func (h *Handler) ToggleFavorite(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	favorite, err := h.store.ToggleFavorite(c.Request.Context(), auth.SessionFrom(c).Username, id)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "is_favorite": favorite})
}

// AddGenre handles POST /media/:id/genres. Creator or admin only.
func (h *Handler) AddGenre(c *gin.Context) {
	entry, ok := h.loadOwned(c)
	if !ok {
		return
	}

	var req GenreRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "reason": "Genre name is required."})
		return
	}

	if err := h.store.AddGenre(c.Request.Context(), entry.ID, strings.TrimSpace(req.Name)); err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Genre added."})
}

// Recommendations handles GET /media/recommendations
func (h *Handler) Recommendations(c *gin.Context) {
	entries, err := h.store.Recommendations(c.Request.Context(), auth.SessionFrom(c).Username)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
}

// loadOwned fetches the entry named by :id and checks that the caller created
// it or is an administrator. On failure the response is already written.
func (h *Handler) loadOwned(c *gin.Context) (*Media, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}

	entry, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondStoreError(c, err)
		return nil, false
	}

	if err := auth.RequireOwnerOrAdmin(auth.SessionFrom(c), entry.Creator); err != nil {
		auth.AbortWithError(c, err)
		return nil, false
	}
	return entry, true
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
	case errors.Is(err, ErrMediaNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "reason": "Media not found."})
	case errors.Is(err, ErrTitleExists):
		c.JSON(http.StatusConflict, gin.H{"success": false, "reason": "A media entry with this title already exists."})
	case errors.Is(err, ErrUnknownGenre):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "reason": "Genre not found."})
	case errors.Is(err, ErrUnknownUser):
		auth.AbortWithError(c, auth.ErrUnauthenticated)
	default:
		h.logger.Error("Media store failure", "path", c.Request.URL.Path, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "reason": "Internal server error."})
	}
}
