package server

import (
	"net/http"

	"medialist/internal/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes builds the gin engine with global middleware and every
// feature handler mounted.
func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
	}))
	r.Use(LoggingMiddleware(s.logger))
	r.Use(auth.SessionMiddleware(s.resolver))

	r.GET("/health", s.healthHandler)

	for _, h := range s.handlers {
		h.RegisterRoutes(r)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "reason": "Not found."})
	})

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	status := http.StatusOK
	response := gin.H{
		"status":  "ok",
		"service": ServiceName,
	}

	if s.db != nil {
		dbHealth := s.db.Health(c.Request.Context())
		response["database"] = dbHealth
		if dbHealth["status"] != "up" {
			response["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	if s.sessions != nil {
		response["sessions"] = s.sessions.Len()
	}

	c.JSON(status, response)
}
