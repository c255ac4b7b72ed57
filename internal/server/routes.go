package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/parley/internal/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	rateLimiter := middleware.RateLimiter()
	auth := middleware.Auth(s.userStore)

	api := s.E.Group("/api")
	api.POST("/auth/signup", s.authHandler.SignupPost, rateLimiter)
	api.POST("/auth/login", s.authHandler.LoginPost, rateLimiter)
	api.GET("/users", s.userHandler.ListUsers, auth)

	s.E.GET("/ws", s.coordinator.Handler(), auth)

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}
