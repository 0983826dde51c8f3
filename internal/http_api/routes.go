package http_api

import "github.com/gin-gonic/gin"

// routes sets up the routes for the HTTP server.
func (s *HTTPServer) routes() {
	api := s.router.Group("/api/loyalty")
	api.POST("/gasless", s.limiter.middleware(), s.gasless)
	api.GET("/operations", s.operations)

	s.router.GET("/health", s.health)
	s.router.GET("/ready", s.ready)
	s.router.GET("/metrics", gin.WrapH(s.metrics.handler()))
}
