package http

import "github.com/gin-gonic/gin"

// registerV1Routes sets up the v1 API structure
// Groups: /api/v1/schedule, /api/v1/reference
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware())
	if s.cfg.BearerToken != "" {
		v1.Use(bearerAuthMiddleware(s.cfg.BearerToken))
	}

	sched := v1.Group("/schedule")
	{
		sched.POST("/upload", s.handleV1Upload)
		sched.GET("/nights", s.handleV1ListNights)
	}

	ref := v1.Group("/reference")
	{
		ref.GET("/instruments", s.handleV1Instruments)
		ref.GET("/operators", s.handleV1Operators)
		ref.GET("/programs", s.handleV1Programs)
	}
}

func apiVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", "v1")
		c.Next()
	}
}
