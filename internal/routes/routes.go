package routes

import (
	"coaching-assistant-api/internal/handlers"
	"coaching-assistant-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes builds the router around an explicitly constructed API.
func SetupRoutes(api *handlers.API) *gin.Engine {
	ginRouter := gin.Default()

	// CORS middleware (for frontend integration)
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Coaching Assistant API is running",
		})
	})

	// Public routes (no authentication required)
	public := ginRouter.Group("/api")
	{
		public.POST("/register", api.Register)
		public.POST("/login", api.Login)
	}

	// Protected routes (authentication required)
	protected := public.Group("")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		// Document endpoints
		protected.GET("/files", api.ListFiles)
		protected.GET("/files/search", api.SearchFiles)
		protected.GET("/files/download", api.DownloadFile)
		protected.GET("/files/info", api.FileInfo)
		protected.POST("/files/upload", api.UploadFiles)
		protected.POST("/files/move", api.MoveFile)
		protected.POST("/files/copy", api.CopyFile)
		protected.POST("/files/delete-batch", api.DeleteBatch)
		protected.DELETE("/files", api.DeleteFile)
		protected.POST("/folders", api.CreateFolder)
		protected.GET("/storage/stats", api.StorageStats)

		// Session endpoints
		protected.POST("/sessions", api.StartSession)
		protected.GET("/sessions", api.GetSessions)
		protected.GET("/sessions/:id", api.GetSession)
		protected.GET("/sessions/:id/history", api.GetHistory)
		protected.GET("/sessions/:id/reports", api.GetReports)
		protected.GET("/sessions/:id/stats", api.GetSessionStats)
		protected.PUT("/sessions/:id", api.UpdateSession)
		protected.POST("/sessions/:id/end", api.EndSession)
		protected.DELETE("/sessions/:id", api.DeleteSession)

		// Assistant endpoints
		protected.POST("/sessions/:id/chat", api.Chat)
		protected.POST("/sessions/:id/report", api.Report)

		// Operational endpoints
		protected.GET("/ops/cache/stats", api.CacheStats)
		protected.DELETE("/ops/cache", api.ClearCache)
		protected.GET("/ops/vector-stores", api.VectorStoreBindings)
		protected.DELETE("/ops/vector-stores/:id", api.DestroyVectorStore)

		// Users endpoint
		protected.GET("/users", api.GetAllUsers)

		// Realtime session events
		protected.GET("/ws", api.WebSocket)
	}

	return ginRouter
}
