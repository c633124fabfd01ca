package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/learnhub-backend/controllers"
	"github.com/vnkhanh/learnhub-backend/middleware"
	"github.com/vnkhanh/learnhub-backend/models"
	"github.com/vnkhanh/learnhub-backend/ws"
)

func SetupRouter(r *gin.Engine, db *gorm.DB, lessons *controllers.LessonController) *gin.Engine {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", controllers.HealthCheck(db))

	api := r.Group("/api")

	admin := api.Group("/admin")
	{
		admin.Use(middleware.AuthMiddleware(db), middleware.RequireRoles(string(models.RoleAdmin), string(models.RoleLecturer)))

		// Quản lý bài học
		admin.GET("/lessons", lessons.GetLessons)
		admin.POST("/lessons", lessons.CreateLesson)
		admin.PUT("/lessons/order", lessons.UpdateLessonOrder)
		admin.POST("/lessons/download-file", lessons.DownloadFileByKey)
		admin.GET("/lessons/:id", lessons.GetLessonDetail)
		admin.PUT("/lessons/:id", lessons.UpdateLesson)
		admin.DELETE("/lessons/:id", lessons.DeleteLesson)
		admin.GET("/lessons/:id/download", lessons.DownloadLessonFile)
		admin.GET("/lessons/:id/download-folder", lessons.DownloadLessonFolder)
		admin.GET("/lessons/:id/files", lessons.GetLessonFiles)
	}

	r.GET("/ws/lesson/:id", ws.HandleLessonWebSocket)
	r.GET("/ws/status", ws.HandleGlobalWebSocket)

	return r
}
