package main

import (
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vnkhanh/learnhub-backend/config"
	"github.com/vnkhanh/learnhub-backend/controllers"
	"github.com/vnkhanh/learnhub-backend/logger"
	"github.com/vnkhanh/learnhub-backend/repository"
	"github.com/vnkhanh/learnhub-backend/routes"
	"github.com/vnkhanh/learnhub-backend/services"
	"github.com/vnkhanh/learnhub-backend/storage"
	"github.com/vnkhanh/learnhub-backend/ws"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("Không tìm thấy file .env")
	}

	appLog, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatal("Không khởi tạo được logger:", err)
	}
	defer appLog.Sync()

	db, err := config.InitDB(appLog)
	if err != nil {
		appLog.Fatal("init DB thất bại", "error", err)
	}

	store, err := storage.NewClient(appLog)
	if err != nil {
		appLog.Fatal("init storage thất bại", "error", err)
	}

	repo := repository.NewLessonRepository(db)
	reconciler := services.NewVideoReconciler(db)
	audit := services.NewAuditEmitter(appLog, ws.BroadcastRaw)
	defer audit.Close()

	lessonSvc := services.NewLessonService(repo, store, reconciler, audit, appLog)
	lessonCtrl := controllers.NewLessonController(lessonSvc, store, appLog)

	r := gin.Default()

	// Bật CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r = routes.SetupRouter(r, db, lessonCtrl)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	appLog.Info("Server running", "port", port)
	if err := r.Run(":" + port); err != nil {
		appLog.Fatal("server dừng", "error", err)
	}
}
