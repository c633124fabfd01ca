// Package testutil dựng DB SQLite in-memory cho test. Schema được khai báo
// bằng tay vì DDL Postgres (gen_random_uuid) không chạy được trên SQLite;
// mọi đường ghi trong code đều gán ID tường minh nên không cần default.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vnkhanh/learnhub-backend/models"
)

var schema = []string{
	`CREATE TABLE courses (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE lessons (
		id TEXT PRIMARY KEY,
		course_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		duration TEXT NOT NULL DEFAULT 'Chưa cập nhật',
		order_index INTEGER NOT NULL DEFAULT 0,
		has_assignment BOOLEAN NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		file_path TEXT,
		file_type TEXT,
		file_size INTEGER,
		excerpt TEXT,
		created_by TEXT NOT NULL,
		updated_by TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE lesson_videos (
		id TEXT PRIMARY KEY,
		lesson_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		youtube_url TEXT NOT NULL,
		order_index INTEGER NOT NULL DEFAULT 0,
		duration TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'student',
		status BOOLEAN DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
}

// DB mở một DB in-memory riêng cho mỗi test và tạo schema.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		tb.Fatalf("mở sqlite in-memory: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("lấy sql.DB: %v", err)
	}
	// :memory: là một DB riêng cho MỖI connection; giữ đúng một connection
	// để mọi truy vấn trong test nhìn cùng một schema.
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			tb.Fatalf("tạo schema: %v", err)
		}
	}
	return db
}

func SeedCourse(tb testing.TB, db *gorm.DB, title string) *models.Course {
	tb.Helper()
	course := &models.Course{
		ID:     uuid.New(),
		Title:  title,
		Status: models.CourseStatusActive,
	}
	if err := db.Create(course).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return course
}

func SeedLesson(tb testing.TB, db *gorm.DB, courseID uuid.UUID, title string, orderIndex int) *models.Lesson {
	tb.Helper()
	lesson := &models.Lesson{
		ID:         uuid.New(),
		CourseID:   courseID,
		Title:      title,
		Duration:   models.DefaultLessonDuration,
		OrderIndex: orderIndex,
		Status:     models.LessonStatusActive,
		CreatedBy:  uuid.New(),
	}
	if err := db.Create(lesson).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return lesson
}

func SeedVideo(tb testing.TB, db *gorm.DB, lessonID uuid.UUID, title string, orderIndex int, createdAt time.Time) *models.LessonVideo {
	tb.Helper()
	video := &models.LessonVideo{
		ID:         uuid.New(),
		LessonID:   lessonID,
		Title:      title,
		YoutubeURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		OrderIndex: orderIndex,
		Status:     models.VideoStatusActive,
		CreatedAt:  createdAt,
	}
	if err := db.Create(video).Error; err != nil {
		tb.Fatalf("seed video: %v", err)
	}
	return video
}
