package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/learnhub-backend/apperr"
	"github.com/vnkhanh/learnhub-backend/models"
)

// LessonRepository gom các truy vấn lesson/lesson_video. Mọi đường đọc mặc
// định lọc status <> 'deleted'.
type LessonRepository struct {
	db *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// DB trả về handle để service mở transaction bao cả metadata lẫn videos.
func (r *LessonRepository) DB() *gorm.DB {
	return r.db
}

// GetCourse chỉ trả về khóa học còn hoạt động.
func (r *LessonRepository) GetCourse(id uuid.UUID) (*models.Course, error) {
	var course models.Course
	err := r.db.Where("status <> ?", models.CourseStatusDeleted).
		First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Không tìm thấy khóa học")
		}
		return nil, apperr.Persistence(err)
	}
	return &course, nil
}

// GetLesson trả về bài học còn hoạt động kèm tên khóa học và danh sách video.
func (r *LessonRepository) GetLesson(id uuid.UUID) (*models.Lesson, error) {
	var lesson models.Lesson
	err := r.db.Model(&models.Lesson{}).
		Select("lessons.*, courses.title AS course_title").
		Joins("JOIN courses ON courses.id = lessons.course_id").
		Where("lessons.id = ? AND lessons.status <> ?", id, models.LessonStatusDeleted).
		First(&lesson).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Không tìm thấy bài học")
		}
		return nil, apperr.Persistence(err)
	}

	videos, err := r.ListVideos(id)
	if err != nil {
		return nil, err
	}
	lesson.Videos = videos
	return &lesson, nil
}

// ListLessons liệt kê bài học, có thể lọc theo khóa học.
func (r *LessonRepository) ListLessons(courseID *uuid.UUID) ([]models.Lesson, error) {
	var lessons []models.Lesson
	query := r.db.Model(&models.Lesson{}).
		Select("lessons.*, courses.title AS course_title").
		Joins("JOIN courses ON courses.id = lessons.course_id").
		Where("lessons.status <> ?", models.LessonStatusDeleted)
	if courseID != nil {
		query = query.Where("lessons.course_id = ?", *courseID)
	}
	if err := query.Order("lessons.order_index ASC, lessons.created_at ASC").
		Find(&lessons).Error; err != nil {
		return nil, apperr.Persistence(err)
	}
	return lessons, nil
}

func (r *LessonRepository) CreateLesson(lesson *models.Lesson) error {
	if err := r.db.Create(lesson).Error; err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

// UpdateLessonFields ghi đúng các cột đã đổi; updates rỗng thì bỏ qua.
func (r *LessonRepository) UpdateLessonFields(id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if err := r.db.Model(&models.Lesson{}).
		Where("id = ? AND status <> ?", id, models.LessonStatusDeleted).
		Updates(updates).Error; err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

// SoftDeleteLesson đánh dấu deleted; trạng thái này là terminal.
func (r *LessonRepository) SoftDeleteLesson(id uuid.UUID, by uuid.UUID) error {
	if err := r.db.Model(&models.Lesson{}).
		Where("id = ? AND status <> ?", id, models.LessonStatusDeleted).
		Updates(map[string]interface{}{
			"status":     models.LessonStatusDeleted,
			"updated_by": by,
		}).Error; err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

type OrderPair struct {
	ID         uuid.UUID `json:"id"`
	OrderIndex int       `json:"order_index"`
}

// UpdateOrder cập nhật thứ tự nhiều bài học trong một transaction; một cặp
// lỗi (bài không tồn tại/đã xóa) rollback toàn bộ batch.
func (r *LessonRepository) UpdateOrder(pairs []OrderPair, by uuid.UUID) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, p := range pairs {
			result := tx.Model(&models.Lesson{}).
				Where("id = ? AND status <> ?", p.ID, models.LessonStatusDeleted).
				Updates(map[string]interface{}{
					"order_index": p.OrderIndex,
					"updated_by":  by,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("không tìm thấy bài học %s", p.ID)
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

// ListVideos trả về video còn hoạt động của bài học, theo order_index rồi
// đến thời điểm tạo (tie-break).
func (r *LessonRepository) ListVideos(lessonID uuid.UUID) ([]models.LessonVideo, error) {
	var videos []models.LessonVideo
	if err := r.db.Where("lesson_id = ? AND status <> ?", lessonID, models.VideoStatusDeleted).
		Order("order_index ASC, created_at ASC").
		Find(&videos).Error; err != nil {
		return nil, apperr.Persistence(err)
	}
	return videos, nil
}
