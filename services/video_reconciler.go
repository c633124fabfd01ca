package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/learnhub-backend/apperr"
	"github.com/vnkhanh/learnhub-backend/models"
)

// VideoDirectiveKind phân biệt ba trạng thái của payload videos:
// bỏ qua hẳn, xóa hết, hoặc thay bằng danh sách mới.
type VideoDirectiveKind int

const (
	VideosNoChange VideoDirectiveKind = iota
	VideosClearAll
	VideosReplace
)

type VideoDirective struct {
	Kind  VideoDirectiveKind
	Items []VideoInput
}

type VideoInput struct {
	ID          *uuid.UUID `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	YoutubeURL  string     `json:"youtube_url"`
	OrderIndex  *int       `json:"order_index"`
	Duration    *string    `json:"duration"`
}

// Hai dạng link YouTube được chấp nhận.
var youtubeURLPattern = regexp.MustCompile(`^https?://(www\.)?(youtube\.com/watch\?v=[\w-]+|youtu\.be/[\w-]+)`)

func IsValidYoutubeURL(u string) bool {
	return youtubeURLPattern.MatchString(strings.TrimSpace(u))
}

// VideoReconciler so khớp danh sách video gửi lên với danh sách trong DB và
// áp dụng create/update/soft-delete trong MỘT transaction.
type VideoReconciler struct {
	db *gorm.DB
}

func NewVideoReconciler(db *gorm.DB) *VideoReconciler {
	return &VideoReconciler{db: db}
}

// Reconcile áp dụng directive cho bài học. Validate toàn bộ danh sách trước
// khi ghi: gặp phần tử sai là fail cả lời gọi, báo vị trí 1-based.
func (r *VideoReconciler) Reconcile(lessonID uuid.UUID, directive VideoDirective) error {
	switch directive.Kind {
	case VideosNoChange:
		return nil
	case VideosClearAll:
		return r.reconcileIn(r.db, lessonID, nil)
	case VideosReplace:
		if err := validateVideoInputs(directive.Items); err != nil {
			return err
		}
		return r.reconcileIn(r.db, lessonID, directive.Items)
	default:
		return apperr.Validation("Directive video không hợp lệ")
	}
}

// ReconcileTx như Reconcile nhưng chạy trong transaction có sẵn của caller.
func (r *VideoReconciler) ReconcileTx(tx *gorm.DB, lessonID uuid.UUID, directive VideoDirective) error {
	switch directive.Kind {
	case VideosNoChange:
		return nil
	case VideosClearAll:
		return applyVideoSet(tx, lessonID, nil)
	case VideosReplace:
		if err := validateVideoInputs(directive.Items); err != nil {
			return err
		}
		return applyVideoSet(tx, lessonID, directive.Items)
	default:
		return apperr.Validation("Directive video không hợp lệ")
	}
}

func (r *VideoReconciler) reconcileIn(db *gorm.DB, lessonID uuid.UUID, items []VideoInput) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		return applyVideoSet(tx, lessonID, items)
	})
	if err != nil {
		return apperr.From(err)
	}
	return nil
}

func validateVideoInputs(items []VideoInput) error {
	for i, v := range items {
		if strings.TrimSpace(v.Title) == "" {
			return apperr.Validation(fmt.Sprintf("Video thứ %d thiếu tiêu đề", i+1))
		}
		if !IsValidYoutubeURL(v.YoutubeURL) {
			return apperr.Validation(fmt.Sprintf("Video thứ %d có link YouTube không hợp lệ", i+1))
		}
	}
	return nil
}

// applyVideoSet: soft-delete video không còn trong danh sách, cập nhật video
// có id (kéo về active kể cả khi đã soft-delete trước đó), tạo mới video
// không có id. order_index mặc định theo vị trí gửi lên.
func applyVideoSet(tx *gorm.DB, lessonID uuid.UUID, items []VideoInput) error {
	keepIDs := make([]uuid.UUID, 0, len(items))
	for _, v := range items {
		if v.ID != nil {
			keepIDs = append(keepIDs, *v.ID)
		}
	}

	del := tx.Model(&models.LessonVideo{}).
		Where("lesson_id = ? AND status <> ?", lessonID, models.VideoStatusDeleted)
	if len(keepIDs) > 0 {
		del = del.Where("id NOT IN ?", keepIDs)
	}
	if err := del.Update("status", models.VideoStatusDeleted).Error; err != nil {
		return err
	}

	for i, v := range items {
		orderIndex := i
		if v.OrderIndex != nil {
			orderIndex = *v.OrderIndex
		}

		if v.ID != nil {
			updates := map[string]interface{}{
				"title":       strings.TrimSpace(v.Title),
				"description": v.Description,
				"youtube_url": strings.TrimSpace(v.YoutubeURL),
				"order_index": orderIndex,
				"duration":    v.Duration,
				"status":      models.VideoStatusActive,
			}
			if err := tx.Model(&models.LessonVideo{}).
				Where("id = ? AND lesson_id = ?", *v.ID, lessonID).
				Updates(updates).Error; err != nil {
				return err
			}
			continue
		}

		video := models.LessonVideo{
			ID:          uuid.New(),
			LessonID:    lessonID,
			Title:       strings.TrimSpace(v.Title),
			Description: v.Description,
			YoutubeURL:  strings.TrimSpace(v.YoutubeURL),
			OrderIndex:  orderIndex,
			Duration:    v.Duration,
			Status:      models.VideoStatusActive,
		}
		if err := tx.Create(&video).Error; err != nil {
			return err
		}
	}
	return nil
}
