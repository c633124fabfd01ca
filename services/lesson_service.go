package services

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/learnhub-backend/apperr"
	"github.com/vnkhanh/learnhub-backend/logger"
	"github.com/vnkhanh/learnhub-backend/models"
	"github.com/vnkhanh/learnhub-backend/repository"
	"github.com/vnkhanh/learnhub-backend/storage"
)

// ObjectStorage là phần gateway mà service cần; storage.Client hiện thực,
// test dùng fake.
type ObjectStorage interface {
	UploadFile(data []byte, folderParts []string, fileName string) (*storage.UploadResult, error)
	DeleteFile(objectKey string) error
	DownloadFile(objectKey string) (*storage.FileDownload, error)
	ListFiles(prefix string) []storage.ObjectInfo
	DownloadFolder(prefix, archiveName string) (*storage.FolderArchive, error)
	CreateSignedURL(objectKey string, expiresIn int) (string, error)
}

// FileOpKind phân biệt: không đụng file, thay file, gỡ file.
type FileOpKind int

const (
	FileNone FileOpKind = iota
	FileReplace
	FileRemove
)

type FileOp struct {
	Kind     FileOpKind
	Data     []byte
	FileName string
}

type CreateLessonInput struct {
	CourseID      uuid.UUID
	Title         string
	Description   *string
	Duration      *string
	OrderIndex    *int
	HasAssignment *bool
	FileData      []byte
	FileName      string
	Videos        VideoDirective
	ActorID       uuid.UUID
}

type UpdateLessonInput struct {
	Title         *string
	Description   *string
	Duration      *string
	OrderIndex    *int
	HasAssignment *bool
	File          FileOp
	Videos        VideoDirective
	ActorID       uuid.UUID
}

// LessonService điều phối vòng đời bài học: kiểm tra đầu vào, gọi storage,
// ghi metadata, reconcile video rồi phát audit best-effort.
type LessonService struct {
	repo       *repository.LessonRepository
	storage    ObjectStorage
	reconciler *VideoReconciler
	audit      *AuditEmitter
	log        *logger.Logger
}

func NewLessonService(repo *repository.LessonRepository, store ObjectStorage, reconciler *VideoReconciler, audit *AuditEmitter, log *logger.Logger) *LessonService {
	return &LessonService{
		repo:       repo,
		storage:    store,
		reconciler: reconciler,
		audit:      audit,
		log:        log.With("service", "LessonService"),
	}
}

func (s *LessonService) GetLesson(id uuid.UUID) (*models.Lesson, error) {
	return s.repo.GetLesson(id)
}

func (s *LessonService) ListLessons(courseID *uuid.UUID) ([]models.Lesson, error) {
	return s.repo.ListLessons(courseID)
}

// CreateLesson tạo bài học mới; file tài liệu là bắt buộc khi tạo.
func (s *LessonService) CreateLesson(input CreateLessonInput) (*models.Lesson, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperr.Validation("Thiếu tiêu đề bài học")
	}
	if input.CourseID == uuid.Nil {
		return nil, apperr.Validation("Thiếu khóa học")
	}
	if len(input.FileData) == 0 || strings.TrimSpace(input.FileName) == "" {
		return nil, apperr.Validation("Bài học mới bắt buộc phải có file tài liệu")
	}
	if input.Videos.Kind == VideosReplace {
		if err := validateVideoInputs(input.Videos.Items); err != nil {
			return nil, err
		}
	}

	course, err := s.repo.GetCourse(input.CourseID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	uploaded, err := s.storage.UploadFile(input.FileData, []string{course.Title, title}, input.FileName)
	if err != nil {
		return nil, err
	}

	lesson := models.Lesson{
		ID:         uuid.New(),
		CourseID:   course.ID,
		Title:      title,
		Duration:   models.DefaultLessonDuration,
		Status:     models.LessonStatusActive,
		FilePath:   &uploaded.ObjectKey,
		FileType:   &uploaded.FileType,
		FileSize:   &uploaded.FileSize,
		CreatedBy:  input.ActorID,
		OrderIndex: 0,
	}
	if input.Description != nil {
		lesson.Description = input.Description
	}
	if input.Duration != nil && strings.TrimSpace(*input.Duration) != "" {
		lesson.Duration = strings.TrimSpace(*input.Duration)
	}
	if input.OrderIndex != nil {
		lesson.OrderIndex = *input.OrderIndex
	}
	if input.HasAssignment != nil {
		lesson.HasAssignment = *input.HasAssignment
	}

	if excerpt, err := ExtractExcerpt(input.FileData, input.FileName); err == nil && excerpt != "" {
		lesson.Excerpt = &excerpt
	} else if err != nil {
		s.log.Debug("không trích xuất được excerpt", "file", input.FileName, "error", err)
	}

	if err := s.repo.CreateLesson(&lesson); err != nil {
		return nil, err
	}

	if input.Videos.Kind != VideosNoChange {
		if err := s.reconciler.Reconcile(lesson.ID, input.Videos); err != nil {
			return nil, err
		}
	}

	s.audit.Emit(AuditEvent{
		Actor:    input.ActorID,
		Action:   "lesson.create",
		EntityID: lesson.ID,
		Detail:   fmt.Sprintf("Tạo bài học %q trong khóa %q", lesson.Title, course.Title),
	})

	return s.repo.GetLesson(lesson.ID)
}

// UpdateLesson ghi các trường thay đổi, xử lý file op và reconcile video.
// Không có gì thay đổi thì bỏ qua hoàn toàn việc ghi.
func (s *LessonService) UpdateLesson(id uuid.UUID, input UpdateLessonInput) (*models.Lesson, error) {
	lesson, err := s.repo.GetLesson(id)
	if err != nil {
		return nil, err
	}
	if input.Videos.Kind == VideosReplace {
		if err := validateVideoInputs(input.Videos.Items); err != nil {
			return nil, err
		}
	}
	if input.File.Kind == FileReplace && (len(input.File.Data) == 0 || strings.TrimSpace(input.File.FileName) == "") {
		return nil, apperr.Validation("Thiếu file khi yêu cầu thay tài liệu")
	}

	updates := map[string]interface{}{}

	effectiveTitle := lesson.Title
	if input.Title != nil {
		t := strings.TrimSpace(*input.Title)
		if t != "" && t != lesson.Title {
			updates["title"] = t
			effectiveTitle = t
		}
	}
	if input.Description != nil && !equalStrPtr(input.Description, lesson.Description) {
		updates["description"] = input.Description
	}
	if input.Duration != nil {
		d := strings.TrimSpace(*input.Duration)
		if d != "" && d != lesson.Duration {
			updates["duration"] = d
		}
	}
	if input.OrderIndex != nil && *input.OrderIndex != lesson.OrderIndex {
		updates["order_index"] = *input.OrderIndex
	}
	if input.HasAssignment != nil && *input.HasAssignment != lesson.HasAssignment {
		updates["has_assignment"] = *input.HasAssignment
	}

	switch input.File.Kind {
	case FileReplace:
		// Gỡ key cũ trước cho khỏi mồ côi; lỗi storage ở bước phụ chỉ warn.
		if lesson.FilePath != nil {
			if err := s.storage.DeleteFile(*lesson.FilePath); err != nil {
				s.log.Warn("không xóa được file cũ khi thay tài liệu", "key", *lesson.FilePath, "error", err)
			}
		}
		uploaded, err := s.storage.UploadFile(input.File.Data, []string{lesson.CourseTitle, effectiveTitle}, input.File.FileName)
		if err != nil {
			// Upload hỏng: vẫn commit metadata, không gắn file mới.
			s.log.Warn("upload file mới thất bại, giữ metadata không kèm file", "lesson_id", id, "error", err)
		} else {
			updates["file_path"] = uploaded.ObjectKey
			updates["file_type"] = uploaded.FileType
			updates["file_size"] = uploaded.FileSize
			if excerpt, exErr := ExtractExcerpt(input.File.Data, input.File.FileName); exErr == nil && excerpt != "" {
				updates["excerpt"] = excerpt
			} else {
				updates["excerpt"] = nil
			}
		}
	case FileRemove:
		if lesson.FilePath != nil {
			if err := s.storage.DeleteFile(*lesson.FilePath); err != nil {
				s.log.Warn("không xóa được file khi gỡ tài liệu", "key", *lesson.FilePath, "error", err)
			}
		}
		updates["file_path"] = nil
		updates["file_type"] = nil
		updates["file_size"] = nil
		updates["excerpt"] = nil
	}

	if len(updates) == 0 && input.Videos.Kind == VideosNoChange {
		// Không có gì để ghi.
		return lesson, nil
	}

	err = s.repo.DB().Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			updates["updated_by"] = input.ActorID
			if err := tx.Model(&models.Lesson{}).
				Where("id = ? AND status <> ?", id, models.LessonStatusDeleted).
				Updates(updates).Error; err != nil {
				return err
			}
		}
		return s.reconciler.ReconcileTx(tx, id, input.Videos)
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.audit.Emit(AuditEvent{
		Actor:    input.ActorID,
		Action:   "lesson.update",
		EntityID: id,
		Detail:   fmt.Sprintf("Cập nhật bài học %q", effectiveTitle),
	})

	return s.repo.GetLesson(id)
}

// DeleteLesson soft-delete bài học và best-effort xóa file chính.
// Video của bài học giữ nguyên trạng thái (xem DESIGN.md).
func (s *LessonService) DeleteLesson(id uuid.UUID, actorID uuid.UUID) error {
	lesson, err := s.repo.GetLesson(id)
	if err != nil {
		return err
	}

	if lesson.FilePath != nil {
		if err := s.storage.DeleteFile(*lesson.FilePath); err != nil {
			s.log.Warn("không xóa được file khi xóa bài học", "key", *lesson.FilePath, "error", err)
		}
	}

	if err := s.repo.SoftDeleteLesson(id, actorID); err != nil {
		return err
	}

	s.audit.Emit(AuditEvent{
		Actor:    actorID,
		Action:   "lesson.delete",
		EntityID: id,
		Detail:   fmt.Sprintf("Xóa bài học %q", lesson.Title),
	})
	return nil
}

// UpdateOrder đổi thứ tự nhiều bài học trong một transaction all-or-nothing.
func (s *LessonService) UpdateOrder(pairs []repository.OrderPair, actorID uuid.UUID) error {
	if len(pairs) == 0 {
		return apperr.Validation("Danh sách thứ tự rỗng")
	}
	if err := s.repo.UpdateOrder(pairs, actorID); err != nil {
		return err
	}
	s.audit.Emit(AuditEvent{
		Actor:  actorID,
		Action: "lesson.reorder",
		Detail: fmt.Sprintf("Đổi thứ tự %d bài học", len(pairs)),
	})
	return nil
}

// FolderPrefix trả về prefix thư mục chứa file của bài học trên storage.
func (s *LessonService) FolderPrefix(lesson *models.Lesson) string {
	if lesson.FilePath != nil {
		if dir := path.Dir(*lesson.FilePath); dir != "." && dir != "/" {
			return dir
		}
	}
	return storage.FolderPrefix([]string{lesson.CourseTitle, lesson.Title})
}

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
