package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LessonStatusActive  = "active"
	LessonStatusDeleted = "deleted"
)

// DefaultLessonDuration dùng khi client không gửi thời lượng.
const DefaultLessonDuration = "Chưa cập nhật"

type Lesson struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CourseID      uuid.UUID  `gorm:"type:uuid;not null" json:"course_id"`
	Course        Course     `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Description   *string    `gorm:"type:text" json:"description"`
	Duration      string     `gorm:"size:100;default:'Chưa cập nhật'" json:"duration"`
	OrderIndex    int        `gorm:"column:order_index;default:0" json:"order_index"`
	HasAssignment bool       `gorm:"default:false" json:"has_assignment"`
	Status        string     `gorm:"type:varchar(20);default:'active'" json:"status"` // active | deleted

	// Tài liệu chính: tối đa một file trên Supabase Storage.
	FilePath *string `gorm:"type:text" json:"file_path"` // object key
	FileType *string `gorm:"size:50" json:"file_type"`
	FileSize *int64  `json:"file_size"` // bytes
	Excerpt  *string `gorm:"type:text" json:"excerpt"`

	CreatedBy uuid.UUID  `gorm:"type:uuid;not null" json:"created_by"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid" json:"updated_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Chỉ gán khi join với courses
	CourseTitle string `gorm:"->;-:migration" json:"course_title,omitempty"`

	Videos []LessonVideo `gorm:"foreignKey:LessonID" json:"videos,omitempty"`
}
