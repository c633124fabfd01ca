package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	CourseStatusActive  = "active"
	CourseStatusDeleted = "deleted"
)

// Course được quản lý bởi module khóa học; ở đây chỉ đọc để kiểm tra tồn tại.
type Course struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Status    string    `gorm:"type:varchar(20);default:'active'" json:"status"` // active | deleted
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Lessons []Lesson `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`
}
