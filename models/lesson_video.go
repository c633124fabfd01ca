package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	VideoStatusActive  = "active"
	VideoStatusDeleted = "deleted"
)

// LessonVideo là video YouTube gắn với bài học. order_index cho phép trùng
// (cùng giá trị thì xếp theo thứ tự tạo).
type LessonVideo struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LessonID    uuid.UUID `gorm:"type:uuid;not null" json:"lesson_id"`
	Lesson      Lesson    `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	YoutubeURL  string    `gorm:"type:text;not null" json:"youtube_url"`
	OrderIndex  int       `gorm:"column:order_index;default:0" json:"order_index"`
	Duration    *string   `gorm:"size:100" json:"duration"`
	Status      string    `gorm:"type:varchar(20);default:'active'" json:"status"` // active | deleted
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
