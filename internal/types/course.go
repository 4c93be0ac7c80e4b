package types

import (
	"github.com/google/uuid"
)

// Course is one generated curriculum, owned by the session that created
// it. CompletionPercentage is derived from section completion and only
// written by the completion service.
type Course struct {
	CourseID             uuid.UUID `gorm:"column:course_id;type:uuid;primaryKey" json:"course_id"`
	SessionID            uuid.UUID `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	Session              *Session  `gorm:"foreignKey:SessionID;references:SessionID" json:"session,omitempty"`
	Title                string    `gorm:"column:title" json:"title"`
	Description          string    `gorm:"column:description" json:"description"`
	Level                string    `gorm:"column:level" json:"level"`
	CreatedAt            int64     `gorm:"column:created_at" json:"created_at"`
	CompletionPercentage float64   `gorm:"column:completion_percentage;not null;default:0" json:"completion_percentage"`
}

func (Course) TableName() string { return "courses" }
