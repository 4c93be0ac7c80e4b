package types

import (
	"github.com/google/uuid"
)

// Section is one ordered content unit of a course. SectionOrder is the
// zero-based index assigned at creation; IsCompleted and CompletedAt are
// set together when the section is marked complete.
type Section struct {
	SectionID    uuid.UUID `gorm:"column:section_id;type:uuid;primaryKey" json:"section_id"`
	CourseID     uuid.UUID `gorm:"column:course_id;type:uuid;index" json:"course_id"`
	Course       *Course   `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
	Title        string    `gorm:"column:title" json:"title"`
	Description  string    `gorm:"column:description" json:"description"`
	Content      string    `gorm:"column:content" json:"content"`
	SectionOrder int       `gorm:"column:section_order;not null" json:"section_order"`
	CreatedAt    int64     `gorm:"column:created_at" json:"created_at"`
	IsCompleted  bool      `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	CompletedAt  *int64    `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (Section) TableName() string { return "sections" }
