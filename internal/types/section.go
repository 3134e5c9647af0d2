package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Section struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LessonID uuid.UUID `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Lesson   *Lesson   `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"lesson,omitempty"`
	Title    string    `gorm:"column:title;not null" json:"title"`
	Position int       `gorm:"column:position;not null" json:"position"`

	// RawSource is the authored snippet. Only authors write it; the pipeline
	// never writes this column back (that is what keeps the trigger loop-safe).
	RawSource string `gorm:"column:raw_source;type:text" json:"raw_source"`

	// Derived fields, owned by the transform pipeline.
	Code            string         `gorm:"column:code;type:text" json:"code"`
	Manifest        datatypes.JSON `gorm:"column:manifest;type:jsonb" json:"manifest"`
	RawFallback     bool           `gorm:"column:raw_fallback;not null;default:false" json:"raw_fallback"`
	AutoTransformed bool           `gorm:"column:auto_transformed;not null;default:false" json:"auto_transformed"`

	TransformError       string     `gorm:"column:transform_error" json:"transform_error"`
	LastTransformAttempt *time.Time `gorm:"column:last_transform_attempt" json:"last_transform_attempt,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Section) TableName() string { return "section" }
