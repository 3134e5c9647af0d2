package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Lesson struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course   *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Index    int       `gorm:"column:index;not null" json:"index"`
	Title    string    `gorm:"column:title;not null" json:"title"`

	// Ordered section ids, jsonb array. Recombination filters this against the
	// sections that actually exist, so a stale id here is harmless.
	SectionOrder datatypes.JSON `gorm:"column:section_order;type:jsonb" json:"section_order"`

	// Combined artifact. Owned entirely by recombination; never hand-edited.
	CombinedCode     string         `gorm:"column:combined_code;type:text" json:"combined_code"`
	CombinedOriginal string         `gorm:"column:combined_original;type:text" json:"combined_original"`
	CombinedManifest datatypes.JSON `gorm:"column:combined_manifest;type:jsonb" json:"combined_manifest"`
	ArtifactVersion  int            `gorm:"column:artifact_version;not null;default:0" json:"artifact_version"`
	AutoGenerated    bool           `gorm:"column:auto_generated;not null;default:false" json:"auto_generated"`
	LastGeneratedAt  *time.Time     `gorm:"column:last_generated_at" json:"last_generated_at,omitempty"`
	ModifiedBy       string         `gorm:"column:modified_by" json:"modified_by"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }
