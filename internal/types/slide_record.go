package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
)

// SlideRecord is the persisted canonical view of one slide in a lesson's slide
// script. Identity within a lesson is Index (0-based, dense). The whole set is
// replaced wholesale when the slides stage re-runs; SpeakerNote alone may be
// updated in between by a note patch.
type SlideRecord struct {
  ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
  LessonID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_slide_lesson_index,unique" json:"lesson_id"`
  Index       int            `gorm:"column:index;not null;index:idx_slide_lesson_index,unique" json:"index"`
  Title       string         `gorm:"column:title;not null" json:"title"`
  SpeakerNote string         `gorm:"column:speaker_note;type:text" json:"speaker_note"`
  BodyLines   datatypes.JSON `gorm:"column:body_lines;type:jsonb" json:"body_lines"`
  CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
  DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SlideRecord) TableName() string { return "slide_record" }
