package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
)

// Lesson owns the three document slots. RawOutline is user input; DetailedOutline
// and SlideScript are provider output, replaced wholesale per stage run. SlideScript
// is additionally the target of localized speaker-note patches.
type Lesson struct {
  ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
  UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
  User            *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
  Title           string         `gorm:"column:title;not null" json:"title"`
  RawOutline      string         `gorm:"column:raw_outline;type:text" json:"raw_outline"`
  DetailedOutline string         `gorm:"column:detailed_outline;type:text" json:"detailed_outline"`
  SlideScript     string         `gorm:"column:slide_script;type:text" json:"slide_script"`
  Stage           string         `gorm:"column:stage;not null;default:created" json:"stage"`
  ModelID         string         `gorm:"column:model_id" json:"model_id"`
  Metadata        datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
  CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
  DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }
