package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
)

type GenerationRun struct {
  ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
  UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
  LessonID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"lesson_id"`
  Status      string         `gorm:"column:status;not null;index" json:"status"` // running|succeeded|failed
  Stage       string         `gorm:"column:stage;not null;index" json:"stage"`   // outline|slides|questions|audio|export
  ProviderID  string         `gorm:"column:provider_id" json:"provider_id"`
  ModelID     string         `gorm:"column:model_id" json:"model_id"`
  Error       string         `gorm:"column:error" json:"error"`
  Metadata    datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata"`
  StartedAt   time.Time      `gorm:"not null;default:now()" json:"started_at"`
  FinishedAt  *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
  CreatedAt   time.Time      `gorm:"not null;default:now();index" json:"created_at"`
  UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
  DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GenerationRun) TableName() string { return "generation_run" }
