package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
)

type QuizQuestion struct {
  ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
  LessonID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"lesson_id"`
  Index        int            `gorm:"column:index;not null" json:"index"`
  Prompt       string         `gorm:"column:prompt;type:text;not null" json:"prompt"`
  Options      datatypes.JSON `gorm:"column:options;type:jsonb" json:"options"`
  CorrectIndex int            `gorm:"column:correct_index;not null;default:0" json:"correct_index"`
  Explanation  string         `gorm:"column:explanation;type:text" json:"explanation"`
  CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
  DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuizQuestion) TableName() string { return "quiz_question" }
