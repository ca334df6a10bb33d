package repos

import (
  "context"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/lessonforge-backend/internal/logger"
  "github.com/yungbote/lessonforge-backend/internal/types"
)

type SlideRecordRepo interface {
  GetByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.SlideRecord, error)
  ReplaceForLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, records []*types.SlideRecord) error
  UpdateSpeakerNote(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, index int, note string) error
}

type slideRecordRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewSlideRecordRepo(db *gorm.DB, baseLog *logger.Logger) SlideRecordRepo {
  return &slideRecordRepo{db: db, log: baseLog.With("repo", "SlideRecordRepo")}
}

func (r *slideRecordRepo) GetByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.SlideRecord, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.SlideRecord
  if err := transaction.WithContext(ctx).
    Where("lesson_id = ?", lessonID).
    Order("\"index\" ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

// ReplaceForLesson hard-deletes the lesson's slide set and inserts the new one.
// The slide set is always replaced wholesale, never merged.
func (r *slideRecordRepo) ReplaceForLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, records []*types.SlideRecord) error {
  run := func(transaction *gorm.DB) error {
    if err := transaction.WithContext(ctx).
      Unscoped().
      Where("lesson_id = ?", lessonID).
      Delete(&types.SlideRecord{}).Error; err != nil {
      return err
    }
    if len(records) == 0 {
      return nil
    }
    return transaction.WithContext(ctx).Create(&records).Error
  }

  if tx != nil {
    return run(tx)
  }
  return r.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
    return run(transaction)
  })
}

func (r *slideRecordRepo) UpdateSpeakerNote(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, index int, note string) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  res := transaction.WithContext(ctx).
    Model(&types.SlideRecord{}).
    Where("lesson_id = ? AND \"index\" = ?", lessonID, index).
    Updates(map[string]any{
      "speaker_note": note,
      "updated_at":   time.Now(),
    })
  if res.Error != nil {
    return res.Error
  }
  if res.RowsAffected == 0 {
    return gorm.ErrRecordNotFound
  }
  return nil
}
