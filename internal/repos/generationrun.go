package repos

import (
  "context"
  "errors"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/lessonforge-backend/internal/logger"
  "github.com/yungbote/lessonforge-backend/internal/types"
)

type GenerationRunRepo interface {
  Create(ctx context.Context, tx *gorm.DB, runs []*types.GenerationRun) ([]*types.GenerationRun, error)
  GetLatestForLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (*types.GenerationRun, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, runID uuid.UUID, fields map[string]any) error
}

type generationRunRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewGenerationRunRepo(db *gorm.DB, baseLog *logger.Logger) GenerationRunRepo {
  return &generationRunRepo{db: db, log: baseLog.With("repo", "GenerationRunRepo")}
}

func (r *generationRunRepo) Create(ctx context.Context, tx *gorm.DB, runs []*types.GenerationRun) ([]*types.GenerationRun, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(runs) == 0 {
    return []*types.GenerationRun{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&runs).Error; err != nil {
    return nil, err
  }
  return runs, nil
}

func (r *generationRunRepo) GetLatestForLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (*types.GenerationRun, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var run types.GenerationRun
  err := transaction.WithContext(ctx).
    Where("lesson_id = ?", lessonID).
    Order("created_at DESC").
    First(&run).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &run, nil
}

func (r *generationRunRepo) UpdateFields(ctx context.Context, tx *gorm.DB, runID uuid.UUID, fields map[string]any) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(fields) == 0 {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Model(&types.GenerationRun{}).
    Where("id = ?", runID).
    Updates(fields).Error; err != nil {
    return err
  }
  return nil
}
