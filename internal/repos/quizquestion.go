package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/lessonforge-backend/internal/logger"
  "github.com/yungbote/lessonforge-backend/internal/types"
)

type QuizQuestionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, questions []*types.QuizQuestion) ([]*types.QuizQuestion, error)
  GetByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) ([]*types.QuizQuestion, error)
  ReplaceForLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, questions []*types.QuizQuestion) error
}

type quizQuestionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewQuizQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuizQuestionRepo {
  return &quizQuestionRepo{db: db, log: baseLog.With("repo", "QuizQuestionRepo")}
}

func (r *quizQuestionRepo) Create(ctx context.Context, tx *gorm.DB, questions []*types.QuizQuestion) ([]*types.QuizQuestion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(questions) == 0 {
    return []*types.QuizQuestion{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&questions).Error; err != nil {
    return nil, err
  }
  return questions, nil
}

func (r *quizQuestionRepo) GetByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) ([]*types.QuizQuestion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.QuizQuestion
  if len(lessonIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("lesson_id IN ?", lessonIDs).
    Order("lesson_id, \"index\" ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *quizQuestionRepo) ReplaceForLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, questions []*types.QuizQuestion) error {
  run := func(transaction *gorm.DB) error {
    if err := transaction.WithContext(ctx).
      Unscoped().
      Where("lesson_id = ?", lessonID).
      Delete(&types.QuizQuestion{}).Error; err != nil {
      return err
    }
    if len(questions) == 0 {
      return nil
    }
    return transaction.WithContext(ctx).Create(&questions).Error
  }

  if tx != nil {
    return run(tx)
  }
  return r.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
    return run(transaction)
  })
}
