package services

import (
  "context"
  "errors"
  "fmt"
  "strings"
  "sync"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/lessonforge-backend/internal/logger"
  "github.com/yungbote/lessonforge-backend/internal/repos"
  "github.com/yungbote/lessonforge-backend/internal/types"
)

var (
  ErrLessonNotFound = errors.New("lesson not found")
  ErrEmptyNote      = errors.New("speaker note must not be empty")
)

// NotePatchResult reports how far a speaker-note edit propagated. A miss on
// either target is a degradation surfaced to the caller, not an error: the
// edit is applied wherever a target was located.
type NotePatchResult struct {
  DocumentPatched bool `json:"document_patched"`
  RecordUpdated   bool `json:"record_updated"`
}

type LessonService interface {
  Create(ctx context.Context, userID uuid.UUID, title, rawOutline string) (*types.Lesson, error)
  Get(ctx context.Context, userID, lessonID uuid.UUID) (*types.Lesson, []*types.SlideRecord, error)
  ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Lesson, error)
  Delete(ctx context.Context, userID, lessonID uuid.UUID) error
  PatchSpeakerNote(ctx context.Context, userID, lessonID uuid.UUID, slideIndex int, note string) (*NotePatchResult, error)
}

type lessonService struct {
  log        *logger.Logger
  lessonRepo repos.LessonRepo
  slideRepo  repos.SlideRecordRepo

  // patchLocks serializes note patches per lesson; concurrent patches to one
  // document would otherwise splice against stale offsets.
  patchLocks sync.Map
}

func NewLessonService(baseLog *logger.Logger, lessonRepo repos.LessonRepo, slideRepo repos.SlideRecordRepo) LessonService {
  return &lessonService{
    log:        baseLog.With("service", "LessonService"),
    lessonRepo: lessonRepo,
    slideRepo:  slideRepo,
  }
}

func (s *lessonService) Create(ctx context.Context, userID uuid.UUID, title, rawOutline string) (*types.Lesson, error) {
  title = strings.TrimSpace(title)
  if title == "" {
    return nil, fmt.Errorf("lesson title must not be empty")
  }

  lesson := &types.Lesson{
    ID:         uuid.New(),
    UserID:     userID,
    Title:      title,
    RawOutline: rawOutline,
    Stage:      StageCreated,
  }
  created, err := s.lessonRepo.Create(ctx, nil, []*types.Lesson{lesson})
  if err != nil {
    return nil, fmt.Errorf("create lesson: %w", err)
  }
  return created[0], nil
}

func (s *lessonService) Get(ctx context.Context, userID, lessonID uuid.UUID) (*types.Lesson, []*types.SlideRecord, error) {
  lesson, err := s.loadOwned(ctx, userID, lessonID)
  if err != nil {
    return nil, nil, err
  }
  records, err := s.slideRepo.GetByLessonID(ctx, nil, lessonID)
  if err != nil {
    return nil, nil, fmt.Errorf("load slide records: %w", err)
  }
  return lesson, records, nil
}

func (s *lessonService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Lesson, error) {
  return s.lessonRepo.GetByUserID(ctx, nil, userID)
}

func (s *lessonService) Delete(ctx context.Context, userID, lessonID uuid.UUID) error {
  if _, err := s.loadOwned(ctx, userID, lessonID); err != nil {
    return err
  }
  if err := s.lessonRepo.SoftDeleteByIDs(ctx, nil, []uuid.UUID{lessonID}); err != nil {
    return err
  }
  // release the patch mutex; the map would otherwise grow for the process
  // lifetime, one entry per lesson ever patched
  s.patchLocks.Delete(lessonID)
  return nil
}

// PatchSpeakerNote applies one edit to both representations of a slide's note:
// the raw slide-script document (format-preserving splice) and the structured
// record row. Holding the per-lesson lock across read-modify-write keeps the
// document splice consistent.
func (s *lessonService) PatchSpeakerNote(ctx context.Context, userID, lessonID uuid.UUID, slideIndex int, note string) (*NotePatchResult, error) {
  if strings.TrimSpace(note) == "" {
    return nil, ErrEmptyNote
  }
  if slideIndex < 0 {
    return nil, fmt.Errorf("slide index must be non-negative")
  }

  mu := s.lockFor(lessonID)
  mu.Lock()
  defer mu.Unlock()

  lesson, err := s.loadOwned(ctx, userID, lessonID)
  if err != nil {
    return nil, err
  }

  result := &NotePatchResult{}

  if lesson.SlideScript != "" {
    patched, ok := PatchSpeakerNote(lesson.SlideScript, slideIndex, note)
    if ok {
      if err := s.lessonRepo.UpdateFields(ctx, nil, lessonID, map[string]any{
        "slide_script": patched,
        "updated_at":   time.Now(),
      }); err != nil {
        return nil, fmt.Errorf("persist patched script: %w", err)
      }
      result.DocumentPatched = true
    } else {
      s.log.Warn("Speaker note patch missed the document",
        "lesson_id", lessonID,
        "slide_index", slideIndex,
      )
    }
  }

  err = s.slideRepo.UpdateSpeakerNote(ctx, nil, lessonID, slideIndex, note)
  switch {
  case err == nil:
    result.RecordUpdated = true
  case errors.Is(err, gorm.ErrRecordNotFound):
    s.log.Warn("Speaker note patch found no slide record",
      "lesson_id", lessonID,
      "slide_index", slideIndex,
    )
  default:
    return nil, fmt.Errorf("update slide record: %w", err)
  }

  return result, nil
}

func (s *lessonService) lockFor(lessonID uuid.UUID) *sync.Mutex {
  v, _ := s.patchLocks.LoadOrStore(lessonID, &sync.Mutex{})
  return v.(*sync.Mutex)
}

func (s *lessonService) loadOwned(ctx context.Context, userID, lessonID uuid.UUID) (*types.Lesson, error) {
  lessons, err := s.lessonRepo.GetByIDs(ctx, nil, []uuid.UUID{lessonID})
  if err != nil {
    return nil, fmt.Errorf("load lesson: %w", err)
  }
  if len(lessons) == 0 || lessons[0].UserID != userID {
    return nil, ErrLessonNotFound
  }
  return lessons[0], nil
}
