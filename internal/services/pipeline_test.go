package services

import (
  "context"
  "errors"
  "fmt"
  "testing"

  "github.com/google/uuid"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"

  "github.com/yungbote/lessonforge-backend/internal/db"
  "github.com/yungbote/lessonforge-backend/internal/logger"
  "github.com/yungbote/lessonforge-backend/internal/repos"
  "github.com/yungbote/lessonforge-backend/internal/types"
)

// stubGateway serves canned content keyed by system prompt so each stage gets
// a deterministic provider response.
type stubGateway struct {
  responses map[string]string
}

func (g *stubGateway) Generate(ctx context.Context, prompt, modelID, fallbackCredential string) (*types.ProviderResult, error) {
  return g.GenerateWithSystemPrompt(ctx, "", prompt, modelID, fallbackCredential)
}

func (g *stubGateway) GenerateWithSystemPrompt(ctx context.Context, systemPrompt, userPrompt, modelID, fallbackCredential string) (*types.ProviderResult, error) {
  content, ok := g.responses[systemPrompt]
  if !ok {
    return nil, ErrNoProviderAvailable
  }
  return &types.ProviderResult{
    Content:    content,
    ProviderID: "stub",
    ModelID:    stripModelPrefix(modelID),
  }, nil
}

func (g *stubGateway) ListModels(ctx context.Context) []types.ModelInfo {
  return []types.ModelInfo{}
}

const stubOutlineResponse = "```json\n{\"sections\": [" +
  `{"title": "Giới thiệu"}, {"title": "Vòng lặp for"}, {"title": "Tổng kết"}` +
  "]}\n```"

const stubSlidesResponse = "```json\n{\"slides\": [" +
  `{"slideIndex": 0, "title": "Giới thiệu", "speakerNote": "note 0", "content": ["hello"]},` +
  `{"slideIndex": 1, "title": "Vòng lặp for", "speakerNote": "note 1", "content": ["for i := range"]},` +
  `{"slideIndex": 2, "title": "Tổng kết", "speakerNote": "note 2", "content": ["bye"]}` +
  "]}\n```"

const stubQuestionsResponse = "```json\n{\"questions\": [" +
  `{"question": "Vòng lặp for dùng để làm gì?", "options": ["a", "b", "c", "d"], "correctIndex": 0, "explanation": "exp"}` +
  "]}\n```"

type pipelineFixture struct {
  pipeline  PipelineService
  lessons   LessonService
  slideRepo repos.SlideRecordRepo
  quizRepo  repos.QuizQuestionRepo
  runRepo   repos.GenerationRunRepo
  userID    uuid.UUID
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
  t.Helper()

  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("logger: %v", err)
  }

  dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
  gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
  if err != nil {
    t.Fatalf("open sqlite: %v", err)
  }
  if err := db.AutoMigrate(gdb); err != nil {
    t.Fatalf("migrate: %v", err)
  }

  userRepo := repos.NewUserRepo(gdb, log)
  lessonRepo := repos.NewLessonRepo(gdb, log)
  slideRepo := repos.NewSlideRecordRepo(gdb, log)
  quizRepo := repos.NewQuizQuestionRepo(gdb, log)
  runRepo := repos.NewGenerationRunRepo(gdb, log)

  user := &types.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Password: "x"}
  if _, err := userRepo.Create(context.Background(), nil, []*types.User{user}); err != nil {
    t.Fatalf("create user: %v", err)
  }

  gateway := &stubGateway{responses: map[string]string{
    outlineSystemPrompt:   stubOutlineResponse,
    slidesSystemPrompt:    stubSlidesResponse,
    questionsSystemPrompt: stubQuestionsResponse,
  }}

  return &pipelineFixture{
    pipeline:  NewPipelineService(log, gateway, NewFidelityValidator(0), lessonRepo, slideRepo, quizRepo, runRepo),
    lessons:   NewLessonService(log, lessonRepo, slideRepo),
    slideRepo: slideRepo,
    quizRepo:  quizRepo,
    runRepo:   runRepo,
    userID:    user.ID,
  }
}

func (fx *pipelineFixture) newLesson(t *testing.T, rawOutline string) *types.Lesson {
  t.Helper()
  lesson, err := fx.lessons.Create(context.Background(), fx.userID, "Bài học Go", rawOutline)
  if err != nil {
    t.Fatalf("create lesson: %v", err)
  }
  return lesson
}

func TestRunStageUnknown(t *testing.T) {
  fx := newPipelineFixture(t)
  lesson := fx.newLesson(t, "1. Giới thiệu")

  _, err := fx.pipeline.RunStage(context.Background(), fx.userID, lesson.ID, "publish", "gpt-4o", "")
  if !errors.Is(err, ErrUnknownStage) {
    t.Fatalf("err = %v, want ErrUnknownStage", err)
  }
}

func TestRunStageOwnership(t *testing.T) {
  fx := newPipelineFixture(t)
  lesson := fx.newLesson(t, "1. Giới thiệu")

  _, err := fx.pipeline.RunStage(context.Background(), uuid.New(), lesson.ID, StageOutline, "gpt-4o", "")
  if !errors.Is(err, ErrLessonNotFound) {
    t.Fatalf("err = %v, want ErrLessonNotFound", err)
  }
}

func TestStagePreconditions(t *testing.T) {
  fx := newPipelineFixture(t)

  t.Run("outline needs raw outline", func(t *testing.T) {
    lesson := fx.newLesson(t, "")
    _, err := fx.pipeline.RunStage(context.Background(), fx.userID, lesson.ID, StageOutline, "gpt-4o", "")
    if !errors.Is(err, ErrStageNotReady) {
      t.Fatalf("err = %v, want ErrStageNotReady", err)
    }
  })

  t.Run("slides needs detailed outline", func(t *testing.T) {
    lesson := fx.newLesson(t, "1. Giới thiệu")
    _, err := fx.pipeline.RunStage(context.Background(), fx.userID, lesson.ID, StageSlides, "gpt-4o", "")
    if !errors.Is(err, ErrStageNotReady) {
      t.Fatalf("err = %v, want ErrStageNotReady", err)
    }
  })

  t.Run("audio needs slide records", func(t *testing.T) {
    lesson := fx.newLesson(t, "1. Giới thiệu")
    _, err := fx.pipeline.RunStage(context.Background(), fx.userID, lesson.ID, StageAudio, "gpt-4o", "")
    if !errors.Is(err, ErrStageNotReady) {
      t.Fatalf("err = %v, want ErrStageNotReady", err)
    }
  })
}

func TestFullPipelineWithNotePreservation(t *testing.T) {
  fx := newPipelineFixture(t)
  ctx := context.Background()
  lesson := fx.newLesson(t, "1. Giới thiệu\n2. Vòng lặp for\n3. Tổng kết")

  // outline
  outlineRes, err := fx.pipeline.RunStage(ctx, fx.userID, lesson.ID, StageOutline, "shared:gpt-4o", "")
  if err != nil {
    t.Fatalf("outline: %v", err)
  }
  if outlineRes.ExtractionEmpty {
    t.Fatalf("outline extraction should not be empty")
  }
  if outlineRes.Coverage == nil || outlineRes.Coverage.CoveragePercent != 100 {
    t.Fatalf("outline coverage = %+v", outlineRes.Coverage)
  }

  // slides
  slidesRes, err := fx.pipeline.RunStage(ctx, fx.userID, lesson.ID, StageSlides, "shared:gpt-4o", "")
  if err != nil {
    t.Fatalf("slides: %v", err)
  }
  if len(slidesRes.Slides) != 3 {
    t.Fatalf("got %d slides", len(slidesRes.Slides))
  }
  records, err := fx.slideRepo.GetByLessonID(ctx, nil, lesson.ID)
  if err != nil || len(records) != 3 {
    t.Fatalf("slide records = %d, err = %v", len(records), err)
  }

  // user edits one speaker note between stage runs
  patch, err := fx.lessons.PatchSpeakerNote(ctx, fx.userID, lesson.ID, 1, "ghi chú đã sửa")
  if err != nil {
    t.Fatalf("patch note: %v", err)
  }
  if !patch.DocumentPatched || !patch.RecordUpdated {
    t.Fatalf("patch did not land on both targets: %+v", patch)
  }

  // questions must not clobber the edited note
  questionsRes, err := fx.pipeline.RunStage(ctx, fx.userID, lesson.ID, StageQuestions, "shared:gpt-4o", "")
  if err != nil {
    t.Fatalf("questions: %v", err)
  }
  if len(questionsRes.Questions) != 1 {
    t.Fatalf("got %d questions", len(questionsRes.Questions))
  }
  quiz, err := fx.quizRepo.GetByLessonIDs(ctx, nil, []uuid.UUID{lesson.ID})
  if err != nil || len(quiz) != 1 {
    t.Fatalf("quiz rows = %d, err = %v", len(quiz), err)
  }
  records, err = fx.slideRepo.GetByLessonID(ctx, nil, lesson.ID)
  if err != nil {
    t.Fatalf("reload records: %v", err)
  }
  if records[1].SpeakerNote != "ghi chú đã sửa" {
    t.Fatalf("questions run clobbered the edited note: %q", records[1].SpeakerNote)
  }

  // audio narrates the edited note
  audioRes, err := fx.pipeline.RunStage(ctx, fx.userID, lesson.ID, StageAudio, "", "")
  if err != nil {
    t.Fatalf("audio: %v", err)
  }
  if len(audioRes.AudioPlan) != 3 {
    t.Fatalf("audio plan = %d cues", len(audioRes.AudioPlan))
  }
  if audioRes.AudioPlan[1].Text != "ghi chú đã sửa" {
    t.Fatalf("cue 1 text = %q", audioRes.AudioPlan[1].Text)
  }

  // export derives slide types positionally
  exportRes, err := fx.pipeline.RunStage(ctx, fx.userID, lesson.ID, StageExport, "", "")
  if err != nil {
    t.Fatalf("export: %v", err)
  }
  deck := exportRes.Deck
  if deck == nil || len(deck.Slides) != 3 {
    t.Fatalf("deck = %+v", deck)
  }
  wantTypes := []string{"title", "agenda", "content"}
  for i, w := range wantTypes {
    if deck.Slides[i].SlideType != w {
      t.Fatalf("slide %d type = %q, want %q", i, deck.Slides[i].SlideType, w)
    }
  }
  if deck.Slides[1].SpeakerNote != "ghi chú đã sửa" {
    t.Fatalf("export lost the edited note: %q", deck.Slides[1].SpeakerNote)
  }

  // run bookkeeping
  run, err := fx.runRepo.GetLatestForLesson(ctx, nil, lesson.ID)
  if err != nil || run == nil {
    t.Fatalf("latest run: %v", err)
  }
  if run.Status != "succeeded" || run.Stage != StageExport {
    t.Fatalf("latest run = %+v", run)
  }
}

func TestSlidesRerunReplacesRecords(t *testing.T) {
  fx := newPipelineFixture(t)
  ctx := context.Background()
  lesson := fx.newLesson(t, "1. Giới thiệu\n2. Vòng lặp for\n3. Tổng kết")

  if _, err := fx.pipeline.RunStage(ctx, fx.userID, lesson.ID, StageOutline, "gpt-4o", ""); err != nil {
    t.Fatalf("outline: %v", err)
  }
  if _, err := fx.pipeline.RunStage(ctx, fx.userID, lesson.ID, StageSlides, "gpt-4o", ""); err != nil {
    t.Fatalf("slides: %v", err)
  }
  if _, err := fx.lessons.PatchSpeakerNote(ctx, fx.userID, lesson.ID, 0, "edited"); err != nil {
    t.Fatalf("patch: %v", err)
  }

  // a fresh slides run replaces the whole set, edits included
  if _, err := fx.pipeline.RunStage(ctx, fx.userID, lesson.ID, StageSlides, "gpt-4o", ""); err != nil {
    t.Fatalf("slides rerun: %v", err)
  }
  records, err := fx.slideRepo.GetByLessonID(ctx, nil, lesson.ID)
  if err != nil || len(records) != 3 {
    t.Fatalf("records = %d, err = %v", len(records), err)
  }
  if records[0].SpeakerNote != "note 0" {
    t.Fatalf("rerun should restore generated note, got %q", records[0].SpeakerNote)
  }
}
