package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"

  "github.com/yungbote/lessonforge-backend/internal/logger"
  "github.com/yungbote/lessonforge-backend/internal/repos"
  "github.com/yungbote/lessonforge-backend/internal/types"
)

const (
  StageCreated   = "created"
  StageOutline   = "outline"
  StageSlides    = "slides"
  StageQuestions = "questions"
  StageAudio     = "audio"
  StageExport    = "export"
)

var (
  ErrUnknownStage  = errors.New("unknown stage")
  ErrStageNotReady = errors.New("stage precondition not met")
)

// StageResult is the response contract for one stage run. Degradations travel
// here as fields (extraction_empty, coverage warnings), never as errors: a run
// fails only when no provider produced content or persistence broke.
type StageResult struct {
  Stage           string                `json:"stage"`
  RunID           uuid.UUID             `json:"run_id"`
  ProviderID      string                `json:"provider_id,omitempty"`
  ModelID         string                `json:"model_id,omitempty"`
  ExtractionEmpty bool                  `json:"extraction_empty"`
  Coverage        *types.CoverageReport `json:"coverage,omitempty"`
  Slides          []types.Slide         `json:"slides,omitempty"`
  Questions       []types.QuizItem      `json:"questions,omitempty"`
  AudioPlan       []types.AudioCue      `json:"audio_plan,omitempty"`
  Deck            *types.DeckExport     `json:"deck,omitempty"`
}

// PipelineService drives a lesson through outline -> slides -> questions ->
// audio -> export. Each run is recorded as a GenerationRun row.
type PipelineService interface {
  RunStage(ctx context.Context, userID, lessonID uuid.UUID, stage, modelID, fallbackCredential string) (*StageResult, error)
}

type pipelineService struct {
  log        *logger.Logger
  gateway    ProviderGateway
  validator  *FidelityValidator
  lessonRepo repos.LessonRepo
  slideRepo  repos.SlideRecordRepo
  quizRepo   repos.QuizQuestionRepo
  runRepo    repos.GenerationRunRepo
}

func NewPipelineService(
  baseLog *logger.Logger,
  gateway ProviderGateway,
  validator *FidelityValidator,
  lessonRepo repos.LessonRepo,
  slideRepo repos.SlideRecordRepo,
  quizRepo repos.QuizQuestionRepo,
  runRepo repos.GenerationRunRepo,
) PipelineService {
  return &pipelineService{
    log:        baseLog.With("service", "PipelineService"),
    gateway:    gateway,
    validator:  validator,
    lessonRepo: lessonRepo,
    slideRepo:  slideRepo,
    quizRepo:   quizRepo,
    runRepo:    runRepo,
  }
}

func (s *pipelineService) RunStage(ctx context.Context, userID, lessonID uuid.UUID, stage, modelID, fallbackCredential string) (*StageResult, error) {
  lesson, err := s.loadOwnedLesson(ctx, userID, lessonID)
  if err != nil {
    return nil, err
  }

  run, err := s.startRun(ctx, userID, lessonID, stage, modelID)
  if err != nil {
    return nil, err
  }

  var result *StageResult
  switch stage {
  case StageOutline:
    result, err = s.runOutline(ctx, lesson, run, modelID, fallbackCredential)
  case StageSlides:
    result, err = s.runSlides(ctx, lesson, run, modelID, fallbackCredential)
  case StageQuestions:
    result, err = s.runQuestions(ctx, lesson, run, modelID, fallbackCredential)
  case StageAudio:
    result, err = s.runAudio(ctx, lesson, run)
  case StageExport:
    result, err = s.runExport(ctx, lesson, run)
  default:
    err = fmt.Errorf("%w: %q", ErrUnknownStage, stage)
  }

  if err != nil {
    s.finishRun(ctx, run.ID, "failed", err.Error(), nil)
    return nil, err
  }

  s.finishRun(ctx, run.ID, "succeeded", "", result)
  result.RunID = run.ID
  return result, nil
}

func (s *pipelineService) loadOwnedLesson(ctx context.Context, userID, lessonID uuid.UUID) (*types.Lesson, error) {
  lessons, err := s.lessonRepo.GetByIDs(ctx, nil, []uuid.UUID{lessonID})
  if err != nil {
    return nil, fmt.Errorf("load lesson: %w", err)
  }
  if len(lessons) == 0 || lessons[0].UserID != userID {
    return nil, ErrLessonNotFound
  }
  return lessons[0], nil
}

func (s *pipelineService) startRun(ctx context.Context, userID, lessonID uuid.UUID, stage, modelID string) (*types.GenerationRun, error) {
  run := &types.GenerationRun{
    ID:        uuid.New(),
    UserID:    userID,
    LessonID:  lessonID,
    Status:    "running",
    Stage:     stage,
    ModelID:   stripModelPrefix(modelID),
    StartedAt: time.Now(),
  }
  created, err := s.runRepo.Create(ctx, nil, []*types.GenerationRun{run})
  if err != nil {
    return nil, fmt.Errorf("create generation run: %w", err)
  }
  return created[0], nil
}

// finishRun is best-effort bookkeeping; a failure here must not mask the stage
// outcome.
func (s *pipelineService) finishRun(ctx context.Context, runID uuid.UUID, status, errMsg string, result *StageResult) {
  now := time.Now()
  fields := map[string]any{
    "status":      status,
    "finished_at": &now,
  }
  if errMsg != "" {
    fields["error"] = errMsg
  }
  if result != nil {
    fields["provider_id"] = result.ProviderID
    if result.Coverage != nil {
      if raw, err := json.Marshal(map[string]any{"coverage": result.Coverage}); err == nil {
        fields["metadata"] = datatypes.JSON(raw)
      }
    }
  }
  if err := s.runRepo.UpdateFields(ctx, nil, runID, fields); err != nil {
    s.log.Warn("Failed to finalize generation run", "run_id", runID, "error", err)
  }
}

func (s *pipelineService) runOutline(ctx context.Context, lesson *types.Lesson, run *types.GenerationRun, modelID, fallbackCredential string) (*StageResult, error) {
  if lesson.RawOutline == "" {
    return nil, fmt.Errorf("%w: outline stage needs a raw outline", ErrStageNotReady)
  }

  out, err := s.gateway.GenerateWithSystemPrompt(ctx, outlineSystemPrompt, buildOutlinePrompt(lesson.Title, lesson.RawOutline), modelID, fallbackCredential)
  if err != nil {
    return nil, err
  }

  outputSections := ExtractSections(out.Content)
  inputSections := ExtractSections(lesson.RawOutline)
  if len(inputSections) == 0 {
    inputSections = ExtractOutlineSections(lesson.RawOutline)
  }
  coverage := s.validator.Compare(inputSections, outputSections)

  if err := s.lessonRepo.UpdateFields(ctx, nil, lesson.ID, map[string]any{
    "detailed_outline": out.Content,
    "stage":            StageOutline,
    "model_id":         out.ModelID,
  }); err != nil {
    return nil, fmt.Errorf("persist detailed outline: %w", err)
  }

  return &StageResult{
    Stage:           StageOutline,
    ProviderID:      out.ProviderID,
    ModelID:         out.ModelID,
    ExtractionEmpty: len(outputSections) == 0,
    Coverage:        coverage,
  }, nil
}

func (s *pipelineService) runSlides(ctx context.Context, lesson *types.Lesson, run *types.GenerationRun, modelID, fallbackCredential string) (*StageResult, error) {
  if lesson.DetailedOutline == "" {
    return nil, fmt.Errorf("%w: slides stage needs a detailed outline", ErrStageNotReady)
  }

  out, err := s.gateway.GenerateWithSystemPrompt(ctx, slidesSystemPrompt, buildSlidesPrompt(lesson.Title, lesson.DetailedOutline), modelID, fallbackCredential)
  if err != nil {
    return nil, err
  }

  slides := ReindexSlides(ExtractSlides(out.Content))
  coverage := s.validator.Compare(ExtractSections(lesson.DetailedOutline), SlideTitles(slides))

  // Raw text and structured records move together: the script is persisted even
  // when extraction came up empty, so the operator can inspect what the model
  // actually produced.
  if err := s.lessonRepo.UpdateFields(ctx, nil, lesson.ID, map[string]any{
    "slide_script": out.Content,
    "stage":        StageSlides,
    "model_id":     out.ModelID,
  }); err != nil {
    return nil, fmt.Errorf("persist slide script: %w", err)
  }
  if err := s.slideRepo.ReplaceForLesson(ctx, nil, lesson.ID, slideRecordsFrom(lesson.ID, slides)); err != nil {
    return nil, fmt.Errorf("replace slide records: %w", err)
  }

  return &StageResult{
    Stage:           StageSlides,
    ProviderID:      out.ProviderID,
    ModelID:         out.ModelID,
    ExtractionEmpty: len(slides) == 0,
    Coverage:        coverage,
    Slides:          slides,
  }, nil
}

// runQuestions deliberately leaves slide records untouched so speaker-note
// edits made since the slides run survive.
func (s *pipelineService) runQuestions(ctx context.Context, lesson *types.Lesson, run *types.GenerationRun, modelID, fallbackCredential string) (*StageResult, error) {
  if lesson.SlideScript == "" {
    return nil, fmt.Errorf("%w: questions stage needs a slide script", ErrStageNotReady)
  }

  out, err := s.gateway.GenerateWithSystemPrompt(ctx, questionsSystemPrompt, buildQuestionsPrompt(lesson.Title, lesson.SlideScript), modelID, fallbackCredential)
  if err != nil {
    return nil, err
  }

  items := ExtractQuizItems(out.Content)

  records, err := s.slideRepo.GetByLessonID(ctx, nil, lesson.ID)
  if err != nil {
    return nil, fmt.Errorf("load slide records: %w", err)
  }
  coverage := s.validator.Compare(recordTitles(records), QuizPrompts(items))

  if err := s.quizRepo.ReplaceForLesson(ctx, nil, lesson.ID, quizRecordsFrom(lesson.ID, items)); err != nil {
    return nil, fmt.Errorf("replace quiz questions: %w", err)
  }
  if err := s.lessonRepo.UpdateFields(ctx, nil, lesson.ID, map[string]any{
    "stage":    StageQuestions,
    "model_id": out.ModelID,
  }); err != nil {
    return nil, fmt.Errorf("advance lesson stage: %w", err)
  }

  return &StageResult{
    Stage:           StageQuestions,
    ProviderID:      out.ProviderID,
    ModelID:         out.ModelID,
    ExtractionEmpty: len(items) == 0,
    Coverage:        coverage,
    Questions:       items,
  }, nil
}

// runAudio is provider-free: the plan is derived from the persisted records so
// patched speaker notes flow into the narration text.
func (s *pipelineService) runAudio(ctx context.Context, lesson *types.Lesson, run *types.GenerationRun) (*StageResult, error) {
  records, err := s.slideRepo.GetByLessonID(ctx, nil, lesson.ID)
  if err != nil {
    return nil, fmt.Errorf("load slide records: %w", err)
  }
  if len(records) == 0 {
    return nil, fmt.Errorf("%w: audio stage needs slide records", ErrStageNotReady)
  }

  plan := BuildAudioPlan(SlidesFromRecords(records), "", 1.0)
  if err := s.lessonRepo.UpdateFields(ctx, nil, lesson.ID, map[string]any{
    "stage": StageAudio,
  }); err != nil {
    return nil, fmt.Errorf("advance lesson stage: %w", err)
  }

  return &StageResult{
    Stage:     StageAudio,
    AudioPlan: plan,
  }, nil
}

func (s *pipelineService) runExport(ctx context.Context, lesson *types.Lesson, run *types.GenerationRun) (*StageResult, error) {
  records, err := s.slideRepo.GetByLessonID(ctx, nil, lesson.ID)
  if err != nil {
    return nil, fmt.Errorf("load slide records: %w", err)
  }
  if len(records) == 0 {
    return nil, fmt.Errorf("%w: export stage needs slide records", ErrStageNotReady)
  }

  deck := BuildDeckExport(lesson.Title, SlidesFromRecords(records))
  if err := s.lessonRepo.UpdateFields(ctx, nil, lesson.ID, map[string]any{
    "stage": StageExport,
  }); err != nil {
    return nil, fmt.Errorf("advance lesson stage: %w", err)
  }

  return &StageResult{
    Stage: StageExport,
    Deck:  deck,
  }, nil
}

func slideRecordsFrom(lessonID uuid.UUID, slides []types.Slide) []*types.SlideRecord {
  out := make([]*types.SlideRecord, 0, len(slides))
  for _, s := range slides {
    body, _ := json.Marshal(s.BodyLines)
    out = append(out, &types.SlideRecord{
      ID:          uuid.New(),
      LessonID:    lessonID,
      Index:       s.Index,
      Title:       s.Title,
      SpeakerNote: s.SpeakerNote,
      BodyLines:   datatypes.JSON(body),
    })
  }
  return out
}

func quizRecordsFrom(lessonID uuid.UUID, items []types.QuizItem) []*types.QuizQuestion {
  out := make([]*types.QuizQuestion, 0, len(items))
  for _, q := range items {
    options, _ := json.Marshal(q.Options)
    out = append(out, &types.QuizQuestion{
      ID:           uuid.New(),
      LessonID:     lessonID,
      Index:        q.Index,
      Prompt:       q.Prompt,
      Options:      datatypes.JSON(options),
      CorrectIndex: q.CorrectIndex,
      Explanation:  q.Explanation,
    })
  }
  return out
}

func SlidesFromRecords(records []*types.SlideRecord) []types.Slide {
  out := make([]types.Slide, 0, len(records))
  for _, r := range records {
    var body []string
    if len(r.BodyLines) > 0 {
      _ = json.Unmarshal(r.BodyLines, &body)
    }
    out = append(out, types.Slide{
      Index:       r.Index,
      Title:       r.Title,
      SpeakerNote: r.SpeakerNote,
      BodyLines:   body,
    })
  }
  return out
}

func recordTitles(records []*types.SlideRecord) []types.SectionRecord {
  out := make([]types.SectionRecord, 0, len(records))
  for _, r := range records {
    if r.Title != "" {
      out = append(out, types.SectionRecord{Title: r.Title})
    }
  }
  return out
}
