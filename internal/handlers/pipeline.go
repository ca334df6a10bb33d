package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/lessonforge-backend/internal/middleware"
  "github.com/yungbote/lessonforge-backend/internal/services"
)

type PipelineHandler struct {
  pipeline services.PipelineService
  lessons  services.LessonService
}

func NewPipelineHandler(pipeline services.PipelineService, lessons services.LessonService) *PipelineHandler {
  return &PipelineHandler{pipeline: pipeline, lessons: lessons}
}

type runStageRequest struct {
  ModelID string `json:"model_id"`
  // APIKey is the caller's own provider credential, used only when the shared
  // backend is unavailable. Never persisted.
  APIKey string `json:"api_key"`
}

// POST /lessons/:id/stages/:stage
func (h *PipelineHandler) RunStage(c *gin.Context) {
  userID, ok := middleware.UserID(c)
  if !ok {
    RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
    return
  }
  lessonID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid lesson id"))
    return
  }
  stage := c.Param("stage")

  var req runStageRequest
  if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  result, err := h.pipeline.RunStage(c.Request.Context(), userID, lessonID, stage, req.ModelID, req.APIKey)
  if err != nil {
    switch {
    case errors.Is(err, services.ErrLessonNotFound):
      RespondError(c, http.StatusNotFound, "not_found", err)
    case errors.Is(err, services.ErrUnknownStage):
      RespondError(c, http.StatusBadRequest, "unknown_stage", err)
    case errors.Is(err, services.ErrStageNotReady):
      RespondError(c, http.StatusConflict, "stage_not_ready", err)
    case errors.Is(err, services.ErrNoProviderAvailable):
      RespondError(c, http.StatusBadGateway, "no_provider_available", err)
    default:
      RespondError(c, http.StatusInternalServerError, "stage_failed", err)
    }
    return
  }

  RespondOK(c, result)
}

// GET /lessons/:id/export
func (h *PipelineHandler) Export(c *gin.Context) {
  userID, ok := middleware.UserID(c)
  if !ok {
    RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
    return
  }
  lessonID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid lesson id"))
    return
  }

  lesson, records, err := h.lessons.Get(c.Request.Context(), userID, lessonID)
  if err != nil {
    if errors.Is(err, services.ErrLessonNotFound) {
      RespondError(c, http.StatusNotFound, "not_found", err)
      return
    }
    RespondError(c, http.StatusInternalServerError, "export_failed", err)
    return
  }

  deck := services.BuildDeckExport(lesson.Title, services.SlidesFromRecords(records))
  RespondOK(c, gin.H{
    "deck":    deck,
    "outline": services.BuildOutlineExport(lesson.Title, lesson.DetailedOutline),
  })
}
