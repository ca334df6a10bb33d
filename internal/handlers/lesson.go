package handlers

import (
  "errors"
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/lessonforge-backend/internal/middleware"
  "github.com/yungbote/lessonforge-backend/internal/services"
)

type LessonHandler struct {
  svc services.LessonService
}

func NewLessonHandler(svc services.LessonService) *LessonHandler {
  return &LessonHandler{svc: svc}
}

type createLessonRequest struct {
  Title      string `json:"title" binding:"required"`
  RawOutline string `json:"raw_outline"`
}

// POST /lessons
func (h *LessonHandler) Create(c *gin.Context) {
  userID, ok := middleware.UserID(c)
  if !ok {
    RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
    return
  }

  var req createLessonRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  lesson, err := h.svc.Create(c.Request.Context(), userID, req.Title, req.RawOutline)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "create_failed", err)
    return
  }

  c.JSON(http.StatusCreated, gin.H{"lesson": lesson})
}

// GET /lessons
func (h *LessonHandler) List(c *gin.Context) {
  userID, ok := middleware.UserID(c)
  if !ok {
    RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
    return
  }

  lessons, err := h.svc.ListForUser(c.Request.Context(), userID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "list_failed", err)
    return
  }

  RespondOK(c, gin.H{"lessons": lessons})
}

// GET /lessons/:id
func (h *LessonHandler) Get(c *gin.Context) {
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

  lesson, records, err := h.svc.Get(c.Request.Context(), userID, lessonID)
  if err != nil {
    if errors.Is(err, services.ErrLessonNotFound) {
      RespondError(c, http.StatusNotFound, "not_found", err)
      return
    }
    RespondError(c, http.StatusInternalServerError, "get_failed", err)
    return
  }

  RespondOK(c, gin.H{"lesson": lesson, "slides": records})
}

// DELETE /lessons/:id
func (h *LessonHandler) Delete(c *gin.Context) {
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

  if err := h.svc.Delete(c.Request.Context(), userID, lessonID); err != nil {
    if errors.Is(err, services.ErrLessonNotFound) {
      RespondError(c, http.StatusNotFound, "not_found", err)
      return
    }
    RespondError(c, http.StatusInternalServerError, "delete_failed", err)
    return
  }

  RespondOK(c, gin.H{"deleted": true})
}

type patchNoteRequest struct {
  Note string `json:"note" binding:"required"`
}

// PATCH /lessons/:id/slides/:index/note
func (h *LessonHandler) PatchSpeakerNote(c *gin.Context) {
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
  slideIndex, err := strconv.Atoi(c.Param("index"))
  if err != nil || slideIndex < 0 {
    RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid slide index"))
    return
  }

  var req patchNoteRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  result, err := h.svc.PatchSpeakerNote(c.Request.Context(), userID, lessonID, slideIndex, req.Note)
  if err != nil {
    switch {
    case errors.Is(err, services.ErrLessonNotFound):
      RespondError(c, http.StatusNotFound, "not_found", err)
    case errors.Is(err, services.ErrEmptyNote):
      RespondError(c, http.StatusBadRequest, "bad_request", err)
    default:
      RespondError(c, http.StatusInternalServerError, "patch_failed", err)
    }
    return
  }

  RespondOK(c, result)
}
