package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/lessonforge-backend/internal/services"
)

type AuthHandler struct {
  svc services.AuthService
}

func NewAuthHandler(svc services.AuthService) *AuthHandler {
  return &AuthHandler{svc: svc}
}

type registerRequest struct {
  Email     string `json:"email" binding:"required"`
  Password  string `json:"password" binding:"required"`
  FirstName string `json:"first_name"`
  LastName  string `json:"last_name"`
}

// POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
  var req registerRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  user, token, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
  if err != nil {
    if errors.Is(err, services.ErrEmailTaken) {
      RespondError(c, http.StatusConflict, "email_taken", err)
      return
    }
    RespondError(c, http.StatusBadRequest, "register_failed", err)
    return
  }

  RespondOK(c, gin.H{"user": user, "token": token})
}

type loginRequest struct {
  Email    string `json:"email" binding:"required"`
  Password string `json:"password" binding:"required"`
}

// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
  var req loginRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  user, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
    return
  }

  RespondOK(c, gin.H{"user": user, "token": token})
}
