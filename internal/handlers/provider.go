package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/yungbote/lessonforge-backend/internal/services"
)

type ProviderHandler struct {
  gateway services.ProviderGateway
}

func NewProviderHandler(gateway services.ProviderGateway) *ProviderHandler {
  return &ProviderHandler{gateway: gateway}
}

// GET /models — best-effort catalog, never an error response.
func (h *ProviderHandler) ListModels(c *gin.Context) {
  models := h.gateway.ListModels(c.Request.Context())
  RespondOK(c, gin.H{"models": models})
}
