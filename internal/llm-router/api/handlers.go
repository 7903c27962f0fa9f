package api

import (
	"net/http"

	"llm-router/internal/llm-router/models"
	"llm-router/internal/llm-router/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	router *service.RouterService
}

func NewHandler(router *service.RouterService) *Handler {
	return &Handler{
		router: router,
	}
}

func (h *Handler) ChatCompletions(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(
			c, http.StatusBadRequest, models.NewErrorResponse(
				codeInvalidRequest,
				"Invalid request body",
				err.Error(),
			),
		)
		return
	}

	resp, err := h.router.ChatCompletion(c.Request.Context(), req, OrganizationID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	SuccessResponse(c, http.StatusOK, resp)
}

func (h *Handler) Embeddings(c *gin.Context) {
	var req models.EmbeddingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(
			c, http.StatusBadRequest, models.NewErrorResponse(
				codeInvalidRequest,
				"Invalid request body",
				err.Error(),
			),
		)
		return
	}

	resp, err := h.router.GenerateEmbeddings(c.Request.Context(), req, OrganizationID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	SuccessResponse(c, http.StatusOK, resp)
}

func (h *Handler) GetCosts(c *gin.Context) {
	summary, err := h.router.GetCostSummary(c.Request.Context(), OrganizationID(c), c.Query("period"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	SuccessResponse(c, http.StatusOK, summary)
}

func (h *Handler) GetModels(c *gin.Context) {
	availableModels := h.router.GetAvailableModels()
	c.JSON(http.StatusOK, availableModels)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := h.router.GetHealth(c.Request.Context())
	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}
