package api

import (
	"context"
	"errors"
	"net/http"

	"llm-router/internal/llm-router/catalog"
	"llm-router/internal/llm-router/models"
	"llm-router/internal/llm-router/selector"
	"llm-router/internal/llm-router/service/llm"

	"github.com/gin-gonic/gin"
)

const (
	codeInvalidRequest  = "INVALID_REQUEST"
	codeNoFeasibleModel = "NO_FEASIBLE_MODEL"
	codeModelNotFound   = "MODEL_NOT_FOUND"
	codeRateLimited     = "RATE_LIMITED"
	codeProviderError   = "PROVIDER_ERROR"
	codeTimeout         = "TIMEOUT"
	codeInternal        = "INTERNAL_ERROR"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

func SuccessResponse(c *gin.Context, status int, data interface{}) {
	c.JSON(
		status, Response{
			Success: true,
			Data:    data,
		},
	)
}

func ErrorResponse(c *gin.Context, status int, err interface{}) {
	c.JSON(
		status, Response{
			Success: false,
			Error:   err,
		},
	)
}

// errorStatus maps a routing failure to an HTTP status and error code.
// "Try again" failures get 429/502/504; "never with these inputs" get 4xx.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, selector.ErrNoFeasibleModel):
		return http.StatusUnprocessableEntity, codeNoFeasibleModel
	case errors.Is(err, catalog.ErrModelNotFound):
		return http.StatusNotFound, codeModelNotFound
	case errors.Is(err, llm.ErrInvalidRequest):
		return http.StatusBadRequest, codeInvalidRequest
	case errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests, codeRateLimited
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeTimeout
	case errors.Is(err, llm.ErrProviderError):
		return http.StatusBadGateway, codeProviderError
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func errorBody(err error) models.ErrorResponse {
	_, code := errorStatus(err)
	return models.NewErrorResponse(code, err.Error(), map[string]bool{"retryable": llm.IsRetryable(err)})
}
