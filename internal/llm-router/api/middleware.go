package api

import (
	"net/http"
	"strings"

	"llm-router/internal/llm-router/config"
	"llm-router/internal/llm-router/models"
	"llm-router/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	organizationHeader = "X-Organization-Id"
	organizationKey    = "organizationID"
)

// OrganizationMiddleware requires the tenant header on routed endpoints.
func OrganizationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		org := strings.TrimSpace(c.GetHeader(organizationHeader))
		if org == "" {
			ErrorResponse(
				c, http.StatusBadRequest, models.NewErrorResponse(
					codeInvalidRequest,
					"Missing "+organizationHeader+" header",
					nil,
				),
			)
			c.Abort()
			return
		}

		c.Set(organizationKey, org)
		c.Next()
	}
}

// OrganizationID returns the tenant set by OrganizationMiddleware.
func OrganizationID(c *gin.Context) string {
	return c.GetString(organizationKey)
}

func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Log before request
		logger.Debug(
			"Incoming request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
		)

		c.Next()

		// Log after request
		logger.Info(
			"Request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"organization_id", OrganizationID(c),
		)
	}
}

// ErrorMiddleware renders the last error a handler attached with c.Error.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, _ := errorStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error("Request failed", "path", c.Request.URL.Path, "error", err.Error())
		}
		ErrorResponse(c, status, errorBody(err))
	}
}

// CORSMiddleware applies the configured CORS policy.
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	methods := "GET, POST, OPTIONS"
	if len(cfg.AllowedMethods) > 0 {
		methods = strings.Join(cfg.AllowedMethods, ", ")
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", methods)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+organizationHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func originAllowed(origin string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}
