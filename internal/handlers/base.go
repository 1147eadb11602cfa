package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/placement-prep/learning-service/internal/services"
	"github.com/placement-prep/learning-service/internal/utils"
	"github.com/placement-prep/learning-service/internal/validator"
)

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the shared logging and parsing helpers.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.LoggerFromContext(c.Request.Context(), h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err)
	utils.LoggerFromContext(c.Request.Context(), h.logger).Error(msg, args...)
}

// parseIDParam parses a numeric path parameter. On failure it writes the 400
// response itself and returns 0.
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: err.Error(),
		})
		return 0
	}
	return uint(id)
}

// ParseStringIDParam parses a non-empty string path parameter. On failure it
// writes the 400 response itself and returns "".
func ParseStringIDParam(c *gin.Context, param string) string {
	value := strings.TrimSpace(c.Param(param))
	if value == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing " + param,
		})
		return ""
	}
	return value
}

// studentID resolves the caller's student id from the identity middleware.
// Writes the 401 response itself when absent.
func (h *BaseHandler) studentID(c *gin.Context) string {
	id, exists := c.Get("student_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Student identity required",
		})
		return ""
	}
	studentID, ok := id.(string)
	if !ok || studentID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Student identity required",
		})
		return ""
	}
	return studentID
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// handleServiceError translates service errors into HTTP responses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: fieldErrors,
		})
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: map[string]interface{}{
				"field":   validationError.Field,
				"message": validationError.Message,
				"value":   validationError.Value,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrAssessmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Assessment not found"})
	case errors.Is(err, services.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Attempt not found"})
	case errors.Is(err, services.ErrAnalysisNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "No analysis found for student and company"})
	case errors.Is(err, services.ErrExamFormatNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Exam format not found"})
	case errors.Is(err, services.ErrInvalidAssessmentType):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: "Assessment type not eligible for this operation"})
	case errors.Is(err, services.ErrNoWeakAreas):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: "No weak areas to target"})
	case errors.Is(err, services.ErrNoQuestionsAvailable):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: "No questions available"})
	case errors.Is(err, services.ErrAttemptAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt already submitted"})
	case errors.Is(err, services.ErrAttemptNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt is not active"})
	case errors.Is(err, services.ErrAlreadyQualified):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Student already qualified for this company"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
