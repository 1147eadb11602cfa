package models

import (
	"time"
)

type AttemptStartRequest struct {
	AssessmentID uint   `json:"assessment_id" validate:"required"`
	StudentID    string `json:"student_id" validate:"required"`
}

type SubmitAnswerRequest struct {
	QuestionID     string `json:"question_id" validate:"required"`
	SelectedAnswer string `json:"selected_answer" validate:"required"`
}

type SubmitAttemptRequest struct {
	TimeTaken int `json:"time_taken" validate:"min=0"` // seconds
}

type GenerateAssessmentRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	CompanyName string `json:"company_name" validate:"required"`
	Topic       string `json:"topic"` // optional, picked from weakest when empty
}

type StartPlacementExamRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	ExamFormatID uint   `json:"exam_format_id" validate:"required"`
}

// ===== PAGINATION & FILTERING =====

type ListAttemptsParams struct {
	Page         int           `json:"page" validate:"min=0"`
	Size         int           `json:"size" validate:"min=1,max=100"`
	AssessmentID *uint         `json:"assessment_id"`
	StudentID    *string       `json:"student_id"`
	Status       AttemptStatus `json:"status"`
	SortBy       string        `json:"sort_by"`
	SortDir      string        `json:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

type PaginatedResponse struct {
	Content          interface{} `json:"content"`
	TotalElements    int64       `json:"total_elements"`
	TotalPages       int         `json:"total_pages"`
	Size             int         `json:"size"`
	Page             int         `json:"page"`
	First            bool        `json:"first"`
	Last             bool        `json:"last"`
	NumberOfElements int         `json:"number_of_elements"`
	Empty            bool        `json:"empty"`
}

// ===== ERROR RESPONSES =====

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

type ErrorResponse struct {
	Error            string                    `json:"error"`
	Message          string                    `json:"message"`
	Code             string                    `json:"code"`
	Details          interface{}               `json:"details,omitempty"`
	Timestamp        time.Time                 `json:"timestamp"`
	Path             string                    `json:"path"`
	ValidationErrors []ValidationErrorResponse `json:"validation_errors,omitempty"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
