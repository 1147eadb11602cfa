package services

import (
	"errors"
	"fmt"
)

// Precondition failures surfaced to the caller.
var (
	ErrAssessmentNotFound      = errors.New("assessment not found")
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAnalysisNotFound        = errors.New("no analysis found for student and company")
	ErrExamFormatNotFound      = errors.New("exam format not found")
	ErrInvalidAssessmentType   = errors.New("assessment type cannot be analyzed")
	ErrNoWeakAreas             = errors.New("no weak areas to target")
	ErrNoQuestionsAvailable    = errors.New("no questions available for assessment")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrAttemptNotActive        = errors.New("attempt is not in progress")
	ErrAlreadyQualified        = errors.New("student already qualified for company")
)

// ValidationError reports a business rule violation on one field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// PermissionError reports an ownership check failure.
type PermissionError struct {
	StudentID  string `json:"student_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s cannot %s %s %d: %s",
		e.StudentID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(studentID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		StudentID:  studentID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}
