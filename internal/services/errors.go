package services

import (
	"errors"
	"fmt"

	apperrors "github.com/quizdeck/assessment-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Quiz specific errors
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuizAccessDenied = errors.New("access denied to quiz")
	ErrQuestionNotFound = errors.New("question not found in quiz")
	ErrLastQuestion     = errors.New("cannot delete the last question of a quiz")

	// Class / roster errors
	ErrClassNotFound     = errors.New("class not found")
	ErrClassAccessDenied = errors.New("access denied to class")
	ErrNoValidStudents   = errors.New("class has no linked students to assign")

	// Assignment / distribution errors
	ErrAssignmentNotFound     = errors.New("assignment not found")
	ErrAssignmentExists       = errors.New("quiz already assigned to this class")
	ErrAssignmentAccessDenied = errors.New("access denied to assignment")
	ErrAssignmentExpired      = errors.New("assignment deadline has passed")
	ErrInvalidQuizCode        = errors.New("quiz code does not match an active assignment")

	// Session errors
	ErrSessionAlreadyStarted = errors.New("session already started")
	ErrSessionAlreadyEnded   = errors.New("session already ended")
	ErrSessionNotStarted     = errors.New("session has not been started")
	ErrSessionNotActive      = errors.New("session is not active")
	ErrNotSynchronous        = errors.New("assignment is not a synchronous session")

	// Submission errors
	ErrDuplicateSubmission = errors.New("submission already recorded for this attempt")
	ErrAttemptLimitReached = errors.New("maximum attempts reached")
	ErrSubmissionNotFound  = errors.New("submission not found")

	// User/Permission errors
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidRole             = errors.New("invalid user role")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrClassNotFound) ||
		errors.Is(err, ErrAssignmentNotFound) ||
		errors.Is(err, ErrSubmissionNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrQuizAccessDenied) ||
		errors.Is(err, ErrClassAccessDenied) ||
		errors.Is(err, ErrAssignmentAccessDenied) ||
		errors.Is(err, ErrInsufficientPermissions) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAssignmentExists) ||
		errors.Is(err, ErrSessionAlreadyStarted) ||
		errors.Is(err, ErrSessionAlreadyEnded) ||
		errors.Is(err, ErrDuplicateSubmission) ||
		errors.Is(err, ErrAttemptLimitReached)
}
