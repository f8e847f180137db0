package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes used across the application. Handlers translate these to
// HTTP statuses; engine callers branch on them via errors.As.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeDuplicateEdge = "DUPLICATE_EDGE"
	CodeSelfReference = "SELF_REFERENCE"
	CodeInvalidState  = "INVALID_STATE"
	CodeNotFound      = "NOT_FOUND"
	CodeUpload        = "UPLOAD_ERROR"
	CodePartialCreate = "PARTIAL_CREATE"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeInternal      = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error.
type AppError struct {
	Code    string
	Message string
	// GroupID is set for PARTIAL_CREATE errors so callers can repair or
	// delete the orphaned group.
	GroupID uint
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports a referenced entity that does not exist.
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// NewValidationError reports malformed input the caller can correct.
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewSelfReferenceError reports a friend request from a user to themselves.
func NewSelfReferenceError() *AppError {
	return &AppError{
		Code:    CodeSelfReference,
		Message: "Cannot send a friend request to yourself",
	}
}

// NewDuplicateEdgeError reports that an edge already exists between a pair,
// in either direction. The existing status distinguishes "already pending"
// from "already friends" for the caller.
func NewDuplicateEdgeError(status EdgeStatus) *AppError {
	msg := "A friend request between these users already exists"
	if status == EdgeStatusAccepted {
		msg = "You are already friends with this user"
	}
	return &AppError{
		Code:    CodeDuplicateEdge,
		Message: msg,
	}
}

// NewInvalidStateError reports a stale-state race: the entity is no longer
// in the state the transition expected. Callers treat it as a benign no-op.
func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidState,
		Message: message,
	}
}

// NewUploadError reports a failed object upload. No message referencing the
// attachment may be created after it.
func NewUploadError(err error) *AppError {
	return &AppError{
		Code:    CodeUpload,
		Message: "Attachment upload failed",
		Err:     err,
	}
}

// NewPartialCreateError reports a group that was created without its owner
// membership. The group id is carried so the caller can repair or delete it.
func NewPartialCreateError(groupID uint, err error) *AppError {
	return &AppError{
		Code:    CodePartialCreate,
		Message: fmt.Sprintf("Group %d was created but the owner membership could not be added", groupID),
		GroupID: groupID,
		Err:     err,
	}
}

// NewUnauthorizedError reports an action the caller may not perform.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewInternalError wraps an unexpected store or I/O failure.
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// statusForCode maps application error codes to HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeDuplicateEdge:
		return fiber.StatusConflict
	case CodeSelfReference:
		return fiber.StatusBadRequest
	case CodeInvalidState:
		return fiber.StatusConflict
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeUpload:
		return fiber.StatusBadGateway
	case CodePartialCreate:
		return fiber.StatusInternalServerError
	case CodeUnauthorized:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError writes a standardized error response.
func RespondWithError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		response := ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
		return c.Status(statusForCode(appErr.Code)).JSON(response)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
}
