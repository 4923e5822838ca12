// Package errors provides standardized error handling for the slide-to-ticket pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	ErrCodeDeckReadFailed ErrorCode = "DECK_READ_FAILED"

	ErrCodePDFConversionFailed   ErrorCode = "PDF_CONVERSION_FAILED"
	ErrCodePDFConversionTimeout  ErrorCode = "PDF_CONVERSION_TIMEOUT"
	ErrCodeRendererNotFound      ErrorCode = "RENDERER_NOT_FOUND"
	ErrCodeSlideExtractionFailed ErrorCode = "SLIDE_EXTRACTION_FAILED"

	ErrCodeAnalysisFailed  ErrorCode = "ANALYSIS_FAILED"
	ErrCodeAnalysisTimeout ErrorCode = "ANALYSIS_TIMEOUT"

	ErrCodeIssueCreateFailed ErrorCode = "ISSUE_CREATE_FAILED"
	ErrCodeAttachmentFailed  ErrorCode = "ATTACHMENT_FAILED"
	ErrCodeMissingProjectKey ErrorCode = "MISSING_PROJECT_KEY"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewConfigInvalidError creates a fatal configuration error.
func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid run configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeckReadError creates a fatal deck error (unreadable or corrupt file).
func NewDeckReadError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDeckReadFailed,
		Message:   "Failed to read presentation",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPDFConversionFailedError creates a fatal render error.
func NewPDFConversionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePDFConversionFailed,
		Message:   "PDF conversion failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPDFConversionTimeoutError creates a fatal render timeout error.
func NewPDFConversionTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodePDFConversionTimeout,
		Message:   "PDF conversion timed out",
		Details:   "conversion exceeded timeout threshold",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRendererNotFoundError creates a fatal missing-executable error.
func NewRendererNotFoundError(command string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRendererNotFound,
		Message:   "Renderer executable not found",
		Details:   fmt.Sprintf("command: %s", command),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSlideExtractionError creates a recoverable per-slide extraction error.
func NewSlideExtractionError(slideNumber int, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSlideExtractionFailed,
		Message:   "Slide image extraction failed",
		Details:   fmt.Sprintf("slide: %d, error: %s", slideNumber, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalysisFailedError creates a recoverable per-slide inference error.
func NewAnalysisFailedError(slideNumber int, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisFailed,
		Message:   "Vision inference call failed",
		Details:   fmt.Sprintf("slide: %d, error: %s", slideNumber, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalysisTimeoutError creates a recoverable per-slide timeout error.
func NewAnalysisTimeoutError(slideNumber int) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisTimeout,
		Message:   "Vision inference call timed out",
		Details:   fmt.Sprintf("slide: %d", slideNumber),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIssueCreateFailedError creates a recoverable per-item ticket error.
func NewIssueCreateFailedError(slideNumber int, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIssueCreateFailed,
		Message:   "Ticket creation failed",
		Details:   fmt.Sprintf("slide: %d, error: %s", slideNumber, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAttachmentFailedError creates a recoverable attachment error.
func NewAttachmentFailedError(issueKey string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAttachmentFailed,
		Message:   "Attachment upload failed",
		Details:   fmt.Sprintf("issue: %s, error: %s", issueKey, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingProjectKeyError creates a fatal contract-violation error: an
// analysis reached ticket filing without a routing project key. Silently
// defaulting here would misfile the ticket, so this always aborts.
func NewMissingProjectKeyError(slideNumber int) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingProjectKey,
		Message:   "Analysis has no project key",
		Details:   fmt.Sprintf("slide: %d", slideNumber),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsFatal reports whether an error code aborts the whole run rather than a
// single item.
func IsFatal(code ErrorCode) bool {
	switch code {
	case ErrCodeConfigInvalid,
		ErrCodeDeckReadFailed,
		ErrCodePDFConversionFailed,
		ErrCodePDFConversionTimeout,
		ErrCodeRendererNotFound,
		ErrCodeMissingProjectKey:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONFIG"):
		return "CONFIG"
	case strings.Contains(codeStr, "DECK"):
		return "DECK"
	case strings.Contains(codeStr, "PDF") || strings.Contains(codeStr, "RENDERER") || strings.Contains(codeStr, "EXTRACTION"):
		return "RENDER"
	case strings.Contains(codeStr, "ANALYSIS"):
		return "AI"
	case strings.Contains(codeStr, "ISSUE") || strings.Contains(codeStr, "ATTACHMENT") || strings.Contains(codeStr, "PROJECT"):
		return "TICKET"
	default:
		return "OTHER"
	}
}
