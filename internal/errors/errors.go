// Package errors provides structured error handling for lansweep operations.
// It defines error codes, error types, and utilities for creating and
// inspecting errors with target and context information.
package errors

import (
	"fmt"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeCanceled      ErrorCode = "CANCELED"
	CodePermission    ErrorCode = "PERMISSION"

	// Detection and scanning errors.
	CodeDetectionFailed ErrorCode = "DETECTION_FAILED"
	CodeNetworkTooLarge ErrorCode = "NETWORK_TOO_LARGE"
	CodeTargetInvalid   ErrorCode = "TARGET_INVALID"
	CodeProbeTimeout    ErrorCode = "PROBE_TIMEOUT"
	CodeProbeFailed     ErrorCode = "PROBE_FAILED"
	CodePoolExhausted   ErrorCode = "POOL_EXHAUSTED"
	CodeScanFailed      ErrorCode = "SCAN_FAILED"

	// Export errors.
	CodeExportIO     ErrorCode = "EXPORT_IO"
	CodeExportFormat ErrorCode = "EXPORT_FORMAT"
)

// ScanError represents an error that occurred during scanning operations.
type ScanError struct {
	Code    ErrorCode
	Message string
	Target  string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("[%s] %s (target: %s)", e.Code, e.Message, e.Target)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *ScanError) WithContext(key string, value interface{}) *ScanError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewScanError creates a new scan error with the specified code and message.
func NewScanError(code ErrorCode, message string) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// NewScanErrorWithTarget creates a scan error for a specific target.
func NewScanErrorWithTarget(code ErrorCode, message, target string) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Target:  target,
		Context: make(map[string]interface{}),
	}
}

// WrapScanError wraps an existing error as a scan error.
func WrapScanError(code ErrorCode, message string, err error) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// DetectionError represents network auto-detection errors.
type DetectionError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *DetectionError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DetectionError) Unwrap() error {
	return e.Cause
}

// NewDetectionError creates a new detection error.
func NewDetectionError(message string) *DetectionError {
	return &DetectionError{
		Code:    CodeDetectionFailed,
		Message: message,
	}
}

// WrapDetectionError wraps an existing error as a detection error.
func WrapDetectionError(message string, err error) *DetectionError {
	return &DetectionError{
		Code:    CodeDetectionFailed,
		Message: message,
		Cause:   err,
	}
}

// ExportError represents result export errors.
type ExportError struct {
	Code    ErrorCode
	Message string
	Path    string
	Cause   error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s (path: %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new export error.
func NewExportError(code ErrorCode, message string) *ExportError {
	return &ExportError{
		Code:    code,
		Message: message,
	}
}

// WrapExportError wraps an existing error as an export error for a path.
func WrapExportError(code ErrorCode, message, path string, err error) *ExportError {
	return &ExportError{
		Code:    code,
		Message: message,
		Path:    path,
		Cause:   err,
	}
}

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Field   string
	Value   interface{}
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new configuration error.
func NewConfigError(code ErrorCode, message string) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
	}
}

// NewConfigFieldError creates a configuration error for a specific field.
func NewConfigFieldError(code ErrorCode, message, field string, value interface{}) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Field:   field,
		Value:   value,
	}
}

// WrapConfigError wraps an existing error as a configuration error.
func WrapConfigError(code ErrorCode, message string, err error) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Utility functions for common error operations

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error if it has one.
func GetCode(err error) ErrorCode {
	switch e := err.(type) {
	case *ScanError:
		return e.Code
	case *DetectionError:
		return e.Code
	case *ExportError:
		return e.Code
	case *ConfigError:
		return e.Code
	}
	return CodeUnknown
}

// IsRetryable determines if an error indicates a retryable condition.
func IsRetryable(err error) bool {
	switch GetCode(err) {
	case CodeProbeTimeout, CodePoolExhausted:
		return true
	default:
		return false
	}
}

// IsFatal determines if an error indicates a condition that should stop execution.
// Nothing in a scan is process-fatal; only broken configuration qualifies.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case CodePermission, CodeConfiguration:
		return true
	default:
		return false
	}
}

// Common error creation functions

// ErrInvalidTarget creates an error for invalid scan targets.
func ErrInvalidTarget(target string) *ScanError {
	return NewScanErrorWithTarget(CodeTargetInvalid, "Invalid target specification", target)
}

// ErrProbeTimeout creates an error for per-host probe timeouts.
func ErrProbeTimeout(target string) *ScanError {
	return NewScanErrorWithTarget(CodeProbeTimeout, "Probe timed out", target)
}

// ErrPoolExhausted creates an error for a saturated worker pool.
func ErrPoolExhausted() *ScanError {
	return NewScanError(CodePoolExhausted, "Worker pool queue is full")
}

// ErrNoInterface creates an error for failed network auto-detection.
func ErrNoInterface() *DetectionError {
	return NewDetectionError("No active network interface with an IPv4 address found")
}

// ErrEmptyResult creates an error for exporting a result without devices.
func ErrEmptyResult() *ExportError {
	return NewExportError(CodeValidation, "Scan result contains no devices")
}

// ErrConfigInvalid creates an error for invalid configuration.
func ErrConfigInvalid(field string, value interface{}) *ConfigError {
	return NewConfigFieldError(CodeValidation, "Invalid configuration value", field, value)
}
