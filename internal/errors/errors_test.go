package errors

import (
	"fmt"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		CodeUnknown,
		CodeValidation,
		CodeConfiguration,
		CodeCanceled,
		CodePermission,
		CodeDetectionFailed,
		CodeNetworkTooLarge,
		CodeTargetInvalid,
		CodeProbeTimeout,
		CodeProbeFailed,
		CodePoolExhausted,
		CodeScanFailed,
		CodeExportIO,
		CodeExportFormat,
	}

	for _, code := range codes {
		if string(code) == "" {
			t.Errorf("Error code %v should not be empty", code)
		}
	}
}

func TestScanError(t *testing.T) {
	t.Run("basic error creation", func(t *testing.T) {
		err := NewScanError(CodeScanFailed, "scan failed")
		if err.Code != CodeScanFailed {
			t.Errorf("Expected code %s, got %s", CodeScanFailed, err.Code)
		}
		if err.Message != "scan failed" {
			t.Errorf("Expected message 'scan failed', got '%s'", err.Message)
		}
		if err.Context == nil {
			t.Error("Context should be initialized")
		}
	})

	t.Run("error with target", func(t *testing.T) {
		err := NewScanErrorWithTarget(CodeProbeTimeout, "probe timed out", "192.168.1.1")
		if err.Target != "192.168.1.1" {
			t.Errorf("Expected target '192.168.1.1', got '%s'", err.Target)
		}
		expected := "[PROBE_TIMEOUT] probe timed out (target: 192.168.1.1)"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("error without target", func(t *testing.T) {
		err := NewScanError(CodeValidation, "validation failed")
		expected := "[VALIDATION] validation failed"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("wrapped error", func(t *testing.T) {
		cause := fmt.Errorf("socket error")
		err := WrapScanError(CodeProbeFailed, "probe issue", cause)
		if err.Unwrap() != cause {
			t.Error("Wrapped error should be unwrappable")
		}
		if err.Cause != cause {
			t.Error("Cause should be set correctly")
		}
	})

	t.Run("with context", func(t *testing.T) {
		err := NewScanError(CodeProbeTimeout, "timeout occurred")
		err.WithContext("duration", "2s").WithContext("workers", 50)

		if err.Context["duration"] != "2s" {
			t.Errorf("Expected duration '2s', got %v", err.Context["duration"])
		}
		if err.Context["workers"] != 50 {
			t.Errorf("Expected workers 50, got %v", err.Context["workers"])
		}
	})
}

func TestDetectionError(t *testing.T) {
	t.Run("basic detection error", func(t *testing.T) {
		err := NewDetectionError("no interface found")
		if err.Code != CodeDetectionFailed {
			t.Errorf("Expected code %s, got %s", CodeDetectionFailed, err.Code)
		}
		expected := "[DETECTION_FAILED] no interface found"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("wrapped detection error", func(t *testing.T) {
		cause := fmt.Errorf("netlink failure")
		err := WrapDetectionError("interface enumeration failed", cause)
		if err.Unwrap() != cause {
			t.Error("Should unwrap to original error")
		}
	})
}

func TestExportError(t *testing.T) {
	t.Run("error with path", func(t *testing.T) {
		cause := fmt.Errorf("permission denied")
		err := WrapExportError(CodeExportIO, "cannot write file", "/tmp/out.csv", cause)
		expected := "[EXPORT_IO] cannot write file (path: /tmp/out.csv)"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
		if err.Unwrap() != cause {
			t.Error("Should unwrap to original error")
		}
	})

	t.Run("empty result error", func(t *testing.T) {
		err := ErrEmptyResult()
		if err.Code != CodeValidation {
			t.Errorf("Expected code %s, got %s", CodeValidation, err.Code)
		}
	})
}

func TestConfigError(t *testing.T) {
	t.Run("field error", func(t *testing.T) {
		err := NewConfigFieldError(CodeValidation, "invalid value", "scan.workers", -1)
		if err.Field != "scan.workers" {
			t.Errorf("Expected field 'scan.workers', got '%s'", err.Field)
		}
		expected := "[VALIDATION] invalid value (field: scan.workers)"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})
}

func TestErrorUtilities(t *testing.T) {
	t.Run("IsCode and GetCode", func(t *testing.T) {
		cases := []struct {
			err  error
			code ErrorCode
		}{
			{NewScanError(CodeProbeTimeout, "timeout"), CodeProbeTimeout},
			{NewDetectionError("no interface"), CodeDetectionFailed},
			{NewExportError(CodeExportIO, "io"), CodeExportIO},
			{NewConfigError(CodeConfiguration, "bad config"), CodeConfiguration},
		}
		for _, tc := range cases {
			if !IsCode(tc.err, tc.code) {
				t.Errorf("IsCode(%v, %s) should be true", tc.err, tc.code)
			}
			if GetCode(tc.err) != tc.code {
				t.Errorf("GetCode(%v) = %s, want %s", tc.err, GetCode(tc.err), tc.code)
			}
		}
	})

	t.Run("unknown code for plain errors", func(t *testing.T) {
		if GetCode(fmt.Errorf("plain")) != CodeUnknown {
			t.Error("Plain errors should map to CodeUnknown")
		}
	})

	t.Run("retryable classification", func(t *testing.T) {
		if !IsRetryable(ErrProbeTimeout("10.0.0.1")) {
			t.Error("Probe timeouts should be retryable")
		}
		if !IsRetryable(ErrPoolExhausted()) {
			t.Error("Pool exhaustion should be retryable")
		}
		if IsRetryable(ErrNoInterface()) {
			t.Error("Detection failures should not be retryable")
		}
	})

	t.Run("fatal classification", func(t *testing.T) {
		if !IsFatal(NewConfigError(CodeConfiguration, "missing field")) {
			t.Error("Configuration errors should be fatal")
		}
		if IsFatal(ErrProbeTimeout("10.0.0.1")) {
			t.Error("Probe timeouts should never be fatal")
		}
		if IsFatal(ErrEmptyResult()) {
			t.Error("Validation errors on export should never be fatal")
		}
	})
}
