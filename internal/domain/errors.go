package domain

import "errors"

var (
	// ErrAnalysisInProgress is returned when a run is requested while one is
	// already active; the failed request is rejected, never queued.
	ErrAnalysisInProgress = errors.New("analysis already in progress")

	// ErrNoImage is returned when the source product lacks an image reference.
	ErrNoImage = errors.New("source product has no image")

	// ErrImageAnalysis is returned when the vision profile step fails.
	ErrImageAnalysis = errors.New("image analysis failed")

	// ErrSearchFailed is returned when the similar-product search fails for
	// transport reasons, as opposed to returning an empty set.
	ErrSearchFailed = errors.New("similar product search failed")

	// ErrNoAlternativesFound is returned when candidate generation and
	// filtering produce an empty set.
	ErrNoAlternativesFound = errors.New("no alternatives found")

	// ErrNothingToRetry is returned when a retry is requested with no prior
	// source product recorded.
	ErrNothingToRetry = errors.New("no previous analysis to retry")

	// ErrStorage is returned when the key-value storage capability fails.
	ErrStorage = errors.New("storage operation failed")

	// ErrInvalidRequest is returned when request parameters are invalid.
	ErrInvalidRequest = errors.New("invalid request parameters")
)

// Stable error codes carried in ErrorInfo across the message boundary.
const (
	CodeBusy           = "BUSY"
	CodeNoImage        = "NO_IMAGE"
	CodeImageAnalysis  = "IMAGE_ANALYSIS_FAILED"
	CodeSearchFailed   = "SEARCH_FAILED"
	CodeNoAlternatives = "NO_ALTERNATIVES_FOUND"
	CodeNothingToRetry = "NOTHING_TO_RETRY"
	CodeStorage        = "STORAGE_FAILURE"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeAnalysisError  = "ANALYSIS_ERROR"
)

// NewErrorInfo converts an error into its caller-facing form.
func NewErrorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	return &ErrorInfo{Code: ErrorCode(err), Message: err.Error()}
}

// ErrorCode maps an error to its stable code; unknown errors map to the
// generic analysis error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAnalysisInProgress):
		return CodeBusy
	case errors.Is(err, ErrNoImage):
		return CodeNoImage
	case errors.Is(err, ErrImageAnalysis):
		return CodeImageAnalysis
	case errors.Is(err, ErrSearchFailed):
		return CodeSearchFailed
	case errors.Is(err, ErrNoAlternativesFound):
		return CodeNoAlternatives
	case errors.Is(err, ErrNothingToRetry):
		return CodeNothingToRetry
	case errors.Is(err, ErrStorage):
		return CodeStorage
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	default:
		return CodeAnalysisError
	}
}

// Retryable reports whether the UI should offer a retry action for the
// given error code. Busy runs must not be retried; transient analysis and
// search failures should be.
func Retryable(code string) bool {
	switch code {
	case CodeImageAnalysis, CodeSearchFailed, CodeNoAlternatives, CodeAnalysisError:
		return true
	default:
		return false
	}
}
