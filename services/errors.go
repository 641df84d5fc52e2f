package services

import (
	"errors"
	"fmt"
)

// Sentinel errors for request-fatal conditions. Controllers map these onto
// HTTP statuses with errors.Is.
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrIdeaNotFound         = errors.New("idea not found")
	ErrNotConfigured        = errors.New("OpenAI API key is not configured")
	ErrAllEvaluated         = errors.New("all ideas have already been evaluated")
	ErrAlreadyEvaluated     = errors.New("idea has already been evaluated")
	ErrAngleTooShort        = errors.New("angle text must be at least 10 characters")

	// ErrTimedOut means the provider did not answer within the deadline. The
	// in-flight call is not cancelled; a late response is discarded.
	ErrTimedOut = errors.New("the model took too long to respond, please try again")
)

// QuotaError is a rate/quota condition reported by the provider (HTTP 429 or a
// quota/billing message). It aborts an in-flight batch and is retryable by the
// user once quota recovers.
type QuotaError struct {
	Message string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("provider quota exceeded: %s", e.Message)
}

// IsQuota reports whether err is (or wraps) a QuotaError.
func IsQuota(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}

// ProviderError is any provider failure that is neither a timeout nor a quota
// condition.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %s", e.Message)
}
