package reasoning

import (
	"errors"
	"fmt"
)

// ErrKeysExhausted reports that the retry budget was spent without any key
// completing the call. It is the only rate-limit outcome callers ever see.
var ErrKeysExhausted = errors.New("all reasoning API keys exhausted")

// QuotaError wraps a rate-limit-class failure from the reasoning service.
// The key pool retries these with key rotation and backoff; every other
// provider error propagates immediately.
type QuotaError struct {
	Err error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("reasoning quota exceeded: %v", e.Err)
}

func (e *QuotaError) Unwrap() error {
	return e.Err
}

// IsQuota reports whether err is a rate-limit-class failure.
func IsQuota(err error) bool {
	var quotaErr *QuotaError
	return errors.As(err, &quotaErr)
}
