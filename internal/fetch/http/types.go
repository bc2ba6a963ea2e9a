package fetchhttp

import (
	"fmt"
	"time"
)

// ResourceDescriptor is the result of the metadata probe. Size is zero when
// the server omitted (or sent an unparsable) Content-Length; Filename
// defaults to "Unnamed" when the server sent no usable Content-Disposition.
type ResourceDescriptor struct {
	URL      string
	Size     int64
	Filename string
}

// TransferError is the engine's unrecoverable failure: a non-retryable HTTP
// status, a failed probe, or a transient-retry budget that ran out.
type TransferError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransferError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transfer failed for %s: server returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("transfer failed for %s: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// RetryPolicy bounds transient-failure retries. The failure counter resets
// whenever the transfer makes forward progress, so a long flaky download is
// only abandoned after MaxAttempts consecutive failures at one offset.
type RetryPolicy struct {
	MaxAttempts int
	WaitMin     time.Duration
	WaitMax     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 10,
		WaitMin:     500 * time.Millisecond,
		WaitMax:     15 * time.Second,
	}
}

func (p RetryPolicy) backoff(failures int) time.Duration {
	wait := p.WaitMin
	for i := 1; i < failures && wait < p.WaitMax; i++ {
		wait *= 2
	}
	if wait > p.WaitMax {
		wait = p.WaitMax
	}
	return wait
}

// session tracks the mutable state of one download. Only the engine touches
// it; downloaded is monotonic except for the single reset on fallback.
type session struct {
	id         string
	desc       ResourceDescriptor
	downloaded int64
	failures   int
}
