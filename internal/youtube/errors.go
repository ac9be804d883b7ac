// SPDX-License-Identifier: MIT

package youtube

import (
	"errors"
	"fmt"
)

// Kind classifies platform API failures into the categories the
// orchestrator reacts to.
type Kind int

const (
	// KindTransient covers server 5xx and network timeouts; retried.
	KindTransient Kind = iota + 1
	// KindQuota is daily quota exhaustion (real or synthetic); never
	// retried, halts the run.
	KindQuota
	// KindNotFound covers missing resources and per-resource denials
	// such as disabled comments; logged and skipped.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindQuota:
		return "quota"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// APIError is a classified platform API failure.
type APIError struct {
	Kind       Kind
	Op         string // e.g. "playlistItems.list"
	StatusCode int    // 0 for network-level failures
	Reason     string // platform error reason, e.g. "quotaExceeded"
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s, http %d)", e.Op, e.Kind, e.Reason, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsQuota reports whether err is a quota-exhaustion failure.
func IsQuota(err error) bool { return hasKind(err, KindQuota) }

// IsNotFound reports whether err is a missing-resource failure.
func IsNotFound(err error) bool { return hasKind(err, KindNotFound) }

// IsTransient reports whether err is a retryable failure.
func IsTransient(err error) bool { return hasKind(err, KindTransient) }

func hasKind(err error, k Kind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == k
}
