// SPDX-License-Identifier: MIT

package youtube

import (
	"sync"

	"github.com/utawakulab/utacatalog/internal/metrics"
)

// QuotaTracker enforces the advisory quota budget. Estimated unit costs:
// one unit per list call, per video batch and per comment page. Once the
// ceiling is reached every further charge fails with a synthetic
// quota-exceeded error so the orchestrator can halt before the platform
// does it for us.
type QuotaTracker struct {
	mu      sync.Mutex
	used    int
	ceiling int
}

// NewQuotaTracker creates a tracker with the operator-set ceiling.
// A non-positive ceiling disables budget enforcement.
func NewQuotaTracker(ceiling int) *QuotaTracker {
	return &QuotaTracker{ceiling: ceiling}
}

// Charge records units of estimated cost, failing when the budget is spent.
func (q *QuotaTracker) Charge(op string, units int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ceiling > 0 && q.used+units > q.ceiling {
		return &APIError{
			Kind:   KindQuota,
			Op:     op,
			Reason: "budgetExhausted",
		}
	}
	q.used += units
	metrics.QuotaUnitsUsed.Add(float64(units))
	return nil
}

// Used returns the units consumed so far.
func (q *QuotaTracker) Used() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.used
}
