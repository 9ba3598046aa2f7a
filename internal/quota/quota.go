package quota

import (
	"fmt"

	"github.com/dongurihub/uploadhub/internal/index"
)

// Usage sums the stored bytes attributed to one client address.
func Usage(idx index.Index, ip string) int64 {
	var total int64
	for _, rec := range idx {
		if rec.IP == ip {
			total += rec.Size
		}
	}
	return total
}

// Tracker enforces the per-IP storage ceiling. A limit of zero or below
// disables enforcement entirely.
type Tracker struct {
	Limit int64
}

func (t Tracker) Enabled() bool {
	return t.Limit > 0
}

// AtCapacity is the pre-flight checkpoint: true once usage already meets
// the ceiling, before any byte of a new upload has been read.
func (t Tracker) AtCapacity(used int64) bool {
	return t.Enabled() && used >= t.Limit
}

// Exceeded is the mid-stream checkpoint: true once the bytes written so
// far push usage past the ceiling. It runs once per chunk, so the
// worst-case overshoot is bounded below a single chunk size.
func (t Tracker) Exceeded(used, written int64) bool {
	return t.Enabled() && used+written > t.Limit
}

// NewError builds the structured rejection for either checkpoint.
func (t Tracker) NewError(used int64) *Error {
	remaining := t.Limit - used
	if remaining < 0 {
		remaining = 0
	}
	return &Error{Limit: t.Limit, Used: used, Remaining: remaining}
}

// Error reports a quota rejection with the exact numbers the client is
// owed: the configured limit, current usage and what is left.
type Error struct {
	Limit     int64
	Used      int64
	Remaining int64
}

func (e *Error) Error() string {
	return fmt.Sprintf("ip storage quota exceeded: used %d of %d bytes", e.Used, e.Limit)
}
