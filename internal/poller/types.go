// internal/poller/types.go
package poller

import "time"

// Sample is the result of one poll of the acknowledge input.
type Sample struct {
	At      time.Time
	Pressed bool
	Err     error // non-nil means the read failed; Pressed is meaningless
}
