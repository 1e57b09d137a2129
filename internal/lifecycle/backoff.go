package lifecycle

import "time"

const (
	destroyBackoffBase = 30 * time.Second
	destroyBackoffCap  = 8 * time.Minute

	// MaxDestroyAttempts bounds destruction retries. After exhaustion
	// the binding is force-cleared locally: leaking the external object
	// (discoverable via the provider's listing) beats leaking table
	// state (discoverable by nobody).
	MaxDestroyAttempts = 5
)

// DestroyBackoff maps a completed attempt count to the delay before the
// next destruction attempt: 30s, 1m, 2m, 4m, then capped at 8m.
func DestroyBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := destroyBackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= destroyBackoffCap {
			return destroyBackoffCap
		}
	}
	return d
}
