// FILE: lixenwraith/layered/timing.go
package layered

import "time"

// Core timing constants for production use.
const (
	// DefaultPollInterval is the standard file monitoring frequency.
	DefaultPollInterval = time.Second

	// watchBacklog buffers every watcher channel. Notifications past the
	// backlog are dropped rather than blocking the committer; the next
	// differing reload re-notifies.
	watchBacklog = 16

	// eventKickDebounce coalesces bursts of file-system events into one
	// forced poll tick.
	eventKickDebounce = 50 * time.Millisecond
)
