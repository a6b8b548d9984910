package pagegen

import "errors"

var (
	// ErrResyncInProgress is returned when another full resync holds the lease.
	ErrResyncInProgress = errors.New("full resync already in progress")
	// ErrSyncHeld is returned while the seed hold suppresses sweeps and resyncs.
	ErrSyncHeld = errors.New("sync held until seeding completes")
)
