package readaloud

import "errors"

// Common errors for the synchronization engine.
var (
	// Pool errors
	ErrHandleNotFound   = errors.New("audio handle not found in pool")
	ErrHandleNotLoaded  = errors.New("audio handle has not finished loading")
	ErrPoolDestroyed    = errors.New("audio buffer pool has been destroyed")
	ErrPreloadFailed    = errors.New("audio preload failed")
	ErrAlreadyPreloaded = errors.New("audio handle already preloaded")

	// Output port errors
	ErrOutputNotReady    = errors.New("audio output context is not ready")
	ErrOutputUnavailable = errors.New("no audio output available on this platform")

	// Transition errors
	ErrTransitionActive = errors.New("a transition is already in progress")
	ErrNothingPlaying   = errors.New("no audio is playing")

	// Calibration errors
	ErrUnknownKind       = errors.New("unknown calibration kind")
	ErrStaleCalibration  = errors.New("persisted calibration record is stale")
	ErrCorruptRecord     = errors.New("persisted calibration record is corrupt")
	ErrStoreUnavailable  = errors.New("calibration store unavailable")
	ErrNothingCalibrated = errors.New("no calibration data recorded")

	// Cache errors
	ErrCacheMiss   = errors.New("audio cache miss")
	ErrCacheClosed = errors.New("audio cache is closed")

	// Driver errors
	ErrNoTimingTable = errors.New("no timing table active")
)

// IsRecoverable reports whether playback can continue after err. Preload
// and transition failures are isolated per handle; only teardown-level
// errors are fatal to the pool.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, ErrPoolDestroyed),
		errors.Is(err, ErrOutputUnavailable):
		return false
	default:
		return true
	}
}
