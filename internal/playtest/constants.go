package playtest

import "time"

// Remote defaults.
const (
	DefaultBaseURL  = "http://localhost:9080"
	DefaultRounds   = 10
	DefaultInterval = 500 * time.Millisecond
	DefaultTimeout  = 5 * time.Second
)

// Offline defaults.
const (
	DefaultDuration  = 60 * time.Second
	DefaultStep      = time.Second / 60
	DefaultCastEvery = time.Second
	DefaultDBPath    = ":memory:"
)

// Cast outcomes as reported by the API.
const (
	outcomeActivated = "activated"
	outcomeNotReady  = "not_ready"
)

const percentageMultiplier = 100
