// Package playtest drives simulation sessions for manual and scripted
// testing, either against a running server or in process.
package playtest

import (
	"time"

	"github.com/okian/synaptic/internal/adapters/export"
)

// RemoteConfig holds configuration for a session driven over HTTP.
type RemoteConfig struct {
	BaseURL   string        // Base URL of the service
	Abilities []string      // Abilities cast each round; empty casts every listed ability
	Rounds    int           // Number of cast rounds
	Interval  time.Duration // Pause between rounds
	Timeout   time.Duration // HTTP request timeout
	Simulate  bool          // Use simulated data instead of connecting a device
	Clear     bool          // Clear adversaries before the first round
	Format    export.Format // Encoding of the final report
}

// OfflineConfig holds configuration for an in-process session.
type OfflineConfig struct {
	Duration  time.Duration // Simulated session length
	Step      time.Duration // Simulated time per frame
	CastEvery time.Duration // Simulated time between cast attempts
	Abilities []string      // Abilities cast each attempt; empty casts every ability
	Seed      int64         // Random seed; zero picks a time based one
	DBPath    string        // Where reports are recorded
	Format    export.Format // Encoding of the final report
}

// Stats holds playtest statistics.
type Stats struct {
	Casts       int
	Activated   int
	NotReady    int
	Duplicate   int
	Failed      int
	Snapshots   int
	FinalScore  int
	Kills       int
	Adversaries int
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}

// ActivationResponse is the API answer to an activation.
type ActivationResponse struct {
	Status    string `json:"status"`
	Ability   string `json:"ability"`
	Affected  int    `json:"affected"`
	Kills     int    `json:"kills"`
	Duplicate bool   `json:"duplicate"`
	Code      string `json:"code"`
}

// AbilityInfo is the API view of one ability.
type AbilityInfo struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Remaining float64 `json:"cooldown"`
	Ready     bool    `json:"ready"`
}
