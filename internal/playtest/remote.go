package playtest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/okian/synaptic/internal/adapters/export"
	"github.com/okian/synaptic/pkg/logger"
)

// RunRemote drives a running service: it starts the feed, casts abilities
// for cfg.Rounds rounds, then writes the service's report to out.
func RunRemote(ctx context.Context, cfg *RemoteConfig, out io.Writer) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	lg := logger.NamedOrNop("playtest")
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	lg.Info(ctx, "starting remote playtest",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("rounds", cfg.Rounds),
		logger.String("interval", cfg.Interval.String()),
		logger.Bool("simulate", cfg.Simulate),
	)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Start the feed
	action := "connect"
	if cfg.Simulate {
		action = "simulate"
	}
	state, err := client.Feed(ctx, action)
	if err != nil {
		// A feed that is already streaming is fine.
		lg.Warn(ctx, "feed not started", logger.String("action", action), logger.Error(err))
	} else {
		lg.Info(ctx, "feed started", logger.String("state", state))
	}

	if cfg.Clear {
		n, err := client.ClearAdversaries(ctx)
		if err != nil {
			return nil, fmt.Errorf("clear adversaries: %w", err)
		}
		lg.Info(ctx, "adversaries cleared", logger.Int("count", n))
	}

	// Step 3: Resolve the abilities to cast
	abilities := cfg.Abilities
	if len(abilities) == 0 {
		listed, err := client.Abilities(ctx)
		if err != nil {
			return nil, fmt.Errorf("list abilities: %w", err)
		}
		for _, a := range listed {
			abilities = append(abilities, a.ID)
		}
	}

	// Step 4: Cast rounds
	for round := 0; round < cfg.Rounds; round++ {
		for _, id := range abilities {
			castRemote(ctx, client, id, stats, lg)
		}
		snap, err := client.Snapshot(ctx)
		if err != nil {
			lg.Warn(ctx, "snapshot failed", logger.Error(err))
		} else {
			stats.Snapshots++
			stats.FinalScore = snap.Score
			stats.Kills = snap.Kills
			lg.Debug(ctx, "round complete",
				logger.Int("round", round+1),
				logger.Int("score", snap.Score),
				logger.Float64("performance", snap.CognitivePerformance),
			)
		}
		if round < cfg.Rounds-1 {
			if err := sleep(ctx, cfg.Interval); err != nil {
				return stats, err
			}
		}
	}

	if n, err := client.Adversaries(ctx); err == nil {
		stats.Adversaries = n
	}

	// Step 5: Fetch the report
	format := cfg.Format
	if format == "" {
		format = export.JSON
	}
	if err := client.Export(ctx, string(format), out); err != nil {
		return stats, fmt.Errorf("export report: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, lg, stats)
	return stats, nil
}

// castRemote activates id once and replays the same key to check that the
// service deduplicates it.
func castRemote(ctx context.Context, client *Client, id string, stats *Stats, lg logger.Logger) {
	key := uuid.NewString()
	stats.Casts++

	res, err := client.Activate(ctx, id, key)
	switch {
	case err != nil:
		stats.Failed++
		lg.Warn(ctx, "activation failed", logger.String("ability", id), logger.Error(err))
		return
	case res.Status == outcomeActivated:
		stats.Activated++
	case res.Status == outcomeNotReady:
		stats.NotReady++
		return
	default:
		stats.Failed++
		return
	}

	replay, err := client.Activate(ctx, id, key)
	if err == nil && replay.Duplicate {
		stats.Duplicate++
		return
	}
	lg.Warn(ctx, "activation replay was not deduplicated", logger.String("ability", id))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// displayFinalStats logs the final playtest statistics.
func displayFinalStats(ctx context.Context, lg logger.Logger, stats *Stats) {
	var activationRate float64
	if stats.Casts > 0 {
		activationRate = float64(stats.Activated) / float64(stats.Casts) * percentageMultiplier
	}

	lg.Info(ctx, "final statistics",
		logger.Int("casts", stats.Casts),
		logger.Int("activated", stats.Activated),
		logger.Int("notReady", stats.NotReady),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Int("snapshots", stats.Snapshots),
		logger.Int("finalScore", stats.FinalScore),
		logger.Int("kills", stats.Kills),
		logger.Int("adversaries", stats.Adversaries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("activationRate", activationRate),
	)
}
