package playtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/okian/synaptic/internal/adapters/export"
	service "github.com/okian/synaptic/internal/app"
	"github.com/okian/synaptic/internal/domain/ability"
	"github.com/okian/synaptic/internal/domain/cognition"
	"github.com/okian/synaptic/internal/domain/model"
	"github.com/okian/synaptic/pkg/logger"
)

// ErrInvalidStep is returned when the offline frame step is not positive.
var ErrInvalidStep = errors.New("step must be positive")

// RunOffline plays a session in process on simulated data, stepping frames
// by cfg.Step until cfg.Duration of simulated time has passed. The final
// report is written to out and returned.
func RunOffline(ctx context.Context, cfg *OfflineConfig, out io.Writer) (*Stats, cognition.Report, error) {
	if cfg.Step <= 0 {
		return nil, cognition.Report{}, ErrInvalidStep
	}
	stats := &Stats{StartTime: time.Now()}
	lg := logger.NamedOrNop("playtest")

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	svc := service.New(
		service.WithManualClock(),
		service.WithDBPath(dbPath),
		service.WithSeed(cfg.Seed),
		service.WithLogger(lg.Named("service")),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, cognition.Report{}, fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	lg.Info(ctx, "starting offline playtest",
		logger.String("session", svc.SessionID()),
		logger.String("duration", cfg.Duration.String()),
		logger.String("step", cfg.Step.String()),
	)

	if !svc.Enqueue(ctx, model.NewCommand("", model.CommandSimulate, "")) {
		return nil, cognition.Report{}, errors.New("feed command refused")
	}

	abilities := cfg.Abilities
	if len(abilities) == 0 {
		for _, st := range svc.Abilities() {
			abilities = append(abilities, st.ID)
		}
	}

	dt := cfg.Step.Seconds()
	frames := int(cfg.Duration / cfg.Step)
	// Casting is scheduled in whole frames so float drift never skips one.
	castFrames := 0
	if cfg.CastEvery > 0 {
		castFrames = max(1, int(cfg.CastEvery/cfg.Step))
	}

	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return stats, cognition.Report{}, err
		}

		var pending []model.Command
		if castFrames > 0 && i%castFrames == 0 {
			for _, id := range abilities {
				cmd := model.NewCommand("", model.CommandActivate, id)
				if svc.Enqueue(ctx, cmd) {
					pending = append(pending, cmd)
				} else {
					stats.Failed++
				}
			}
		}

		if _, err := svc.Step(ctx, dt); err != nil {
			return stats, cognition.Report{}, err
		}

		for _, cmd := range pending {
			stats.Casts++
			res := <-cmd.Reply
			switch {
			case res.Err == nil:
				stats.Activated++
			case errors.Is(res.Err, ability.ErrNotReady):
				stats.NotReady++
			default:
				stats.Failed++
				lg.Warn(ctx, "activation failed", logger.String("ability", cmd.AbilityID), logger.Error(res.Err))
			}
		}
		stats.Snapshots++
	}

	report := svc.Report()
	stats.FinalScore = report.Session.Score
	stats.Kills = report.Session.Kills
	stats.Adversaries = len(svc.Adversaries())

	format := cfg.Format
	if format == "" {
		format = export.JSON
	}
	if err := export.Write(out, format, report); err != nil {
		return stats, report, fmt.Errorf("write report: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, lg, stats)
	return stats, report, nil
}
