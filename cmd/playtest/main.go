package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/synaptic/internal/adapters/export"
	"github.com/okian/synaptic/internal/playtest"
	"github.com/okian/synaptic/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "playtest",
		Short: "Drive synaptic simulation sessions",
		Long: `playtest plays scripted sessions of the synaptic simulation.

It either drives a running server over its HTTP API or runs a session
in process on simulated data, then prints the research report.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			level, _ := cmd.Flags().GetString("log-level")
			return logger.SetLevelString(level)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("format", "json", "Report format: json, yaml or csv")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Write the report to this file instead of stdout")
	rootCmd.PersistentFlags().StringSlice("ability", nil, "Abilities to cast (default: all)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newRemoteCmd(),
		newOfflineCmd(),
	)
	return rootCmd
}

func newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Drive a running server over HTTP",
		Long: `Start the biosignal feed, cast abilities for a number of rounds and
fetch the session export from a running server.

Examples:
  playtest remote --url http://localhost:9080 --rounds 20
  playtest remote --ability dendritic_lightning --format csv -o report.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatFlag(cmd)
			if err != nil {
				return err
			}
			url, _ := cmd.Flags().GetString("url")
			rounds, _ := cmd.Flags().GetInt("rounds")
			interval, _ := cmd.Flags().GetDuration("interval")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			device, _ := cmd.Flags().GetBool("device")
			clearFirst, _ := cmd.Flags().GetBool("clear")
			abilities, _ := cmd.Flags().GetStringSlice("ability")

			return withOutput(cmd, func(ctx context.Context, w io.Writer) error {
				_, err := playtest.RunRemote(ctx, &playtest.RemoteConfig{
					BaseURL:   url,
					Abilities: abilities,
					Rounds:    rounds,
					Interval:  interval,
					Timeout:   timeout,
					Simulate:  !device,
					Clear:     clearFirst,
					Format:    format,
				}, w)
				return err
			})
		},
	}

	cmd.Flags().String("url", playtest.DefaultBaseURL, "Base URL of the service")
	cmd.Flags().Int("rounds", playtest.DefaultRounds, "Number of cast rounds")
	cmd.Flags().Duration("interval", playtest.DefaultInterval, "Pause between rounds")
	cmd.Flags().Duration("timeout", playtest.DefaultTimeout, "HTTP request timeout")
	cmd.Flags().Bool("device", false, "Connect a device instead of using simulated data")
	cmd.Flags().Bool("clear", false, "Clear adversaries before the first round")
	return cmd
}

func newOfflineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offline",
		Short: "Play a session in process",
		Long: `Run the simulation in process on simulated data with a synthetic
frame step and print the final report.

Examples:
  playtest offline --duration 2m --seed 42
  playtest offline --step 100ms --cast-every 500ms --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatFlag(cmd)
			if err != nil {
				return err
			}
			duration, _ := cmd.Flags().GetDuration("duration")
			step, _ := cmd.Flags().GetDuration("step")
			castEvery, _ := cmd.Flags().GetDuration("cast-every")
			seed, _ := cmd.Flags().GetInt64("seed")
			dbPath, _ := cmd.Flags().GetString("db")
			abilities, _ := cmd.Flags().GetStringSlice("ability")

			return withOutput(cmd, func(ctx context.Context, w io.Writer) error {
				_, _, err := playtest.RunOffline(ctx, &playtest.OfflineConfig{
					Duration:  duration,
					Step:      step,
					CastEvery: castEvery,
					Abilities: abilities,
					Seed:      seed,
					DBPath:    dbPath,
					Format:    format,
				}, w)
				return err
			})
		},
	}

	cmd.Flags().Duration("duration", playtest.DefaultDuration, "Simulated session length")
	cmd.Flags().Duration("step", playtest.DefaultStep, "Simulated time per frame")
	cmd.Flags().Duration("cast-every", playtest.DefaultCastEvery, "Simulated time between cast attempts (0 disables casting)")
	cmd.Flags().Int64("seed", 0, "Random seed (0 picks one)")
	cmd.Flags().String("db", playtest.DefaultDBPath, "sqlite file for recorded reports")
	return cmd
}

func formatFlag(cmd *cobra.Command) (export.Format, error) {
	raw, _ := cmd.Flags().GetString("format")
	return export.ParseFormat(raw)
}

// withOutput runs fn with a signal-aware context and the configured report
// destination.
func withOutput(cmd *cobra.Command, fn func(ctx context.Context, w io.Writer) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return fn(ctx, cmd.OutOrStdout())
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := fn(ctx, file); err != nil {
		return err
	}
	logger.Get().Info(ctx, "report saved", logger.String("filename", path))
	return nil
}
