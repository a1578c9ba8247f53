package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/openregulatory/regsearch/pkg/log"
)

var workerLogger = log.ForService("worker")

// WorkerCommand creates the worker command
func WorkerCommand() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "Rebuild the document cache on a fixed interval until interrupted",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Time between rebuilds",
				Value: 24 * time.Hour,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-rebuild time budget (defaults to the interval)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runWorker(ctx, c.String("config"), c.Duration("interval"), c.Duration("timeout"))
		},
	}
}

// runWorker rebuilds immediately, then on every tick. Unlike the interactive
// rebuild path, the time budget defaults to the full interval so a slow feed
// does not starve the run.
func runWorker(ctx context.Context, configPath string, interval, timeout time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if timeout <= 0 {
		timeout = interval
	}

	workerLogger.Infof("starting: rebuilding every %s", interval)

	rebuild := func() {
		report, err := runRebuild(ctx, configPath, false, timeout)
		if err != nil {
			workerLogger.Errorf("rebuild failed to start: %v", err)
			return
		}
		for _, sr := range report.Sources {
			workerLogger.Infof("source %s: %d inserted, %d updated, %d dropped in %s",
				sr.Name, sr.Inserted, sr.Updated, sr.Failed, sr.Duration.Round(time.Millisecond))
		}
		if report.Error != "" {
			workerLogger.Errorf("rebuild failed: %s", report.Error)
			return
		}
		workerLogger.Infof("%s", report.Message)
	}

	rebuild()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			workerLogger.Infof("stopping: %v", ctx.Err())
			return nil
		case <-ticker.C:
			rebuild()
		}
	}
}
