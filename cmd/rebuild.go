package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/openregulatory/regsearch/pkg/pipeline"
	"github.com/openregulatory/regsearch/pkg/resolver"
	"github.com/openregulatory/regsearch/pkg/sources"
)

// RebuildCommand creates the rebuild command
func RebuildCommand() *cli.Command {
	return &cli.Command{
		Name:  "rebuild",
		Usage: "Clear the document cache and re-ingest every configured source",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "skip-resolve",
				Usage: "Skip the related-legislation title resolution pass",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall rebuild time budget (overrides config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			report, err := runRebuild(ctx, c.String("config"), c.Bool("skip-resolve"), c.Duration("timeout"))
			if err != nil {
				return err
			}
			printReport(report)
			if report.Error != "" {
				return fmt.Errorf("rebuild failed: %s", report.Error)
			}
			return nil
		},
	}
}

func runRebuild(ctx context.Context, configPath string, skipResolve bool, timeout time.Duration) (pipeline.Report, error) {
	cfg, store, err := loadConfigAndStore(configPath)
	if err != nil {
		return pipeline.Report{}, err
	}
	defer store.Close()

	registry := sources.GetGlobalRegistry()
	if err := createSourcesFromConfig(registry, cfg); err != nil {
		return pipeline.Report{}, fmt.Errorf("creating sources: %w", err)
	}

	var titleResolver pipeline.TitleResolver
	if cfg.ResolveTitles && !skipResolve {
		titleResolver = resolver.New(store)
	}

	if timeout <= 0 {
		timeout = cfg.Timeout.Duration
	}

	builder := pipeline.NewBuilder(store, registry.AllSources(), titleResolver, timeout)
	return builder.Rebuild(ctx), nil
}

func printReport(report pipeline.Report) {
	for _, sr := range report.Sources {
		status := "ok"
		if sr.Error != "" {
			status = "failed: " + sr.Error
		}
		fmt.Printf("  %-20s %4d inserted %4d updated %4d dropped  %8s  %s\n",
			sr.Name, sr.Inserted, sr.Updated, sr.Failed,
			sr.Duration.Round(time.Millisecond), status)
	}
	fmt.Println(report.Message)
}
