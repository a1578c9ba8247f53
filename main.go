package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/openregulatory/regsearch/cmd"
	"github.com/openregulatory/regsearch/pkg/config"
	"github.com/openregulatory/regsearch/pkg/log"
	_ "github.com/openregulatory/regsearch/pkg/sources/legislation"
	_ "github.com/openregulatory/regsearch/pkg/sources/tradedata"
)

func main() {
	app := &cli.Command{
		Name:  "regsearch",
		Usage: "Regulatory document ingestion and search",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if c.Bool("debug") {
				log.SetGlobalDebug(true)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.RebuildCommand(),
			cmd.ResolveCommand(),
			cmd.SearchCommand(),
			cmd.PublishersCommand(),
			cmd.StatsCommand(),
			cmd.ExportCommand(),
			cmd.ImportCommand(),
			cmd.OptimizeCommand(),
			cmd.WorkerCommand(),
			cmd.VersionCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		stdlog.Fatal(err)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		stdlog.Fatalf("Failed to get default config path: %v", err)
	}
	return path
}
