package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/openregulatory/regsearch/pkg/storage"
)

// OptimizeCommand creates the optimize command
func OptimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Database optimization and maintenance commands",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the query optimizer and refresh statistics",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c, func(store *storage.Store) error {
						if err := store.Analyze(); err != nil {
							return fmt.Errorf("analyze: %w", err)
						}
						if err := store.Optimize(); err != nil {
							return fmt.Errorf("optimize: %w", err)
						}
						fmt.Println("Optimization complete")
						return nil
					})
				},
			},
			{
				Name:  "vacuum",
				Usage: "Rebuild the database file to reclaim space",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c, func(store *storage.Store) error {
						if err := store.Vacuum(); err != nil {
							return fmt.Errorf("vacuum: %w", err)
						}
						fmt.Println("Vacuum complete")
						return nil
					})
				},
			},
			{
				Name:  "checkpoint",
				Usage: "Truncate the write-ahead log",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c, func(store *storage.Store) error {
						if err := store.WALCheckpoint(); err != nil {
							return fmt.Errorf("checkpoint: %w", err)
						}
						fmt.Println("Checkpoint complete")
						return nil
					})
				},
			},
		},
	}
}

func withStore(c *cli.Command, fn func(*storage.Store) error) error {
	_, store, err := loadConfigAndStore(c.String("config"))
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
