package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// StatsCommand creates the stats command
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show document cache statistics",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, store, err := loadConfigAndStore(c.String("config"))
			if err != nil {
				return err
			}
			defer store.Close()

			count, err := store.Count()
			if err != nil {
				return fmt.Errorf("counting documents: %w", err)
			}
			publishers, err := store.Publishers()
			if err != nil {
				return fmt.Errorf("listing publishers: %w", err)
			}
			types, err := store.DocumentTypes()
			if err != nil {
				return fmt.Errorf("listing types: %w", err)
			}

			fmt.Printf("Database:   %s\n", cfg.DatabasePath)
			fmt.Printf("Documents:  %d\n", count)
			fmt.Printf("Publishers: %d\n", len(publishers))
			fmt.Printf("Types:      %d\n", len(types))
			for _, t := range types {
				fmt.Printf("  - %s\n", t)
			}
			return nil
		},
	}
}
