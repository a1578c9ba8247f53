package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/openregulatory/regsearch/pkg/resolver"
)

// ResolveCommand creates the resolve command
func ResolveCommand() *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Back-fill related-legislation titles for stored documents",
		Action: func(ctx context.Context, c *cli.Command) error {
			_, store, err := loadConfigAndStore(c.String("config"))
			if err != nil {
				return err
			}
			defer store.Close()

			if err := resolver.New(store).ResolveTitles(ctx); err != nil {
				return fmt.Errorf("resolving titles: %w", err)
			}
			fmt.Println("Title resolution complete")
			return nil
		},
	}
}
