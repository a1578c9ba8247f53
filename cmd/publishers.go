package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// PublishersCommand creates the publishers command
func PublishersCommand() *cli.Command {
	return &cli.Command{
		Name:  "publishers",
		Usage: "List publishers present in the document cache",
		Action: func(ctx context.Context, c *cli.Command) error {
			_, store, err := loadConfigAndStore(c.String("config"))
			if err != nil {
				return err
			}
			defer store.Close()

			publishers, err := store.Publishers()
			if err != nil {
				return fmt.Errorf("listing publishers: %w", err)
			}
			if len(publishers) == 0 {
				fmt.Println("No publishers found")
				return nil
			}
			for _, p := range publishers {
				fmt.Printf("%-24s %s\n", p.Key, p.Name)
			}
			return nil
		},
	}
}
