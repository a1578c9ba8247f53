package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// ExportCommand creates the export command
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export the document cache to a compressed snapshot file",
		ArgsUsage: "<snapshot-file>",
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("snapshot file path required")
			}

			_, store, err := loadConfigAndStore(c.String("config"))
			if err != nil {
				return err
			}
			defer store.Close()

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating snapshot file: %w", err)
			}
			defer f.Close()

			count, err := store.Export(f)
			if err != nil {
				return fmt.Errorf("exporting: %w", err)
			}
			fmt.Printf("Exported %d documents to %s\n", count, path)
			return nil
		},
	}
}

// ImportCommand creates the import command
func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import documents from a compressed snapshot file",
		ArgsUsage: "<snapshot-file>",
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("snapshot file path required")
			}

			_, store, err := loadConfigAndStore(c.String("config"))
			if err != nil {
				return err
			}
			defer store.Close()

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening snapshot file: %w", err)
			}
			defer f.Close()

			count, err := store.ImportSnapshot(f)
			if err != nil {
				return fmt.Errorf("importing: %w", err)
			}
			fmt.Printf("Imported %d documents from %s\n", count, path)
			return nil
		},
	}
}
