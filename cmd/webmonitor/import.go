package main

import (
	"context"
	"fmt"

	"github.com/dukex/webmonitor/pkg/config"
	"github.com/dukex/webmonitor/pkg/persistence"
	cli "github.com/urfave/cli/v3"
)

func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Replace the stored websites and/or schedule with the contents of a YAML seed file",
		ArgsUsage: "seed.yaml",
		Action:    withPersistence(importSeed),
	}
}

func importSeed(ctx context.Context, command *cli.Command, p persistence.Persistence) error {
	if command.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one seed file")
	}

	seed, err := config.LoadSeed(command.Args().First())
	if err != nil {
		return err
	}

	return applySeed(ctx, p, seed)
}

// applySeed writes the sections present in seed. Both documents are written
// only once the whole file validated.
func applySeed(ctx context.Context, p persistence.Persistence, seed config.Seed) error {
	if seed.Websites != nil {
		err := p.SaveWebsites(ctx, seed.Websites)
		if err != nil {
			return fmt.Errorf("failed to save websites: %w", err)
		}
	}

	if seed.Schedule != nil {
		err := p.SaveSchedule(ctx, seed.Schedule)
		if err != nil {
			return fmt.Errorf("failed to save schedule: %w", err)
		}
	}

	return nil
}
