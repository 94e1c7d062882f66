package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/chazjack/parliamentary-scanner/internal/shared"
)

// SetupConfig writes a starter config.toml from the embedded example.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Created %s (set [server] base_url and session_token)\n", path)
}

// SetupDatabase initializes the local cache database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.openCache(); err != nil {
		return err
	}

	r.logger.Info("database ready", "path", r.config.Database.Path)
	return r.writePlain("✓ Cache database initialized at %s\n", r.config.Database.Path)
}
