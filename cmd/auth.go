package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/chazjack/parliamentary-scanner/internal/shared"
)

// AuthLogin exchanges credentials for a session cookie and prints the
// token so it can be stored in config.toml.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.backend == nil {
		return fmt.Errorf("%w: backend client not initialized", shared.ErrServiceUnavailable)
	}

	username := cmd.String("username")
	password := cmd.String("password")
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", shared.ErrMissingArgument)
	}

	r.logger.Info("logging in", "username", username)
	if err := r.backend.Login(ctx, username, password); err != nil {
		return err
	}

	r.writePlain("✓ Login successful\n")
	r.writePlain("Session token: %s\n", r.backend.Session())
	r.writePlain("Store it under [server] session_token in config.toml to stay logged in\n")
	return nil
}

// AuthStatus reports the current session and classifier health.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.backend != nil {
		user, err := r.backend.Whoami(ctx)
		if err != nil {
			r.writePlain("✗ Not authenticated: %v\n", err)
		} else {
			r.writePlain("✓ Authenticated as %s\n", user)
		}
	}

	health, err := r.api.ClassifierHealth(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	if health.OK() {
		r.writePlain("✓ Classifier healthy")
		if health.Model != "" {
			r.writePlain(" (%s)", health.Model)
		}
		r.writePlain("\n")
	} else {
		r.writePlain("✗ Classifier degraded: %s\n", health.Message)
	}

	return nil
}
