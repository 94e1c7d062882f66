package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/chazjack/parliamentary-scanner/internal/repositories"
	"github.com/chazjack/parliamentary-scanner/internal/scan"
	"github.com/chazjack/parliamentary-scanner/internal/services"
	"github.com/chazjack/parliamentary-scanner/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        services.ScanAPI
	backend    *services.BackendClient
	logger     *log.Logger
	output     io.Writer
	cache      *repositories.ScanCache
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        services.ScanAPI
	Backend    *services.BackendClient
	Logger     *log.Logger
	Output     io.Writer
	Cache      *repositories.ScanCache
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.API == nil {
		if opts.Backend == nil {
			opts.Backend = services.NewBackendClient(opts.Config.Server.BaseURL, services.BackendClientOpts{
				SessionToken:      opts.Config.Server.SessionToken,
				RequestsPerSecond: opts.Config.Server.RequestsPerSecond,
			})
		}
		opts.API = opts.Backend
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		backend:    opts.Backend,
		logger:     opts.Logger,
		output:     opts.Output,
		cache:      opts.Cache,
	}
}

// SetLogger replaces the runner's logger, used by the TUI to redirect logs to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// openCache lazily opens the local cache database, running migrations on
// first use. A cache failure is never fatal to scan commands; callers
// degrade to cache-less operation.
func (r *Runner) openCache() (*repositories.ScanCache, error) {
	if r.cache != nil {
		return r.cache, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}

	r.db = db
	r.cache = repositories.NewScanCache(db)
	return r.cache, nil
}

// newController builds a scan controller wired to the local cache when one
// is available.
func (r *Runner) newController() *scan.Controller {
	cache, err := r.openCache()
	if err != nil {
		r.logger.Warn("local cache unavailable, history will not be mirrored", "error", err)
	}
	opts := scan.ControllerOpts{
		PollInterval: r.config.Scan.PollInterval(),
		Logger:       r.logger,
	}
	if cache != nil {
		opts.Cache = cache
	}
	return scan.NewController(r.api, opts)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
