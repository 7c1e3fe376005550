package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/playlog/steamsync/internal/repositories"
	"github.com/playlog/steamsync/internal/shared"
	"github.com/playlog/steamsync/internal/steam"
	"github.com/playlog/steamsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, daemonCommand, linkCommand, syncCommand, statusCommand, runsCommand, unlinkCommand, backlogCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app bundles the connected dependencies a command action needs. Close
// releases the database handle.
type app struct {
	db        *sql.DB
	library   steam.Library
	catalog   *repositories.CatalogRepository
	backlog   *repositories.BacklogRepository
	accounts  *repositories.AccountRepository
	runs      *repositories.SyncRunRepository
	scheduler *tasks.Scheduler
	service   *tasks.Service
}

func (a *app) Close() error {
	return a.db.Close()
}

// connect opens the database and wires the repositories, Steam client,
// engine, scheduler, and service.
func (r *Runner) connect() (*app, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	budget := steam.NewBudget(r.config.RateLimit.Requests, r.config.RateLimit.Window(), r.config.RateLimit.MaxWait())
	library, err := steam.NewClient(r.config.Steam, budget, r.httpClient, r.logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	catalog := repositories.NewCatalogRepository(db)
	backlog := repositories.NewBacklogRepository(db)
	accounts := repositories.NewAccountRepository(db)
	runs := repositories.NewSyncRunRepository(db)
	reviews := repositories.NewReviewRepository(db)

	engine := tasks.NewEngine(library, catalog, backlog, reviews, r.logger)
	scheduler := tasks.NewScheduler(accounts, runs, engine, r.config.Sync.Tick(), r.config.Sync.Cadence(), r.logger)
	service := tasks.NewService(library, accounts, runs, scheduler, r.logger)

	return &app{
		db:        db,
		library:   library,
		catalog:   catalog,
		backlog:   backlog,
		accounts:  accounts,
		runs:      runs,
		scheduler: scheduler,
		service:   service,
	}, nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
