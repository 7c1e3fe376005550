package main

import (
	"context"

	"github.com/playlog/steamsync/internal/ui"
	"github.com/urfave/cli/v3"
)

func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Run a sync for a user's linked account now",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "Local user id to sync",
				Required: true,
			},
		},
		Action: r.Sync,
	}
}

// Sync runs an on-demand sync for the user's linked account and waits for it
// to finish.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")

	app, err := r.connect()
	if err != nil {
		return err
	}
	defer app.Close()

	r.logger.Info("starting manual sync", "user_id", userID)

	run, runErr := app.scheduler.RunNow(ctx, userID)
	if run == nil {
		return runErr
	}

	r.writePlain("Outcome: %s\n", ui.Outcome(run.Outcome))
	r.writePlain("Titles: %d seen, %d added, %d updated\n", run.TitlesSeen, run.TitlesAdded, run.TitlesUpdated)
	if run.ErrorDetail != "" {
		r.writePlain("%s\n", ui.Err(run.ErrorDetail))
	}
	return runErr
}

func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Show recent sync runs for a user",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "Local user id",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
		},
		Action: r.Runs,
	}
}

// Runs lists the user's recent sync runs, newest first.
func (r *Runner) Runs(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	limit := cmd.Int("limit")

	app, err := r.connect()
	if err != nil {
		return err
	}
	defer app.Close()

	runs, err := app.service.Runs(userID, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		r.writePlain("%s\n", ui.Help("no sync runs recorded"))
		return nil
	}

	r.writePlain("%s\n", ui.Title("Sync Runs"))
	for _, run := range runs {
		r.writePlain("%s\n", ui.RenderRun(run))
	}
	return nil
}
