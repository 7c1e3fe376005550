package main

import (
	"context"

	"github.com/playlog/steamsync/internal/ui"
	"github.com/urfave/cli/v3"
)

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show a user's link and sync state",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "Local user id",
				Required: true,
			},
		},
		Action: r.Status,
	}
}

// Status prints the user's linked account and last sync state.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")

	app, err := r.connect()
	if err != nil {
		return err
	}
	defer app.Close()

	info, err := app.service.Status(userID)
	if err != nil {
		return err
	}

	r.writePlain("%s\n", ui.Title("Steam Sync Status"))
	r.writePlain("%s", ui.RenderStatus(info))
	return nil
}

func unlinkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "unlink",
		Usage: "Remove a user's Steam account association",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "Local user id",
				Required: true,
			},
		},
		Action: r.Unlink,
	}
}

// Unlink removes the account association; backlog entries stay in place.
func (r *Runner) Unlink(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")

	app, err := r.connect()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.service.Unlink(userID); err != nil {
		return err
	}

	r.writePlain("%s\n", ui.OK("✓ Steam account unlinked"))
	r.writePlain("%s\n", ui.Help("backlog entries and catalog titles were kept"))
	return nil
}
