package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/playlog/steamsync/internal/shared"
	"github.com/playlog/steamsync/internal/ui"
	"github.com/urfave/cli/v3"
)

func linkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "link",
		Usage:     "Link a user to a Steam profile and import their library",
		ArgsUsage: "<profile>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "Local user id to link",
				Required: true,
			},
		},
		Action: r.Link,
	}
}

// Link resolves the profile reference, stores the association, and runs the
// initial import before returning.
func (r *Runner) Link(ctx context.Context, cmd *cli.Command) error {
	profile := cmd.Args().First()
	if profile == "" {
		return fmt.Errorf("%w: profile URL, vanity name, or SteamID64 required", shared.ErrMissingArgument)
	}
	userID := cmd.String("user")

	app, err := r.connect()
	if err != nil {
		return err
	}
	defer app.Close()

	r.logger.Info("linking steam profile", "user_id", userID, "profile", profile)

	result, err := app.service.Link(ctx, userID, profile)
	if err != nil && !errors.Is(err, shared.ErrPartialImport) {
		return err
	}

	r.writePlain("%s\n", ui.OK(fmt.Sprintf("✓ Linked %s to Steam ID %s", userID, result.Account.SteamID)))
	run := result.Run
	r.writePlain("Imported %d titles (%d new, %d updated)\n", run.TitlesSeen, run.TitlesAdded, run.TitlesUpdated)
	if err != nil {
		r.writePlain("%s\n", ui.Warn(fmt.Sprintf("partial import: %s", run.ErrorDetail)))
	}
	return nil
}
