package main

import (
	"context"
	"fmt"

	"github.com/playlog/steamsync/internal/formatter"
	"github.com/playlog/steamsync/internal/models"
	"github.com/playlog/steamsync/internal/ui"
	"github.com/urfave/cli/v3"
)

func backlogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "backlog",
		Usage: "Show or export a user's ranked backlog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "Local user id",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: csv, markdown, or text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path for the export",
			},
		},
		Action: r.Backlog,
	}
}

// Backlog prints the user's backlog ordered by rank, or exports it when a
// format is given.
func (r *Runner) Backlog(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	format := cmd.String("format")
	output := cmd.String("output")

	app, err := r.connect()
	if err != nil {
		return err
	}
	defer app.Close()

	export, err := r.buildExport(app, userID)
	if err != nil {
		return err
	}

	switch format {
	case "":
		if len(export.Rows) == 0 {
			r.writePlain("%s\n", ui.Help("backlog is empty"))
			return nil
		}
		r.writePlain("%s\n", ui.Title(fmt.Sprintf("Backlog (%d titles)", len(export.Rows))))
		for _, row := range export.Rows {
			suffix := ""
			if row.Source == models.SourceManual {
				suffix = "  " + ui.Help("(manual)")
			}
			r.writePlain("%3d. %s  [%s]%s\n", row.Rank, row.Name, formatter.FormatPlaytime(row.PlaytimeMinutes), suffix)
		}
		return nil
	case "csv":
		path, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("%s\n", ui.OK(fmt.Sprintf("✓ Backlog exported to %s", path)))
		return nil
	case "markdown", "md":
		coverURL := ""
		if len(export.Rows) > 0 {
			coverURL = export.Rows[0].CoverURL
		}
		result, err := formatter.WriteMarkdownExport(export, output, coverURL)
		if err != nil {
			return err
		}
		r.writePlain("%s\n", ui.OK(fmt.Sprintf("✓ Backlog exported to %s", result.Directory)))
		return nil
	case "text", "txt":
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("%s\n", ui.OK(fmt.Sprintf("✓ Backlog exported to %s", path)))
		return nil
	default:
		return fmt.Errorf("unknown export format: %q", format)
	}
}

// buildExport joins backlog entries with their catalog titles.
func (r *Runner) buildExport(app *app, userID string) (*formatter.BacklogExport, error) {
	entries, err := app.backlog.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	export := &formatter.BacklogExport{UserID: userID, Rows: make([]formatter.Row, 0, len(entries))}
	for _, entry := range entries {
		title, err := app.catalog.Get(entry.TitleID)
		if err != nil {
			return nil, err
		}
		export.Rows = append(export.Rows, formatter.Row{
			Rank:            entry.Rank,
			Name:            title.Name,
			AppID:           title.AppID,
			PlaytimeMinutes: entry.PlaytimeMinutes,
			Source:          entry.Source,
			CoverURL:        title.CoverURL,
		})
	}
	return export, nil
}
