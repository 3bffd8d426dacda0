package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/nestquest/nestquest-cli/internal/observability"
)

func meetingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "meetings",
		Usage: "request and review listing viewings",
		Commands: []*cli.Command{
			meetingsRequestCommand(),
			meetingsListCommand(),
		},
	}
}

func meetingsRequestCommand() *cli.Command {
	return &cli.Command{
		Name:      "request",
		Usage:     "propose a viewing time for a listing",
		ArgsUsage: "<listing-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "time", Usage: "proposed time, RFC 3339 (e.g. 2026-09-01T15:00:00Z)", Required: true},
			&cli.StringFlag{Name: "purpose", Usage: "what the viewing is for", Value: "Viewing"},
		},
		Action: meetingsRequestAction,
	}
}

func meetingsRequestAction(ctx context.Context, cmd *cli.Command) error {
	propertyID, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("listing id must be a number: %q", cmd.Args().First())
	}
	proposed, err := time.Parse(time.RFC3339, cmd.String("time"))
	if err != nil {
		return fmt.Errorf("parsing --time: %w", err)
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	meeting, err := application.Client().CreateMeetingRequest(ctx, propertyID, proposed, cmd.String("purpose"))
	if err != nil {
		return err
	}

	fmt.Printf("Requested viewing #%d for %q at %s (%s)\n",
		meeting.ID, meeting.Property.Title, meeting.ProposedTimeSlot, meeting.Status)
	return nil
}

func meetingsListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "show viewing requests",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "owner", Usage: "requests against my listings instead of my own requests"},
		},
		Action: meetingsListAction,
	}
}

func meetingsListAction(ctx context.Context, cmd *cli.Command) error {
	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	page, err := application.Client().ListMeetingRequests(ctx, cmd.Bool("owner"))
	if err != nil {
		return err
	}

	for _, m := range page.Results {
		fmt.Printf("#%-6d %-10s %s — %s at %s\n",
			m.ID, m.Status, m.Property.Title, m.MeetingPurpose, m.ProposedTimeSlot)
	}
	fmt.Printf("%d viewing requests total\n", page.Count)
	return nil
}
