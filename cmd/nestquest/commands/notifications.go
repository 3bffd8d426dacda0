package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/nestquest/nestquest-cli/internal/observability"
)

func notificationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "notifications",
		Usage: "read and dismiss notifications",
		Commands: []*cli.Command{
			notificationsListCommand(),
			notificationsReadCommand(),
			notificationsDeleteCommand(),
		},
	}
}

func notificationsListCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "show notifications, newest first",
		Action: notificationsListAction,
	}
}

func notificationsListAction(ctx context.Context, cmd *cli.Command) error {
	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	page, err := application.Client().ListNotifications(ctx)
	if err != nil {
		return err
	}

	for _, n := range page.Results {
		marker := " "
		if !n.IsRead {
			marker = "*"
		}
		fmt.Printf("%s #%-6d %-20s %s\n", marker, n.ID, n.Type, n.Message)
	}
	fmt.Printf("%d notifications total\n", page.Count)
	return nil
}

func notificationsReadCommand() *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "mark a notification as read",
		ArgsUsage: "<notification-id>",
		Action:    notificationsReadAction,
	}
}

func notificationsReadAction(ctx context.Context, cmd *cli.Command) error {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("notification id must be a number: %q", cmd.Args().First())
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	if err := application.Client().MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Notification #%d marked as read\n", id)
	return nil
}

func notificationsDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "remove a notification",
		ArgsUsage: "<notification-id>",
		Action:    notificationsDeleteAction,
	}
}

func notificationsDeleteAction(ctx context.Context, cmd *cli.Command) error {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("notification id must be a number: %q", cmd.Args().First())
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	if err := application.Client().DeleteNotification(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Notification #%d deleted\n", id)
	return nil
}
