package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/nestquest/nestquest-cli/internal/api"
	"github.com/nestquest/nestquest-cli/internal/observability"
)

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "list venues and book them for events",
		Commands: []*cli.Command{
			eventsCreateCommand(),
			eventsListCommand(),
			eventsShowCommand(),
			eventsUpdateCommand(),
			eventsDeleteCommand(),
			eventsBookCommand(),
			eventsBookingsCommand(),
			eventsRescheduleCommand(),
			eventsCancelCommand(),
		},
	}
}

func eventsCreateCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "publish a new venue",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "venue name", Required: true},
			&cli.StringFlag{Name: "location", Usage: "city or area", Required: true},
			&cli.StringFlag{Name: "price-per-hour", Usage: "hourly rate as a decimal string", Required: true},
			&cli.IntFlag{Name: "capacity", Usage: "maximum number of guests", Required: true},
			&cli.StringFlag{Name: "category", Usage: "venue category (e.g. Wedding Hall, Conference Room)", Value: "Banquet Hall"},
			&cli.StringFlag{Name: "description", Usage: "venue description"},
			&cli.StringFlag{Name: "contact-name", Usage: "contact person"},
			&cli.StringFlag{Name: "contact-phone", Usage: "contact phone"},
			&cli.StringFlag{Name: "contact-email", Usage: "contact email"},
		},
		Action: eventsCreateAction,
	}
}

func eventsCreateAction(ctx context.Context, cmd *cli.Command) error {
	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	place, err := application.Client().CreateEventPlace(ctx, api.CreateEventPlaceRequest{
		Name:         cmd.String("name"),
		Location:     cmd.String("location"),
		Description:  cmd.String("description"),
		PricePerHour: cmd.String("price-per-hour"),
		Capacity:     int(cmd.Int("capacity")),
		Category:     cmd.String("category"),
		ContactName:  cmd.String("contact-name"),
		ContactPhone: cmd.String("contact-phone"),
		ContactEmail: cmd.String("contact-email"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created venue #%d: %s (%s)\n", place.ID, place.Name, place.Status)
	return nil
}

func eventsListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "browse venues",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "page", Usage: "result page", Value: 1},
			&cli.StringFlag{Name: "category", Usage: "filter by venue category"},
			&cli.StringFlag{Name: "min-price", Usage: "minimum hourly rate"},
			&cli.StringFlag{Name: "max-price", Usage: "maximum hourly rate"},
			&cli.BoolFlag{Name: "available", Usage: "only venues available right now"},
			&cli.StringFlag{Name: "search", Usage: "free-text filter over name, location and description"},
		},
		Action: eventsListAction,
	}
}

func eventsListAction(ctx context.Context, cmd *cli.Command) error {
	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	page, err := application.Client().ListEventPlaces(ctx, api.ListEventPlacesOptions{
		Page:         int(cmd.Int("page")),
		Category:     cmd.String("category"),
		MinPrice:     cmd.String("min-price"),
		MaxPrice:     cmd.String("max-price"),
		AvailableNow: cmd.Bool("available"),
		Search:       cmd.String("search"),
	})
	if err != nil {
		return err
	}

	for _, v := range page.Results {
		fmt.Printf("#%-6d %-18s %-10s/hr %s — %s (up to %d guests)\n",
			v.ID, v.Category, v.PricePerHour, v.Name, v.Location, v.Capacity)
	}
	fmt.Printf("%d venues total\n", page.Count)
	return nil
}

func eventsShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "show one venue in full",
		ArgsUsage: "<venue-id>",
		Action:    eventsShowAction,
	}
}

func eventsShowAction(ctx context.Context, cmd *cli.Command) error {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("venue id must be a number: %q", cmd.Args().First())
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	v, err := application.Client().GetEventPlace(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("#%d %s (%s)\n", v.ID, v.Name, v.Status)
	fmt.Printf("  %s — %s, %s/hr, up to %d guests\n", v.Category, v.Location, v.PricePerHour, v.Capacity)
	if v.IsAvailableNow {
		fmt.Println("  available now")
	}
	if v.Description != "" {
		fmt.Printf("  %s\n", v.Description)
	}
	if v.ContactName != "" || v.ContactPhone != "" || v.ContactEmail != "" {
		fmt.Printf("  contact: %s %s %s\n", v.ContactName, v.ContactPhone, v.ContactEmail)
	}
	for _, image := range v.Images {
		fmt.Printf("  image: %s\n", image)
	}
	return nil
}

func eventsUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "edit one of my venues",
		ArgsUsage: "<venue-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "new venue name"},
			&cli.StringFlag{Name: "location", Usage: "new city or area"},
			&cli.StringFlag{Name: "price-per-hour", Usage: "new hourly rate"},
			&cli.IntFlag{Name: "capacity", Usage: "new guest capacity"},
			&cli.StringFlag{Name: "category", Usage: "new category"},
			&cli.StringFlag{Name: "description", Usage: "new description"},
			&cli.StringFlag{Name: "contact-name", Usage: "contact person"},
			&cli.StringFlag{Name: "contact-phone", Usage: "contact phone"},
			&cli.StringFlag{Name: "contact-email", Usage: "contact email"},
		},
		Action: eventsUpdateAction,
	}
}

func eventsUpdateAction(ctx context.Context, cmd *cli.Command) error {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("venue id must be a number: %q", cmd.Args().First())
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	place, err := application.Client().UpdateEventPlace(ctx, id, api.UpdateEventPlaceRequest{
		Name:         cmd.String("name"),
		Location:     cmd.String("location"),
		Description:  cmd.String("description"),
		PricePerHour: cmd.String("price-per-hour"),
		Capacity:     int(cmd.Int("capacity")),
		Category:     cmd.String("category"),
		ContactName:  cmd.String("contact-name"),
		ContactPhone: cmd.String("contact-phone"),
		ContactEmail: cmd.String("contact-email"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Updated venue #%d: %s (%s)\n", place.ID, place.Name, place.Status)
	return nil
}

func eventsDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "remove one of my venues",
		ArgsUsage: "<venue-id>",
		Action:    eventsDeleteAction,
	}
}

func eventsDeleteAction(ctx context.Context, cmd *cli.Command) error {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("venue id must be a number: %q", cmd.Args().First())
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	if err := application.Client().DeleteEventPlace(ctx, id); err != nil {
		return err
	}

	fmt.Printf("Deleted venue #%d\n", id)
	return nil
}

func eventsBookCommand() *cli.Command {
	return &cli.Command{
		Name:      "book",
		Usage:     "reserve a venue for a date and time slot",
		ArgsUsage: "<venue-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Usage: "booking date, YYYY-MM-DD", Required: true},
			&cli.StringFlag{Name: "from", Usage: "start time, 24h HH:MM", Required: true},
			&cli.StringFlag{Name: "to", Usage: "end time, 24h HH:MM", Required: true},
			&cli.IntFlag{Name: "guests", Usage: "number of guests", Required: true},
			&cli.StringFlag{Name: "event-type", Usage: "what the event is (e.g. Wedding, Birthday)", Value: "Gathering"},
		},
		Action: eventsBookAction,
	}
}

func eventsBookAction(ctx context.Context, cmd *cli.Command) error {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("venue id must be a number: %q", cmd.Args().First())
	}
	date, err := time.Parse("2006-01-02", cmd.String("date"))
	if err != nil {
		return fmt.Errorf("parsing --date: %w", err)
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	booking, err := application.Client().CreateEventBooking(ctx, api.CreateEventBookingRequest{
		EventPlaceID: id,
		Date:         date,
		StartTime:    cmd.String("from"),
		EndTime:      cmd.String("to"),
		Guests:       int(cmd.Int("guests")),
		EventType:    cmd.String("event-type"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Booked %q on %s %s-%s for %d guests — total %s (%s)\n",
		booking.EventPlace.Name, booking.BookingDate, booking.StartTime, booking.EndTime,
		booking.NumberOfGuests, booking.TotalCost, booking.Status)
	return nil
}

func eventsBookingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "bookings",
		Usage: "show my venue bookings",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "page", Usage: "result page", Value: 1},
		},
		Action: eventsBookingsAction,
	}
}

func eventsBookingsAction(ctx context.Context, cmd *cli.Command) error {
	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	page, err := application.Client().ListEventBookings(ctx, int(cmd.Int("page")))
	if err != nil {
		return err
	}

	for _, b := range page.Results {
		fmt.Printf("#%-6d %-10s %s — %s %s-%s, %d guests, %s\n",
			b.ID, b.Status, b.EventPlace.Name, b.BookingDate, b.StartTime, b.EndTime,
			b.NumberOfGuests, b.TotalCost)
	}
	fmt.Printf("%d bookings total\n", page.Count)
	return nil
}

func eventsRescheduleCommand() *cli.Command {
	return &cli.Command{
		Name:      "reschedule",
		Usage:     "change a booking's slot, guest count or status",
		ArgsUsage: "<booking-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Usage: "new booking date, YYYY-MM-DD"},
			&cli.StringFlag{Name: "from", Usage: "new start time, 24h HH:MM"},
			&cli.StringFlag{Name: "to", Usage: "new end time, 24h HH:MM"},
			&cli.IntFlag{Name: "guests", Usage: "new number of guests"},
			&cli.StringFlag{Name: "event-type", Usage: "new event type"},
			&cli.StringFlag{Name: "status", Usage: "confirmed, completed or cancelled (venue owner only)"},
		},
		Action: eventsRescheduleAction,
	}
}

func eventsRescheduleAction(ctx context.Context, cmd *cli.Command) error {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("booking id must be a number: %q", cmd.Args().First())
	}

	req := api.UpdateEventBookingRequest{
		StartTime: cmd.String("from"),
		EndTime:   cmd.String("to"),
		Guests:    int(cmd.Int("guests")),
		EventType: cmd.String("event-type"),
		Status:    cmd.String("status"),
	}
	if raw := cmd.String("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("parsing --date: %w", err)
		}
		req.Date = date
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	booking, err := application.Client().UpdateEventBooking(ctx, id, req)
	if err != nil {
		return err
	}

	fmt.Printf("Booking #%d: %s %s-%s, %d guests (%s)\n",
		booking.ID, booking.BookingDate, booking.StartTime, booking.EndTime,
		booking.NumberOfGuests, booking.Status)
	return nil
}

func eventsCancelCommand() *cli.Command {
	return &cli.Command{
		Name:      "cancel",
		Usage:     "cancel a venue booking",
		ArgsUsage: "<booking-id>",
		Action:    eventsCancelAction,
	}
}

func eventsCancelAction(ctx context.Context, cmd *cli.Command) error {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("booking id must be a number: %q", cmd.Args().First())
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	if err := application.Client().CancelEventBooking(ctx, id); err != nil {
		return err
	}

	fmt.Printf("Cancelled booking #%d\n", id)
	return nil
}
