package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/nestquest/nestquest-cli/internal/api"
	"github.com/nestquest/nestquest-cli/internal/observability"
)

func propertyCommand() *cli.Command {
	return &cli.Command{
		Name:  "property",
		Usage: "create, browse and save listings",
		Commands: []*cli.Command{
			propertyCreateCommand(),
			propertyListCommand(),
			propertySearchCommand(),
			propertyShowCommand(),
			propertyUpdateCommand(),
			propertyStatusCommand(),
			propertyDeleteCommand(),
			propertySaveCommand(),
			propertySavedCommand(),
		},
	}
}

func propertyCreateCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "publish a new listing",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "listing title", Required: true},
			&cli.StringFlag{Name: "location", Usage: "city or area", Required: true},
			&cli.StringFlag{Name: "price", Usage: "price as a decimal string", Required: true},
			&cli.StringFlag{Name: "purpose", Usage: "Buy or Rent", Value: "Buy"},
			&cli.StringFlag{Name: "furnished", Usage: "Furnished or Unfurnished", Value: "Unfurnished"},
			&cli.StringFlag{Name: "property-type", Usage: "Flat, Villa or Apartment", Value: "Flat"},
			&cli.IntFlag{Name: "bedrooms", Usage: "number of bedrooms", Value: 1},
			&cli.IntFlag{Name: "bathrooms", Usage: "number of bathrooms", Value: 1},
			&cli.IntFlag{Name: "area", Usage: "area in square feet", Required: true},
			&cli.StringFlag{Name: "description", Usage: "listing description"},
			&cli.StringFlag{Name: "contact-name", Usage: "contact person"},
			&cli.StringFlag{Name: "contact-phone", Usage: "contact phone"},
			&cli.StringFlag{Name: "contact-email", Usage: "contact email"},
			&cli.StringSliceFlag{Name: "image", Usage: "image file to attach (repeatable)"},
		},
		Action: propertyCreateAction,
	}
}

func propertyCreateAction(ctx context.Context, cmd *cli.Command) error {
	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	var images []api.ImageFile
	var closers []*os.File
	defer func() {
		for _, f := range closers {
			_ = f.Close()
		}
	}()
	for _, path := range cmd.StringSlice("image") {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening image %s: %w", path, err)
		}
		closers = append(closers, f)
		images = append(images, api.ImageFile{Name: filepath.Base(path), Reader: f})
	}

	property, err := application.Client().CreateProperty(ctx, api.CreatePropertyRequest{
		Title:        cmd.String("title"),
		Location:     cmd.String("location"),
		Price:        cmd.String("price"),
		Purpose:      cmd.String("purpose"),
		Furnished:    cmd.String("furnished"),
		PropertyType: cmd.String("property-type"),
		Bedrooms:     int(cmd.Int("bedrooms")),
		Bathrooms:    int(cmd.Int("bathrooms")),
		Area:         int(cmd.Int("area")),
		Description:  cmd.String("description"),
		ContactName:  cmd.String("contact-name"),
		ContactPhone: cmd.String("contact-phone"),
		ContactEmail: cmd.String("contact-email"),
		Images:       images,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created listing #%d: %s (%s)\n", property.ID, property.Title, property.Status)
	return nil
}

// listingFilterFlags are shared by list and search.
func listingFilterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "page", Usage: "result page", Value: 1},
		&cli.StringFlag{Name: "location", Usage: "filter by city or area"},
		&cli.StringFlag{Name: "purpose", Usage: "filter by Buy or Rent"},
		&cli.StringFlag{Name: "property-type", Usage: "filter by Flat, Villa or Apartment"},
		&cli.StringFlag{Name: "furnished", Usage: "filter by Furnished or Unfurnished"},
		&cli.IntFlag{Name: "bedrooms", Usage: "minimum bedrooms"},
		&cli.StringFlag{Name: "max-price", Usage: "maximum price"},
	}
}

func listingOptions(cmd *cli.Command) api.ListPropertiesOptions {
	return api.ListPropertiesOptions{
		Page:         int(cmd.Int("page")),
		Location:     cmd.String("location"),
		Purpose:      cmd.String("purpose"),
		PropertyType: cmd.String("property-type"),
		Furnished:    cmd.String("furnished"),
		MinBedrooms:  int(cmd.Int("bedrooms")),
		MaxPrice:     cmd.String("max-price"),
	}
}

func printListings(page *api.Page[api.Property]) {
	for _, p := range page.Results {
		fmt.Printf("#%-6d %-10s %-12s %s — %s (%dbd/%dba, %d sqft)\n",
			p.ID, p.Purpose, p.Price, p.Title, p.Location, p.Bedrooms, p.Bathrooms, p.Area)
	}
	fmt.Printf("%d listings total\n", page.Count)
}

func propertyListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "browse listings",
		Flags: append(listingFilterFlags(),
			&cli.BoolFlag{Name: "mine", Usage: "only my listings"},
		),
		Action: propertyListAction,
	}
}

func propertyListAction(ctx context.Context, cmd *cli.Command) error {
	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	opts := listingOptions(cmd)
	opts.Mine = cmd.Bool("mine")

	page, err := application.Client().ListProperties(ctx, opts)
	if err != nil {
		return err
	}

	printListings(page)
	return nil
}

func propertySearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "search listings by text",
		ArgsUsage: "<query>",
		Flags:     listingFilterFlags(),
		Action:    propertySearchAction,
	}
}

func propertySearchAction(ctx context.Context, cmd *cli.Command) error {
	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("search query is required")
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	page, err := application.Client().SearchProperties(ctx, query, listingOptions(cmd))
	if err != nil {
		return err
	}

	printListings(page)
	return nil
}

func propertyShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "show one listing in full",
		ArgsUsage: "<listing-id>",
		Action:    propertyShowAction,
	}
}

func propertyShowAction(ctx context.Context, cmd *cli.Command) error {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("listing id must be a number: %q", cmd.Args().First())
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	p, err := application.Client().GetProperty(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("#%d %s (%s)\n", p.ID, p.Title, p.Status)
	fmt.Printf("  %s — %s, %s\n", p.Purpose, p.Location, p.Price)
	fmt.Printf("  %s, %s, %d bedrooms, %d bathrooms, %d sqft\n",
		p.PropertyType, p.Furnished, p.Bedrooms, p.Bathrooms, p.Area)
	if p.Description != "" {
		fmt.Printf("  %s\n", p.Description)
	}
	if p.ContactName != "" || p.ContactPhone != "" || p.ContactEmail != "" {
		fmt.Printf("  contact: %s %s %s\n", p.ContactName, p.ContactPhone, p.ContactEmail)
	}
	for _, image := range p.Images {
		fmt.Printf("  image: %s\n", image)
	}
	return nil
}

func propertyUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "edit one of my listings",
		ArgsUsage: "<listing-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "new title"},
			&cli.StringFlag{Name: "location", Usage: "new city or area"},
			&cli.StringFlag{Name: "price", Usage: "new price as a decimal string"},
			&cli.StringFlag{Name: "purpose", Usage: "Buy or Rent"},
			&cli.StringFlag{Name: "furnished", Usage: "Furnished or Unfurnished"},
			&cli.StringFlag{Name: "property-type", Usage: "Flat, Villa or Apartment"},
			&cli.IntFlag{Name: "bedrooms", Usage: "number of bedrooms"},
			&cli.IntFlag{Name: "bathrooms", Usage: "number of bathrooms"},
			&cli.IntFlag{Name: "area", Usage: "area in square feet"},
			&cli.StringFlag{Name: "description", Usage: "new description"},
			&cli.StringFlag{Name: "contact-name", Usage: "contact person"},
			&cli.StringFlag{Name: "contact-phone", Usage: "contact phone"},
			&cli.StringFlag{Name: "contact-email", Usage: "contact email"},
		},
		Action: propertyUpdateAction,
	}
}

func propertyUpdateAction(ctx context.Context, cmd *cli.Command) error {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("listing id must be a number: %q", cmd.Args().First())
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	property, err := application.Client().UpdateProperty(ctx, id, api.UpdatePropertyRequest{
		Title:        cmd.String("title"),
		Location:     cmd.String("location"),
		Price:        cmd.String("price"),
		Purpose:      cmd.String("purpose"),
		Furnished:    cmd.String("furnished"),
		PropertyType: cmd.String("property-type"),
		Bedrooms:     int(cmd.Int("bedrooms")),
		Bathrooms:    int(cmd.Int("bathrooms")),
		Area:         int(cmd.Int("area")),
		Description:  cmd.String("description"),
		ContactName:  cmd.String("contact-name"),
		ContactPhone: cmd.String("contact-phone"),
		ContactEmail: cmd.String("contact-email"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Updated listing #%d: %s (%s)\n", property.ID, property.Title, property.Status)
	return nil
}

func propertyStatusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "set a listing's status",
		ArgsUsage: "<listing-id> <Active|Pending|Inactive>",
		Action:    propertyStatusAction,
	}
}

func propertyStatusAction(ctx context.Context, cmd *cli.Command) error {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("listing id must be a number: %q", cmd.Args().First())
	}
	status := cmd.Args().Get(1)
	if status == "" {
		return fmt.Errorf("status is required: Active, Pending or Inactive")
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	message, err := application.Client().UpdatePropertyStatus(ctx, id, status)
	if err != nil {
		return err
	}

	fmt.Println(message)
	return nil
}

func propertyDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "remove one of my listings",
		ArgsUsage: "<listing-id>",
		Action:    propertyDeleteAction,
	}
}

func propertyDeleteAction(ctx context.Context, cmd *cli.Command) error {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("listing id must be a number: %q", cmd.Args().First())
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	if err := application.Client().DeleteProperty(ctx, id); err != nil {
		return err
	}

	fmt.Printf("Deleted listing #%d\n", id)
	return nil
}

func propertySaveCommand() *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "toggle the saved state of a listing",
		ArgsUsage: "<listing-id>",
		Action:    propertySaveAction,
	}
}

func propertySaveAction(ctx context.Context, cmd *cli.Command) error {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("listing id must be a number: %q", cmd.Args().First())
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	message, err := application.Client().ToggleSaved(ctx, id)
	if err != nil {
		return err
	}

	fmt.Println(message)
	return nil
}

func propertySavedCommand() *cli.Command {
	return &cli.Command{
		Name:  "saved",
		Usage: "show saved listings",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "page", Usage: "result page", Value: 1},
		},
		Action: propertySavedAction,
	}
}

func propertySavedAction(ctx context.Context, cmd *cli.Command) error {
	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	page, err := application.Client().ListSaved(ctx, int(cmd.Int("page")))
	if err != nil {
		return err
	}

	for _, saved := range page.Results {
		p := saved.Property
		fmt.Printf("#%-6d %-12s %s — %s (saved %s)\n", p.ID, p.Price, p.Title, p.Location, saved.SavedAt)
	}
	fmt.Printf("%d saved listings total\n", page.Count)
	return nil
}
