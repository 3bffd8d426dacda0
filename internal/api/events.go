package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// EventPlace is a bookable venue listing. PricePerHour is a decimal string,
// like Property.Price.
type EventPlace struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Location       string   `json:"location"`
	Description    string   `json:"description"`
	PricePerHour   string   `json:"price_per_hour"`
	Capacity       int      `json:"capacity"`
	Category       string   `json:"category"`
	IsAvailableNow bool     `json:"is_available_now"`
	ContactName    string   `json:"contact_name"`
	ContactPhone   string   `json:"contact_phone"`
	ContactEmail   string   `json:"contact_email"`
	Status         string   `json:"status"`
	Images         []string `json:"images"`
	CreatedAt      string   `json:"created_at"`
}

// CreateEventPlaceRequest holds the fields for a new venue listing.
type CreateEventPlaceRequest struct {
	Name         string `json:"name"`
	Location     string `json:"location"`
	Description  string `json:"description"`
	PricePerHour string `json:"price_per_hour"`
	Capacity     int    `json:"capacity"`
	Category     string `json:"category"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
}

// CreateEventPlace creates a venue listing and returns the created record.
func (c *Client) CreateEventPlace(ctx context.Context, req CreateEventPlaceRequest) (*EventPlace, error) {
	var out EventPlace
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/event-places/create/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListEventPlacesOptions filters and pages the venue query. Zero values are
// omitted from the request.
type ListEventPlacesOptions struct {
	Page         int
	Category     string
	MinPrice     string
	MaxPrice     string
	AvailableNow bool
	Search       string // free text over name, location, description, contact
}

func (o ListEventPlacesOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Category != "" {
		q.Set("category", o.Category)
	}
	if o.MinPrice != "" {
		q.Set("min_price", o.MinPrice)
	}
	if o.MaxPrice != "" {
		q.Set("max_price", o.MaxPrice)
	}
	if o.AvailableNow {
		q.Set("available_now", "true")
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	return q
}

// ListEventPlaces returns a page of venues matching the options.
func (c *Client) ListEventPlaces(ctx context.Context, opts ListEventPlacesOptions) (*Page[EventPlace], error) {
	var out Page[EventPlace]
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/event-places/", opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetEventPlace returns one venue by id.
func (c *Client) GetEventPlace(ctx context.Context, id int64) (*EventPlace, error) {
	var out EventPlace
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/auth/event-places/%d/", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateEventPlaceRequest carries a partial update; zero fields are left
// untouched server-side.
type UpdateEventPlaceRequest struct {
	Name         string `json:"name,omitempty"`
	Location     string `json:"location,omitempty"`
	Description  string `json:"description,omitempty"`
	PricePerHour string `json:"price_per_hour,omitempty"`
	Capacity     int    `json:"capacity,omitempty"`
	Category     string `json:"category,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
}

// UpdateEventPlace partially updates one of the user's own venues and returns
// the updated record. The backend answers 404 for venues owned by others.
func (c *Client) UpdateEventPlace(ctx context.Context, id int64, req UpdateEventPlaceRequest) (*EventPlace, error) {
	var out EventPlace
	path := fmt.Sprintf("/api/auth/event-places/%d/update/", id)
	if err := c.doJSON(ctx, http.MethodPatch, path, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteEventPlace removes one of the user's own venues.
func (c *Client) DeleteEventPlace(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/auth/event-places/%d/delete/", id)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

// EventBooking is a reservation of a venue for a time slot.
type EventBooking struct {
	ID             int64      `json:"id"`
	EventPlace     EventPlace `json:"event_place"`
	BookingDate    string     `json:"booking_date"`
	StartTime      string     `json:"start_time"`
	EndTime        string     `json:"end_time"`
	NumberOfGuests int        `json:"number_of_guests"`
	EventType      string     `json:"event_type"`
	TotalCost      string     `json:"total_cost"`
	Status         string     `json:"status"` // pending, confirmed, cancelled, completed
	BookedAt       string     `json:"booked_at"`
}

// CreateEventBookingRequest reserves a venue for a date and time slot. Times
// are wall-clock "15:04" strings; the backend rejects slots whose guest count
// exceeds the venue capacity or whose end does not follow the start.
type CreateEventBookingRequest struct {
	EventPlaceID int64
	Date         time.Time
	StartTime    string
	EndTime      string
	Guests       int
	EventType    string
}

// CreateEventBooking books a venue and returns the created booking.
func (c *Client) CreateEventBooking(ctx context.Context, req CreateEventBookingRequest) (*EventBooking, error) {
	body := map[string]any{
		"event_place":      req.EventPlaceID,
		"booking_date":     req.Date.Format("2006-01-02"),
		"start_time":       req.StartTime,
		"end_time":         req.EndTime,
		"number_of_guests": req.Guests,
		"event_type":       req.EventType,
	}

	var out EventBooking
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/event-bookings/create/", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListEventBookings returns a page of the authenticated user's bookings,
// newest first.
func (c *Client) ListEventBookings(ctx context.Context, page int) (*Page[EventBooking], error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}

	var out Page[EventBooking]
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/event-bookings/", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateEventBookingRequest carries a partial booking update. Status changes
// are honored only for the venue owner; other fields only while the booking
// is still open.
type UpdateEventBookingRequest struct {
	Date      time.Time
	StartTime string
	EndTime   string
	Guests    int
	EventType string
	Status    string // confirmed, completed, cancelled (owner only)
}

// UpdateEventBooking partially updates a booking and returns the new state.
func (c *Client) UpdateEventBooking(ctx context.Context, id int64, req UpdateEventBookingRequest) (*EventBooking, error) {
	body := map[string]any{}
	if !req.Date.IsZero() {
		body["booking_date"] = req.Date.Format("2006-01-02")
	}
	if req.StartTime != "" {
		body["start_time"] = req.StartTime
	}
	if req.EndTime != "" {
		body["end_time"] = req.EndTime
	}
	if req.Guests > 0 {
		body["number_of_guests"] = req.Guests
	}
	if req.EventType != "" {
		body["event_type"] = req.EventType
	}
	if req.Status != "" {
		body["status"] = req.Status
	}

	var out EventBooking
	path := fmt.Sprintf("/api/auth/event-bookings/%d/update/", id)
	if err := c.doJSON(ctx, http.MethodPatch, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelEventBooking cancels a booking. Allowed for the booker and the venue
// owner; an already completed or cancelled booking is rejected.
func (c *Client) CancelEventBooking(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/auth/event-bookings/%d/cancel/", id)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}
