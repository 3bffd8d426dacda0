package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

// Property is a listing as the backend serializes it. Price is a decimal
// string per the backend's serialization; the client treats it as opaque.
type Property struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Location     string   `json:"location"`
	Price        string   `json:"price"`
	Purpose      string   `json:"type"` // Buy or Rent
	Furnished    string   `json:"furnished"`
	PropertyType string   `json:"property_type"` // Flat, Villa, Apartment
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    int      `json:"bathrooms"`
	Area         int      `json:"area"`
	Description  string   `json:"description"`
	ContactName  string   `json:"contact_name"`
	ContactPhone string   `json:"contact_phone"`
	ContactEmail string   `json:"contact_email"`
	Status       string   `json:"status"`
	Images       []string `json:"images"`
	IsSaved      bool     `json:"is_saved"`
	CreatedAt    string   `json:"created_at"`
}

// Page is the backend's page-number pagination envelope.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// ImageFile is one image attached to a new listing.
type ImageFile struct {
	Name   string
	Reader io.Reader
}

// CreatePropertyRequest holds the fields and images for a new listing.
// Images are streamed as a multipart upload.
type CreatePropertyRequest struct {
	Title        string
	Location     string
	Price        string
	Purpose      string // Buy or Rent
	Furnished    string
	PropertyType string
	Bedrooms     int
	Bathrooms    int
	Area         int
	Description  string
	ContactName  string
	ContactPhone string
	ContactEmail string
	Images       []ImageFile
}

// CreateProperty creates a listing with its images and returns the created
// record.
func (c *Client) CreateProperty(ctx context.Context, req CreatePropertyRequest) (*Property, error) {
	body, contentType, err := encodePropertyForm(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/auth/properties/create/", nil), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	var out struct {
		Property Property `json:"property"`
	}
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out.Property, nil
}

// encodePropertyForm builds the multipart body for property creation. The
// whole form is buffered; listing images are small enough that streaming
// through a pipe is not worth the extra failure modes.
func encodePropertyForm(req CreatePropertyRequest) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	fields := map[string]string{
		"title":         req.Title,
		"location":      req.Location,
		"price":         req.Price,
		"type":          req.Purpose,
		"furnished":     req.Furnished,
		"property_type": req.PropertyType,
		"bedrooms":      strconv.Itoa(req.Bedrooms),
		"bathrooms":     strconv.Itoa(req.Bathrooms),
		"area":          strconv.Itoa(req.Area),
		"description":   req.Description,
		"contact_name":  req.ContactName,
		"contact_phone": req.ContactPhone,
		"contact_email": req.ContactEmail,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("writing form field %s: %w", name, err)
		}
	}

	for _, image := range req.Images {
		part, err := writer.CreateFormFile("images", image.Name)
		if err != nil {
			return nil, "", fmt.Errorf("creating form file %s: %w", image.Name, err)
		}
		if _, err := io.Copy(part, image.Reader); err != nil {
			return nil, "", fmt.Errorf("reading image %s: %w", image.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalizing multipart body: %w", err)
	}
	return buf, writer.FormDataContentType(), nil
}

// ListPropertiesOptions filters and pages the listing query. Zero values are
// omitted from the request.
type ListPropertiesOptions struct {
	Page         int
	Location     string
	Purpose      string
	PropertyType string
	Furnished    string
	MinBedrooms  int
	MaxPrice     string
	Mine         bool // only the authenticated user's listings
}

func (o ListPropertiesOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Location != "" {
		q.Set("location", o.Location)
	}
	if o.Purpose != "" {
		q.Set("type", o.Purpose)
	}
	if o.PropertyType != "" {
		q.Set("property_type", o.PropertyType)
	}
	if o.Furnished != "" {
		q.Set("furnished", o.Furnished)
	}
	if o.MinBedrooms > 0 {
		q.Set("bedrooms", strconv.Itoa(o.MinBedrooms))
	}
	if o.MaxPrice != "" {
		q.Set("max_price", o.MaxPrice)
	}
	return q
}

// ListProperties returns a page of listings matching the options.
func (c *Client) ListProperties(ctx context.Context, opts ListPropertiesOptions) (*Page[Property], error) {
	path := "/api/auth/properties/"
	if opts.Mine {
		path = "/api/auth/properties/mine/"
	}

	var out Page[Property]
	if err := c.doJSON(ctx, http.MethodGet, path, opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchProperties runs a free-text search combined with the given filters.
func (c *Client) SearchProperties(ctx context.Context, text string, opts ListPropertiesOptions) (*Page[Property], error) {
	q := opts.query()
	q.Set("q", text)

	var out Page[Property]
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/properties/search/", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProperty returns one listing by id.
func (c *Client) GetProperty(ctx context.Context, id int64) (*Property, error) {
	var out Property
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/auth/properties/%d/", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleSaved flips the saved state of a listing for the authenticated user
// and returns the backend's confirmation message ("Property saved" or
// "Property unsaved").
func (c *Client) ToggleSaved(ctx context.Context, id int64) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	path := fmt.Sprintf("/api/auth/properties/%d/toggle-save/", id)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// UpdatePropertyRequest carries a partial update; zero fields are left
// untouched server-side.
type UpdatePropertyRequest struct {
	Title        string `json:"title,omitempty"`
	Location     string `json:"location,omitempty"`
	Price        string `json:"price,omitempty"`
	Purpose      string `json:"type,omitempty"`
	Furnished    string `json:"furnished,omitempty"`
	PropertyType string `json:"property_type,omitempty"`
	Bedrooms     int    `json:"bedrooms,omitempty"`
	Bathrooms    int    `json:"bathrooms,omitempty"`
	Area         int    `json:"area,omitempty"`
	Description  string `json:"description,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
}

// UpdateProperty partially updates one of the user's own listings and returns
// the updated record. The backend answers 404 for listings owned by others.
func (c *Client) UpdateProperty(ctx context.Context, id int64, req UpdatePropertyRequest) (*Property, error) {
	var out struct {
		Message  string   `json:"message"`
		Property Property `json:"property"`
	}
	path := fmt.Sprintf("/api/auth/properties/%d/update/", id)
	if err := c.doJSON(ctx, http.MethodPatch, path, nil, req, &out); err != nil {
		return nil, err
	}
	return &out.Property, nil
}

// UpdatePropertyStatus sets a listing's status to Active, Pending or Inactive
// and returns the backend's confirmation message. Other values are rejected
// with a 400.
func (c *Client) UpdatePropertyStatus(ctx context.Context, id int64, status string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	path := fmt.Sprintf("/api/auth/properties/%d/status/", id)
	body := map[string]string{"status": status}
	if err := c.doJSON(ctx, http.MethodPatch, path, nil, body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// DeleteProperty removes one of the user's own listings.
func (c *Client) DeleteProperty(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/auth/properties/%d/delete/", id)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

// SavedProperty is a saved-list entry.
type SavedProperty struct {
	ID       int64    `json:"id"`
	Property Property `json:"property"`
	SavedAt  string   `json:"saved_at"`
}

// ListSaved returns a page of the authenticated user's saved listings.
func (c *Client) ListSaved(ctx context.Context, page int) (*Page[SavedProperty], error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}

	var out Page[SavedProperty]
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/properties/saved/", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
