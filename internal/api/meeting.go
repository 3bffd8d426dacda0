package api

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// MeetingRequest is a viewing request for a listing.
type MeetingRequest struct {
	ID               int64    `json:"id"`
	Property         Property `json:"property"`
	ProposedTimeSlot string   `json:"proposed_time_slot"`
	MeetingPurpose   string   `json:"meeting_purpose"`
	Status           string   `json:"status"` // pending, accepted, completed, rejected
	RequestedAt      string   `json:"requested_at"`
}

// CreateMeetingRequest proposes a viewing time for a listing. The backend
// rejects requests against the user's own listings.
func (c *Client) CreateMeetingRequest(ctx context.Context, propertyID int64, proposedTime time.Time, purpose string) (*MeetingRequest, error) {
	body := map[string]string{
		"proposed_time_slot": proposedTime.Format(time.RFC3339),
		"meeting_purpose":    purpose,
	}

	var out struct {
		Meeting MeetingRequest `json:"meeting"`
	}
	path := fmt.Sprintf("/api/auth/properties/%d/meeting-request/", propertyID)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Meeting, nil
}

// ListMeetingRequests returns the meeting requests the authenticated user
// created. With asOwner, it instead returns the requests made against the
// user's own listings.
func (c *Client) ListMeetingRequests(ctx context.Context, asOwner bool) (*Page[MeetingRequest], error) {
	path := "/api/auth/meetings/mine/"
	if asOwner {
		path = "/api/auth/meetings/owner/"
	}

	var out Page[MeetingRequest]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
