package api

import (
	"context"
	"fmt"
	"net/http"
)

// Notification is one entry in the user's notification feed.
type Notification struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	Type      string `json:"notification_type"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// ListNotifications returns a page of the authenticated user's notifications,
// newest first.
func (c *Client) ListNotifications(ctx context.Context) (*Page[Notification], error) {
	var out Page[Notification]
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/notifications/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/auth/notifications/%d/read/", id)
	return c.doJSON(ctx, http.MethodPatch, path, nil, nil, nil)
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/auth/notifications/%d/", id)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}
