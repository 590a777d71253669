package backend

import (
	"context"
	"net/http"
)

// ListNotifications returns one page of sent notifications.
func (c *Client) ListNotifications(ctx context.Context, token string, params ListParams) (Page[Notification], error) {
	res := c.Call(ctx, Request{Op: OpListNotices, Method: http.MethodGet, Path: "/admin/notifications", Query: params.values(), Token: token})
	items, total, err := DecodeList[Notification](res, "notifications")
	if err != nil {
		return Page[Notification]{}, err
	}
	return Page[Notification]{Items: items, Total: total}, nil
}

// OutgoingNotification is a message to deliver. An empty UserID with
// Audience "all" broadcasts to every member.
type OutgoingNotification struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Audience string `json:"audience"`
	UserID   string `json:"userId,omitempty"`
}

// SendNotification delivers a notification.
func (c *Client) SendNotification(ctx context.Context, token string, n OutgoingNotification) (Result, error) {
	res := c.Call(ctx, Request{Op: OpSendNotice, Method: http.MethodPost, Path: "/admin/notifications", Token: token, Body: n})
	return res, res.Err()
}
