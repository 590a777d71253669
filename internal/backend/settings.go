package backend

import (
	"context"
	"net/http"
)

// GetSettings returns the platform settings.
func (c *Client) GetSettings(ctx context.Context, token string) (Settings, error) {
	res := c.Call(ctx, Request{Op: OpGetSettings, Method: http.MethodGet, Path: "/admin/settings", Token: token})
	var settings Settings
	if err := res.Decode(&settings, "settings"); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// UpdateSettings replaces the platform settings.
func (c *Client) UpdateSettings(ctx context.Context, token string, settings Settings) (Result, error) {
	res := c.Call(ctx, Request{Op: OpUpdateSettings, Method: http.MethodPatch, Path: "/admin/settings", Token: token, Body: settings})
	return res, res.Err()
}

// Stats returns the dashboard headline numbers.
func (c *Client) Stats(ctx context.Context, token string) (Stats, error) {
	res := c.Call(ctx, Request{Op: OpStats, Method: http.MethodGet, Path: "/admin/stats", Token: token})
	var stats Stats
	if err := res.Decode(&stats, "stats"); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
