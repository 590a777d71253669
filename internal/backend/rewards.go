package backend

import (
	"context"
	"net/http"
	"net/url"
)

// ListRewardTriggers returns every reward trigger.
func (c *Client) ListRewardTriggers(ctx context.Context, token string) ([]RewardTrigger, error) {
	res := c.Call(ctx, Request{Op: OpListRewards, Method: http.MethodGet, Path: "/admin/reward-triggers", Token: token})
	items, _, err := DecodeList[RewardTrigger](res, "triggers", "rewardTriggers")
	return items, err
}

// NewRewardTrigger is the payload for creating a trigger.
type NewRewardTrigger struct {
	Name        string  `json:"name"`
	Event       string  `json:"event"`
	Points      float64 `json:"points"`
	Description string  `json:"description,omitempty"`
	Active      bool    `json:"active"`
}

// CreateRewardTrigger registers a new trigger.
func (c *Client) CreateRewardTrigger(ctx context.Context, token string, in NewRewardTrigger) (RewardTrigger, error) {
	res := c.Call(ctx, Request{Op: OpCreateReward, Method: http.MethodPost, Path: "/admin/reward-triggers", Token: token, Body: in})
	var trigger RewardTrigger
	if err := res.Decode(&trigger, "trigger", "rewardTrigger"); err != nil {
		return RewardTrigger{}, err
	}
	return trigger, nil
}

// SetRewardTriggerActive switches a trigger on or off.
func (c *Client) SetRewardTriggerActive(ctx context.Context, token, id string, active bool) (Result, error) {
	res := c.Call(ctx, Request{
		Op:     OpToggleReward,
		Method: http.MethodPatch,
		Path:   "/admin/reward-triggers/" + url.PathEscape(id),
		Token:  token,
		Body:   map[string]bool{"active": active},
	})
	return res, res.Err()
}
