package backend

import (
	"context"
	"net/http"
	"net/url"
)

func dealPath(id string, suffix string) string {
	return "/admin/deals/" + url.PathEscape(id) + suffix
}

// ListDeals returns one page of deals.
func (c *Client) ListDeals(ctx context.Context, token string, params ListParams) (Page[Deal], error) {
	res := c.Call(ctx, Request{Op: OpListDeals, Method: http.MethodGet, Path: "/admin/deals", Query: params.values(), Token: token})
	items, total, err := DecodeList[Deal](res, "deals")
	if err != nil {
		return Page[Deal]{}, err
	}
	return Page[Deal]{Items: items, Total: total}, nil
}

// GetDeal returns one deal.
func (c *Client) GetDeal(ctx context.Context, token, id string) (Deal, error) {
	res := c.Call(ctx, Request{Op: OpGetDeal, Method: http.MethodGet, Path: dealPath(id, ""), Token: token})
	var deal Deal
	if err := res.Decode(&deal, "deal"); err != nil {
		return Deal{}, err
	}
	return deal, nil
}

// SetDealStatus moves a deal to a new status.
func (c *Client) SetDealStatus(ctx context.Context, token, id, status string) (Result, error) {
	res := c.CallFirst(ctx, Request{Op: OpDealStatus, Token: token, Body: map[string]string{"status": status}}, []Candidate{
		{Method: http.MethodPatch, Path: dealPath(id, "/status")},
		{Method: http.MethodPut, Path: dealPath(id, "/status")},
	})
	return res, res.Err()
}

// AdjustDealAmount overrides the agreed amount.
func (c *Client) AdjustDealAmount(ctx context.Context, token, id string, amount float64, reason string) (Result, error) {
	res := c.Call(ctx, Request{
		Op:     OpDealAmount,
		Method: http.MethodPatch,
		Path:   dealPath(id, "/amount"),
		Token:  token,
		Body:   map[string]any{"amount": amount, "reason": reason},
	})
	return res, res.Err()
}

// DeleteDeal removes a deal.
func (c *Client) DeleteDeal(ctx context.Context, token, id string) (Result, error) {
	res := c.Call(ctx, Request{Op: OpDeleteDeal, Method: http.MethodDelete, Path: dealPath(id, ""), Token: token})
	return res, res.Err()
}
