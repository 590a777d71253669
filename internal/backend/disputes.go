package backend

import (
	"context"
	"net/http"
	"net/url"
)

// ListDisputes returns one page of disputes.
func (c *Client) ListDisputes(ctx context.Context, token string, params ListParams) (Page[Dispute], error) {
	res := c.Call(ctx, Request{Op: OpListDisputes, Method: http.MethodGet, Path: "/admin/disputes", Query: params.values(), Token: token})
	items, total, err := DecodeList[Dispute](res, "disputes")
	if err != nil {
		return Page[Dispute]{}, err
	}
	return Page[Dispute]{Items: items, Total: total}, nil
}

// DisputeResolution is the staff decision on a dispute.
type DisputeResolution struct {
	Outcome string `json:"outcome"`
	Note    string `json:"resolution"`
}

// ResolveDispute records the decision.
func (c *Client) ResolveDispute(ctx context.Context, token, id string, decision DisputeResolution) (Result, error) {
	res := c.Call(ctx, Request{
		Op:     OpResolveDispute,
		Method: http.MethodPost,
		Path:   "/admin/disputes/" + url.PathEscape(id) + "/resolve",
		Token:  token,
		Body:   decision,
	})
	return res, res.Err()
}
