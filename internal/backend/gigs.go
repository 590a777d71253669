package backend

import (
	"context"
	"net/http"
	"net/url"
)

// ListGigs returns one page of gigs.
func (c *Client) ListGigs(ctx context.Context, token string, params ListParams) (Page[Gig], error) {
	res := c.Call(ctx, Request{Op: OpListGigs, Method: http.MethodGet, Path: "/admin/gigs", Query: params.values(), Token: token})
	items, total, err := DecodeList[Gig](res, "gigs")
	if err != nil {
		return Page[Gig]{}, err
	}
	return Page[Gig]{Items: items, Total: total}, nil
}

// GigUpdate is the moderation change applied to a gig.
type GigUpdate struct {
	Status  string `json:"status,omitempty"`
	Flagged *bool  `json:"flagged,omitempty"`
	Note    string `json:"note,omitempty"`
}

// UpdateGig applies a moderation change.
func (c *Client) UpdateGig(ctx context.Context, token, id string, update GigUpdate) (Result, error) {
	res := c.Call(ctx, Request{
		Op:     OpUpdateGig,
		Method: http.MethodPatch,
		Path:   "/admin/gigs/" + url.PathEscape(id),
		Token:  token,
		Body:   update,
	})
	return res, res.Err()
}
