package backend

import (
	"context"
	"net/http"
	"net/url"
)

// ListEscrowJobs returns one page of escrow records.
func (c *Client) ListEscrowJobs(ctx context.Context, token string, params ListParams) (Page[EscrowJob], error) {
	res := c.Call(ctx, Request{Op: OpListEscrow, Method: http.MethodGet, Path: "/admin/escrow-jobs", Query: params.values(), Token: token})
	items, total, err := DecodeList[EscrowJob](res, "escrowJobs", "jobs", "escrows")
	if err != nil {
		return Page[EscrowJob]{}, err
	}
	return Page[EscrowJob]{Items: items, Total: total}, nil
}

// ReleaseEscrow forces the held funds to the payee.
func (c *Client) ReleaseEscrow(ctx context.Context, token, id, reason string) (Result, error) {
	res := c.Call(ctx, Request{
		Op:     OpReleaseEscrow,
		Method: http.MethodPost,
		Path:   "/admin/escrow-jobs/" + url.PathEscape(id) + "/release",
		Token:  token,
		Body:   map[string]string{"reason": reason},
	})
	return res, res.Err()
}
