package backend

import (
	"context"
	"net/http"
	"net/url"
)

func userPath(id string, suffix string) string {
	return "/admin/users/" + url.PathEscape(id) + suffix
}

// ListUsers returns one page of platform members.
func (c *Client) ListUsers(ctx context.Context, token string, params ListParams) (Page[User], error) {
	res := c.Call(ctx, Request{Op: OpListUsers, Method: http.MethodGet, Path: "/admin/users", Query: params.values(), Token: token})
	items, total, err := DecodeList[User](res, "users")
	if err != nil {
		return Page[User]{}, err
	}
	return Page[User]{Items: items, Total: total}, nil
}

// GetUser returns one member.
func (c *Client) GetUser(ctx context.Context, token, id string) (User, error) {
	res := c.Call(ctx, Request{Op: OpGetUser, Method: http.MethodGet, Path: userPath(id, ""), Token: token})
	var user User
	if err := res.Decode(&user, "user"); err != nil {
		return User{}, err
	}
	return user, nil
}

// SetUserStatus changes a member's account status (active, suspended, banned).
func (c *Client) SetUserStatus(ctx context.Context, token, id, status, reason string) (Result, error) {
	body := map[string]string{"status": status}
	if reason != "" {
		body["reason"] = reason
	}
	res := c.CallFirst(ctx, Request{Op: OpUserStatus, Token: token, Body: body}, []Candidate{
		{Method: http.MethodPatch, Path: userPath(id, "/status")},
		{Method: http.MethodPut, Path: userPath(id, "/status")},
	})
	return res, res.Err()
}

// VerifyUser marks a member as verified.
func (c *Client) VerifyUser(ctx context.Context, token, id string) (Result, error) {
	res := c.CallFirst(ctx, Request{Op: OpVerifyUser, Token: token}, []Candidate{
		{Method: http.MethodPost, Path: userPath(id, "/verify"), Body: map[string]bool{"verified": true}},
		{Method: http.MethodPatch, Path: userPath(id, "/verification"), Body: map[string]bool{"verified": true}},
		{Method: http.MethodPatch, Path: userPath(id, ""), Body: map[string]bool{"isVerified": true}},
	})
	return res, res.Err()
}

// UpdateUserProfile edits a member's profile fields.
func (c *Client) UpdateUserProfile(ctx context.Context, token, id string, update ProfileUpdate) (User, error) {
	res := c.CallFirst(ctx, Request{Op: OpUserProfile, Token: token, Body: update}, []Candidate{
		{Method: http.MethodPatch, Path: userPath(id, "/profile")},
		{Method: http.MethodPut, Path: userPath(id, "/profile")},
		{Method: http.MethodPatch, Path: userPath(id, "")},
		{Method: http.MethodPut, Path: userPath(id, "")},
	})
	var user User
	if err := res.Decode(&user, "user"); err != nil {
		return User{}, err
	}
	return user, nil
}

// DeleteUser removes a member permanently.
func (c *Client) DeleteUser(ctx context.Context, token, id string) (Result, error) {
	res := c.Call(ctx, Request{Op: OpDeleteUser, Method: http.MethodDelete, Path: userPath(id, ""), Token: token})
	return res, res.Err()
}

// AdjustBalance credits (positive) or debits (negative) a member's wallet.
func (c *Client) AdjustBalance(ctx context.Context, token, id string, amount float64, reason string) (Result, error) {
	res := c.Call(ctx, Request{
		Op:     OpAdjustBalance,
		Method: http.MethodPost,
		Path:   userPath(id, "/balance"),
		Token:  token,
		Body:   map[string]any{"amount": amount, "reason": reason},
	})
	return res, res.Err()
}
