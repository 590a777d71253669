package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/source-impact/admin-dashboard/internal/rbac"
)

// Operation names, also used as metric labels and route memo keys.
const (
	OpLogin          = "auth.login"
	OpMe             = "auth.me"
	OpUpdateProfile  = "auth.update_profile"
	OpUploadAvatar   = "auth.upload_avatar"
	OpListUsers      = "users.list"
	OpGetUser        = "users.get"
	OpUserStatus     = "users.status"
	OpVerifyUser     = "users.verify"
	OpUserProfile    = "users.profile"
	OpDeleteUser     = "users.delete"
	OpAdjustBalance  = "users.balance"
	OpListDeals      = "deals.list"
	OpGetDeal        = "deals.get"
	OpDealStatus     = "deals.status"
	OpDealAmount     = "deals.amount"
	OpDeleteDeal     = "deals.delete"
	OpListGigs       = "gigs.list"
	OpUpdateGig      = "gigs.update"
	OpListEscrow     = "escrow.list"
	OpReleaseEscrow  = "escrow.release"
	OpListDisputes   = "disputes.list"
	OpResolveDispute = "disputes.resolve"
	OpListRewards    = "rewards.list"
	OpCreateReward   = "rewards.create"
	OpToggleReward   = "rewards.toggle"
	OpListNotices    = "notifications.list"
	OpSendNotice     = "notifications.send"
	OpGetSettings    = "settings.get"
	OpUpdateSettings = "settings.update"
	OpStats          = "stats.get"
)

// LoginResult carries the bearer token and the raw identity record.
type LoginResult struct {
	Token    string
	Identity rbac.Identity
}

var tokenKeys = []string{"token", "accessToken", "access_token", "jwt"}

// Login exchanges credentials for a bearer token. POST /admin/login is
// tried first, then POST /auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	res := c.CallFirst(ctx, Request{
		Op:   OpLogin,
		Body: map[string]string{"email": email, "password": password},
	}, []Candidate{
		{Method: http.MethodPost, Path: "/admin/login"},
		{Method: http.MethodPost, Path: "/auth/login"},
	})
	if err := res.Err(); err != nil {
		return LoginResult{}, err
	}
	var root map[string]any
	if err := json.Unmarshal(res.Data, &root); err != nil {
		return LoginResult{}, res.malformed()
	}
	token := findToken(root)
	if token == "" {
		return LoginResult{}, &Error{Op: OpLogin, Kind: KindMalformed, Status: res.Status, Message: "Login response did not include a token"}
	}
	return LoginResult{Token: token, Identity: rbac.ParseIdentity(res.Data)}, nil
}

func findToken(root map[string]any) string {
	for _, scope := range []map[string]any{root, asMap(root["data"])} {
		if scope == nil {
			continue
		}
		for _, key := range tokenKeys {
			if s, ok := scope[key].(string); ok && s != "" {
				return s
			}
		}
		if tokens := asMap(scope["tokens"]); tokens != nil {
			for _, key := range tokenKeys {
				if s, ok := tokens[key].(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return ""
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// Me returns the identity behind the token.
func (c *Client) Me(ctx context.Context, token string) (rbac.Identity, error) {
	res := c.Call(ctx, Request{Op: OpMe, Method: http.MethodGet, Path: "/admin/me", Token: token})
	if err := res.Err(); err != nil {
		return rbac.Identity{}, err
	}
	return rbac.ParseIdentity(res.Data), nil
}

// ProfileUpdate holds the editable fields of a staff or member profile.
type ProfileUpdate struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	AvatarURL string `json:"avatar,omitempty"`
}

// UpdateOwnProfile edits the logged-in admin's profile.
func (c *Client) UpdateOwnProfile(ctx context.Context, token string, update ProfileUpdate) (rbac.Identity, error) {
	res := c.CallFirst(ctx, Request{Op: OpUpdateProfile, Token: token, Body: update}, []Candidate{
		{Method: http.MethodPatch, Path: "/admin/profile"},
		{Method: http.MethodPut, Path: "/admin/profile"},
		{Method: http.MethodPatch, Path: "/admin/me"},
	})
	if err := res.Err(); err != nil {
		return rbac.Identity{}, err
	}
	return rbac.ParseIdentity(res.Data), nil
}

// UploadAvatar forwards an image and returns its public URL.
func (c *Client) UploadAvatar(ctx context.Context, token string, file FilePart) (string, error) {
	if file.Field == "" {
		file.Field = "avatar"
	}
	res := c.Call(ctx, Request{
		Op:     OpUploadAvatar,
		Method: http.MethodPost,
		Path:   "/admin/upload/avatar",
		Token:  token,
		File:   &file,
	})
	if err := res.Err(); err != nil {
		return "", err
	}
	var out struct {
		URL       string `json:"url"`
		AvatarURL string `json:"avatarUrl"`
		Avatar    string `json:"avatar"`
	}
	if err := res.Decode(&out); err != nil {
		return "", err
	}
	for _, u := range []string{out.URL, out.AvatarURL, out.Avatar} {
		if u != "" {
			return u, nil
		}
	}
	return "", &Error{Op: OpUploadAvatar, Kind: KindMalformed, Status: res.Status, Message: "Upload response did not include a URL"}
}
