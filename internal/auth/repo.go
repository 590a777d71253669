package auth

import (
	"encoding/json"

	"github.com/source-impact/admin-dashboard/internal/shared"
)

// Session keys holding the login state.
const (
	TokenKey = "admin_token"
	UserKey  = "admin_user"
)

// Store keeps the bearer token and the session user inside the server side
// session.
type Store struct{}

// Save binds the token and user to the session.
func (Store) Save(sess *shared.Session, token string, user SessionUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	sess.Set(TokenKey, token)
	sess.Set(UserKey, string(data))
	sess.SetUser(user.ID)
	return nil
}

// SaveUser replaces the stored user, keeping the token.
func (Store) SaveUser(sess *shared.Session, user SessionUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	sess.Set(UserKey, string(data))
	return nil
}

// Load returns the token and user. ok is false when the session is not
// logged in or the stored user cannot be decoded.
func (Store) Load(sess *shared.Session) (token string, user SessionUser, ok bool) {
	if sess == nil {
		return "", SessionUser{}, false
	}
	token = sess.Get(TokenKey)
	raw := sess.Get(UserKey)
	if token == "" || raw == "" {
		return "", SessionUser{}, false
	}
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return "", SessionUser{}, false
	}
	return token, user, true
}

// Clear removes the login state.
func (Store) Clear(sess *shared.Session) {
	if sess == nil {
		return
	}
	sess.Delete(TokenKey)
	sess.Delete(UserKey)
	sess.SetUser("")
}
