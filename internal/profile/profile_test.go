package profile_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/source-impact/admin-dashboard/internal/auth"
	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/profile"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
	"github.com/source-impact/admin-dashboard/internal/view"
	_ "github.com/source-impact/admin-dashboard/testing"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type stubGateway struct {
	updates  []backend.ProfileUpdate
	uploads  []backend.FilePart
	uploaded []byte
	err      error
}

func (s *stubGateway) UpdateOwnProfile(_ context.Context, _ string, update backend.ProfileUpdate) (rbac.Identity, error) {
	s.updates = append(s.updates, update)
	if s.err != nil {
		return rbac.Identity{}, s.err
	}
	return rbac.Identity{ID: "a1", Email: update.Email, Name: update.Name, AvatarURL: update.AvatarURL}, nil
}

func (s *stubGateway) UploadAvatar(_ context.Context, _ string, file backend.FilePart) (string, error) {
	data, _ := io.ReadAll(file.Reader)
	s.uploaded = data
	s.uploads = append(s.uploads, file)
	return "https://cdn.example.com/a1.png", nil
}

type refresher struct{}

func (refresher) Refresh(_ context.Context, _ string, current auth.SessionUser, identity rbac.Identity) (auth.SessionUser, error) {
	next := current
	if identity.Name != "" {
		next.Name = identity.Name
	}
	if identity.Email != "" {
		next.Email = identity.Email
	}
	if identity.AvatarURL != "" {
		next.AvatarURL = identity.AvatarURL
	}
	return next, nil
}

type auditSpy struct {
	entries []shared.AuditLog
}

func (a *auditSpy) Record(_ context.Context, log shared.AuditLog) error {
	a.entries = append(a.entries, log)
	return nil
}

var staff = auth.SessionUser{ID: "a1", Email: "ops@example.com", Name: "Ops", Role: rbac.RoleAdmin}

func setup(t *testing.T, gw *stubGateway, audit *auditSpy) (http.Handler, *shared.Session) {
	t.Helper()
	templates, err := view.NewEngine()
	require.NoError(t, err)
	pages := view.NewResponder(nil, templates, shared.NewCSRFManager("x"), nil)
	svc := profile.NewService(gw, refresher{}, audit, nil)
	handler := profile.NewHandler(nil, svc, pages)

	sess := &shared.Session{}
	require.NoError(t, auth.Store{}.Save(sess, "tok", staff))

	r := chi.NewRouter()
	r.Route("/profile", handler.MountRoutes)
	wrapped := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := shared.ContextWithSession(req.Context(), sess)
		ctx = rbac.ContextWithPrincipal(ctx, staff.Principal())
		r.ServeHTTP(w, req.WithContext(ctx))
	})
	return wrapped, sess
}

func TestShowRendersCurrentUser(t *testing.T) {
	h, _ := setup(t, &stubGateway{}, &auditSpy{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/profile/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `value="ops@example.com"`)
	assert.Contains(t, rr.Body.String(), `enctype="multipart/form-data"`)
}

func TestShowWithoutLoginRedirects(t *testing.T) {
	templates, err := view.NewEngine()
	require.NoError(t, err)
	pages := view.NewResponder(nil, templates, shared.NewCSRFManager("x"), nil)
	handler := profile.NewHandler(nil, profile.NewService(&stubGateway{}, nil, nil, nil), pages)
	r := chi.NewRouter()
	r.Route("/profile", handler.MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/profile/", nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, view.LoginPath, rr.Header().Get("Location"))
}

func TestUpdateStoresRefreshedUser(t *testing.T) {
	gw := &stubGateway{}
	audit := &auditSpy{}
	h, sess := setup(t, gw, audit)

	form := url.Values{"name": {" New Name "}, "email": {"new@example.com"}, "phone": {"+1 555"}}
	req := httptest.NewRequest(http.MethodPost, "/profile/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Len(t, gw.updates, 1)
	assert.Equal(t, backend.ProfileUpdate{Name: "New Name", Email: "new@example.com", Phone: "+1 555"}, gw.updates[0])

	_, user, ok := auth.Store{}.Load(sess)
	require.True(t, ok)
	assert.Equal(t, "New Name", user.Name)
	assert.Equal(t, "new@example.com", user.Email)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "profile.update", audit.entries[0].Action)
	assert.Equal(t, "a1", audit.entries[0].EntityID)
}

func TestUpdateRejectsInvalidEmail(t *testing.T) {
	gw := &stubGateway{}
	h, _ := setup(t, gw, &auditSpy{})

	form := url.Values{"name": {"Ops"}, "email": {"nope"}}
	req := httptest.NewRequest(http.MethodPost, "/profile/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "must be a valid email address")
	assert.Empty(t, gw.updates)
}

func TestUpdateBackendFailureKeepsSession(t *testing.T) {
	gw := &stubGateway{err: &backend.Error{Op: backend.OpUpdateProfile, Kind: backend.KindStatus, Status: 422, Message: "Email taken"}}
	audit := &auditSpy{}
	h, sess := setup(t, gw, audit)

	form := url.Values{"name": {"Ops"}, "email": {"taken@example.com"}}
	req := httptest.NewRequest(http.MethodPost, "/profile/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/profile", rr.Header().Get("Location"))
	_, user, _ := auth.Store{}.Load(sess)
	assert.Equal(t, "ops@example.com", user.Email)
	assert.Empty(t, audit.entries)
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestAvatarUploadSniffsAndForwards(t *testing.T) {
	gw := &stubGateway{}
	audit := &auditSpy{}
	h, sess := setup(t, gw, audit)

	body, contentType := multipartBody(t, "../../me.png", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/profile/avatar", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Len(t, gw.uploads, 1)
	assert.Equal(t, "me.png", gw.uploads[0].Filename)
	assert.Equal(t, "image/png", gw.uploads[0].ContentType)
	assert.Equal(t, pngHeader, gw.uploaded)
	require.Len(t, gw.updates, 1)
	assert.Equal(t, "https://cdn.example.com/a1.png", gw.updates[0].AvatarURL)

	_, user, _ := auth.Store{}.Load(sess)
	assert.Equal(t, "https://cdn.example.com/a1.png", user.AvatarURL)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "profile.avatar", audit.entries[0].Action)
}

func TestAvatarRejectsNonImages(t *testing.T) {
	svc := profile.NewService(&stubGateway{}, refresher{}, nil, nil)
	_, err := svc.UploadAvatar(context.Background(), "tok", staff, "a.png", strings.NewReader("<html>not an image</html>"))
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestAvatarRejectsOversizedFiles(t *testing.T) {
	gw := &stubGateway{}
	svc := profile.NewService(gw, refresher{}, nil, nil)
	big := append(append([]byte{}, pngHeader...), make([]byte, profile.MaxAvatarBytes)...)
	_, err := svc.UploadAvatar(context.Background(), "tok", staff, "a.png", bytes.NewReader(big))
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	assert.Empty(t, gw.uploads)
}

func TestAvatarMissingFileFlashes(t *testing.T) {
	gw := &stubGateway{}
	h, _ := setup(t, gw, &auditSpy{})

	req := httptest.NewRequest(http.MethodPost, "/profile/avatar", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Empty(t, gw.uploads)
}

type silentGateway struct{}

func (silentGateway) UpdateOwnProfile(context.Context, string, backend.ProfileUpdate) (rbac.Identity, error) {
	return rbac.Identity{}, nil
}

func (silentGateway) UploadAvatar(context.Context, string, backend.FilePart) (string, error) {
	return "", nil
}

type meBackend struct {
	me rbac.Identity
}

func (meBackend) Login(context.Context, string, string) (backend.LoginResult, error) {
	return backend.LoginResult{}, errors.New("unused")
}

func (m meBackend) Me(context.Context, string) (rbac.Identity, error) {
	return m.me, nil
}

func TestUpdateCannotClaimSuperAdminEmail(t *testing.T) {
	refresh := auth.NewService(meBackend{me: rbac.Identity{ID: "a1", Email: "ops@example.com", Role: "admin"}}, rbac.NewResolver("", ""))
	svc := profile.NewService(silentGateway{}, refresh, nil, nil)

	next, err := svc.Update(context.Background(), "tok", staff, backend.ProfileUpdate{Name: "Ops", Email: rbac.DefaultSuperAdminEmail})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, next.Role)
	assert.Equal(t, "ops@example.com", next.Email)
	assert.False(t, next.Principal().Can(rbac.SystemSettings))
}

func TestUpdateKeepsBackendSuperAdmin(t *testing.T) {
	boss := auth.SessionUser{ID: "b1", Email: "boss@example.com", Name: "Boss", Role: rbac.RoleSuperAdmin}
	refresh := auth.NewService(meBackend{me: rbac.Identity{ID: "b1", Email: "boss@example.com", Role: "SUPER_ADMIN"}}, rbac.NewResolver("", ""))
	svc := profile.NewService(silentGateway{}, refresh, nil, nil)

	next, err := svc.Update(context.Background(), "tok", boss, backend.ProfileUpdate{Name: "Boss", Email: "boss@example.com"})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleSuperAdmin, next.Role)
	assert.True(t, next.Principal().Can(rbac.SystemSettings))
}
