package httpx_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/platform/httpx"
	"github.com/source-impact/admin-dashboard/internal/shared"
)

func TestRespondErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{httpx.ErrUnauthorized, http.StatusUnauthorized},
		{&backend.Error{Op: "x", Kind: backend.KindUnauthorized}, http.StatusUnauthorized},
		{fmt.Errorf("wrap: %w", shared.ErrForbidden), http.StatusForbidden},
		{shared.ErrNotFound, http.StatusNotFound},
		{shared.ErrInvalidInput, http.StatusBadRequest},
		{&backend.Error{Op: "x", Kind: backend.KindTransport, Message: "Unable to reach the server"}, http.StatusBadGateway},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		httpx.RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	httpx.RespondError(rr, fmt.Errorf("dial tcp 10.0.0.1: refused"))

	var body httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Empty(t, body.Detail)
	assert.Equal(t, http.StatusInternalServerError, body.Status)
}

func TestJSONDisablesCaching(t *testing.T) {
	rr := httptest.NewRecorder()
	httpx.JSON(rr, http.StatusOK, map[string]string{"ok": "yes"})
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"ok":"yes"}`, rr.Body.String())
}
