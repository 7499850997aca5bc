package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy-dashboard/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{Internal("x"), http.StatusInternalServerError},
		{Validation("x"), http.StatusBadRequest},
		{BadRequest("x"), http.StatusBadRequest},
		{UnparseableUpload(nil, "x"), http.StatusBadRequest},
		{NotFound("x"), http.StatusNotFound},
		{NoData("x"), http.StatusNotFound},
		{PayloadTooLarge("x"), http.StatusRequestEntityTooLarge},
		{RateLimit("x"), http.StatusTooManyRequests},
		{ServiceUnavailable("x"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode)
		})
	}
}

func TestAppError_WrapAndMatch(t *testing.T) {
	cause := stderrors.New("bare quote in field")
	err := fmt.Errorf("load: %w", UnparseableUpload(cause, "file is not valid CSV"))

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, New(CodeUnparseableUpload, ""))
	assert.NotErrorIs(t, err, New(CodeNoData, ""))
	assert.True(t, HasCode(err, CodeUnparseableUpload))
	assert.False(t, HasCode(cause, CodeUnparseableUpload))
	assert.Contains(t, err.Error(), "caused by: bare quote in field")
}

func TestWriteError(t *testing.T) {
	shared := NoData("no CSV file has been uploaded")

	req := httptest.NewRequest(http.MethodGet, "/api/view", nil)
	req = req.WithContext(observability.WithRequestID(req.Context(), "req-1"))
	w := httptest.NewRecorder()

	WriteError(w, req, discardLogger(), shared)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "NO_DATA", resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Empty(t, shared.RequestID, "shared errors must not be mutated")
}

func TestWriteError_PlainError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteError(w, req, discardLogger(), stderrors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INTERNAL_ERROR"`)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestWriteSuccessWithHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteSuccessWithHeaders(w, req, map[string]int{"rows": 3}, map[string]string{"Cache-Control": "no-store"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"success":true,"data":{"rows":3}}`, w.Body.String())
}
