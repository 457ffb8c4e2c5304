package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/lexis-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/users/u/aggregatedWords/stat", nil)

	RespondWithJSON(w, r, http.StatusOK, map[string]int{"difficultCount": 2})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"difficultCount":2}`, w.Body.String())
}

func TestRespondWithJSON_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithJSON(w, r, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "An unexpected error occurred")
}

func TestRespondWithError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithTraceID(r.Context(), "trace-1"))

	RespondWithError(w, r, http.StatusForbidden, "Access denied")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Access denied","trace_id":"trace-1"}`, w.Body.String())
}

func TestRespondWithError_NoTraceID(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithError(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNotFound, "Word not found")

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Word not found", body["error"])
	assert.NotContains(t, body, "trace_id")
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{name: "bad request", status: http.StatusBadRequest, wantLevel: "DEBUG"},
		{name: "not found", status: http.StatusNotFound, wantLevel: "DEBUG"},
		{name: "too many requests", status: http.StatusTooManyRequests, wantLevel: "WARN"},
		{name: "internal", status: http.StatusInternalServerError, wantLevel: "ERROR"},
		{name: "unavailable", status: http.StatusServiceUnavailable, wantLevel: "WARN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log, buf := logger.NewTestLogger()
			r := httptest.NewRequest(http.MethodGet, "/api/users/u/aggregatedWords", nil)
			r = r.WithContext(logger.WithLogger(SetTraceID(r.Context()), log))
			w := httptest.NewRecorder()

			cause := errors.New(`pq: syntax error at or near "SELECT * FROM user_words WHERE user_id = 'x'"`)
			RespondWithErrorAndLog(w, r, tc.status, "Something failed", cause)

			assert.Equal(t, tc.status, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "Something failed", body.Error)
			assert.Equal(t, GetTraceID(r.Context()), body.TraceID)
			assert.NotContains(t, w.Body.String(), "user_words")

			entries, err := buf.Entries()
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, tc.wantLevel, entries[0]["level"])
			assert.Equal(t, "API error response", entries[0]["msg"])
			assert.Equal(t, float64(tc.status), entries[0]["status_code"])
			assert.NotContains(t, buf.String(), "SELECT * FROM user_words")
		})
	}
}

func TestRespondWithErrorAndLog_NilError(t *testing.T) {
	log, buf := logger.NewTestLogger()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(logger.WithLogger(r.Context(), log))
	w := httptest.NewRecorder()

	RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Authentication required", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0], "error")
}
