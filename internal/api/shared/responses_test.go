package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/classplan/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusCreated, map[string]int{"id": 3})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":3}`, w.Body.String())
}

func TestRespondWithFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	w := httptest.NewRecorder()

	RespondWithFile(w, req, "text/csv", "classroom-1.csv", []byte("1;\"CM1\"\n"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="classroom-1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "1;\"CM1\"\n", w.Body.String())
}

func TestRespondWithError(t *testing.T) {
	ctx := SetTraceID(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/test", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusNotFound, "Classroom not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Classroom not found", body.Error)
	assert.Equal(t, GetTraceID(ctx), body.TraceID)
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		opts      []ResponseOption
		wantLevel string
	}{
		{name: "server error", status: http.StatusInternalServerError, wantLevel: "ERROR"},
		{name: "client error", status: http.StatusBadRequest, wantLevel: "DEBUG"},
		{name: "rate limited", status: http.StatusTooManyRequests, wantLevel: "WARN"},
		{
			name:      "elevated client error",
			status:    http.StatusUnauthorized,
			opts:      []ResponseOption{WithElevatedLogLevel()},
			wantLevel: "WARN",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log, buf := logger.NewTestLogger(t)
			ctx := logger.WithLogger(context.Background(), log)
			req := httptest.NewRequest(http.MethodGet, "/api/classrooms", nil).WithContext(ctx)
			w := httptest.NewRecorder()

			cause := errors.New("dial postgres://admin:secretpw@db:5432 failed")
			RespondWithErrorAndLog(w, req, tc.status, "Something failed", cause, tc.opts...)

			assert.Equal(t, tc.status, w.Code)
			assert.NotContains(t, w.Body.String(), "secretpw")
			assert.NotContains(t, w.Body.String(), "postgres")

			entries, err := buf.Entries()
			require.NoError(t, err)
			require.NotEmpty(t, entries)
			last := entries[len(entries)-1]
			assert.Equal(t, tc.wantLevel, last["level"])
			assert.Equal(t, "API error response", last["msg"])
			assert.NotContains(t, last["error"], "secretpw")
		})
	}
}
