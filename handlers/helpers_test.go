package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/bracket-engine/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeErrorEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var env struct {
		Error errorPayload `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"bracket not found", services.ErrBracketNotFound, http.StatusNotFound, "not_found"},
		{"match not found", services.ErrMatchNotFound, http.StatusNotFound, "not_found"},
		{"payout not found", services.ErrPayoutNotFound, http.StatusNotFound, "not_found"},
		{"validation", services.ErrValidationFailed, http.StatusBadRequest, "validation"},
		{"invalid state", services.ErrInvalidMatchState, http.StatusUnprocessableEntity, "state"},
		{"not complete", services.ErrBracketNotComplete, http.StatusUnprocessableEntity, "state"},
		{"version conflict", services.ErrVersionConflict, http.StatusConflict, "conflict"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)

			mapServiceErrorToHTTP(rec, req, fmt.Errorf("context: %w", tc.err))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			payload := decodeErrorEnvelope(t, rec)
			assert.Equal(t, tc.kind, payload.Kind)
			assert.NotEmpty(t, payload.Reason)
		})
	}
}

func TestErrorResponseEnvelopeShape(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	badRequestResponse(rec, req, errors.New("seeds are required"))

	var doc map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "validation", doc["error"]["kind"])
	assert.Equal(t, "seeds are required", doc["error"]["reason"])
}
