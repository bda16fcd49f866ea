package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "votacao/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "internal_error", body["error"])
		_, ok := body["error_description"]
		assert.False(t, ok, "expected error_description to be omitted for internal errors")
	})

	t.Run("unknown errors are internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("pq: connection refused"))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})

	t.Run("voting kinds map to their status", func(t *testing.T) {
		cases := map[dErrors.Code]int{
			dErrors.CodeNotEligible:     http.StatusNotFound,
			dErrors.CodeSessionNotFound: http.StatusNotFound,
			dErrors.CodeSessionClosed:   http.StatusBadRequest,
			dErrors.CodeDuplicateVote:   http.StatusBadRequest,
			dErrors.CodeConflict:        http.StatusConflict,
			dErrors.CodeRejected:        http.StatusTooManyRequests,
			dErrors.CodeUnavailable:     http.StatusServiceUnavailable,
		}
		for code, status := range cases {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(code, "msg"))
			assert.Equal(t, status, w.Code, string(code))

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, string(code), body.Error)
			assert.Equal(t, "msg", body.Description)
		}
	})
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
		Count int    `json:"count"`
	}

	t.Run("decodes body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x","count":2}`))
		var p payload
		require.NoError(t, DecodeJSON(r, &p, false))
		assert.Equal(t, payload{Title: "x", Count: 2}, p)
	})

	t.Run("empty body allowed when optional", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		var p payload
		require.NoError(t, DecodeJSON(r, &p, true))
	})

	t.Run("empty body rejected when required", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		var p payload
		err := DecodeJSON(r, &p, false)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("type mismatch names the field", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"count":"two"}`))
		var p payload
		err := DecodeJSON(r, &p, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "count")
	})
}
