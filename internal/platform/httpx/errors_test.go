package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockdesk/stockdesk/internal/shared"
)

type refused struct{}

func (refused) Error() string  { return "refused" }
func (refused) Conflict() bool { return true }

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", shared.NewValidationError(shared.CodeMissingAccount), http.StatusBadRequest},
		{"conflict", fmt.Errorf("edit: %w", refused{}), http.StatusConflict},
		{"rejected", &shared.SubmissionError{Kind: "sale", Status: 400, Detail: "bad"}, http.StatusUnprocessableEntity},
		{"unreachable", &shared.SubmissionError{Kind: "sale", Err: errors.New("dial")}, http.StatusBadGateway},
		{"fetch", &shared.FetchError{Op: "products", Status: 500}, http.StatusBadGateway},
		{"fetch not found", &shared.FetchError{Op: "product 4", Status: 404}, http.StatusNotFound},
		{"not found", fmt.Errorf("draft: %w", shared.ErrNotFound), http.StatusNotFound},
		{"bad request", fmt.Errorf("%w: eof", ErrBadRequest), http.StatusBadRequest},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestValidationProblemCarriesCodeAndFields(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, &shared.ValidationError{Code: shared.CodeInvalidRange, Fields: map[string]string{"start": "2024-02-01"}})

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "validation/invalid-range", problem.Type)
	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, "2024-02-01", problem.Fields["start"])
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("password=hunter2"))
	assert.NotContains(t, rec.Body.String(), "hunter2")
}
