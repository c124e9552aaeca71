// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/stockdesk/stockdesk/internal/shared"
)

// Sentinel errors for handler-level failures.
var (
	ErrNotFound   = shared.ErrNotFound
	ErrBadRequest = errors.New("bad request")
)

// Conflict is implemented by domain rejections that leave state intact but
// refuse the requested change.
type Conflict interface {
	error
	Conflict() bool
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var (
		verr     *shared.ValidationError
		ferr     *shared.FetchError
		serr     *shared.SubmissionError
		conflict Conflict
	)
	switch {
	case errors.As(err, &verr):
		ProblemWith(w, ProblemDetail{
			Type:   "validation/" + verr.Code,
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: verr.Code,
			Fields: verr.Fields,
		})
	case errors.As(err, &conflict) && conflict.Conflict():
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.As(err, &serr):
		if serr.Status == 0 {
			Problem(w, http.StatusBadGateway, "Submission Failed", "backend unreachable, draft kept for retry")
			return
		}
		Problem(w, http.StatusUnprocessableEntity, "Submission Rejected", serr.Detail)
	case errors.As(err, &ferr):
		if ferr.Status == http.StatusNotFound {
			Problem(w, http.StatusNotFound, "Not Found", ferr.Op)
			return
		}
		Problem(w, http.StatusBadGateway, "Backend Unavailable", "fetch "+ferr.Op+" failed, retry later")
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrBadRequest):
		Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
