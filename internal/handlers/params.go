package handlers

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

// DateLayout is the wire format of filter dates in query strings and signals.
const DateLayout = "2006-01-02"

// parseRange reads a start/end pair, falling back to def for whichever side is blank.
func parseRange(start, end string, def models.DateRange) (models.DateRange, error) {
	r := def

	if s := strings.TrimSpace(start); s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return r, fmt.Errorf("start date %q is not YYYY-MM-DD", start)
		}
		r.Start = t
	}
	if s := strings.TrimSpace(end); s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return r, fmt.Errorf("end date %q is not YYYY-MM-DD", end)
		}
		r.End = t
	}
	return r, nil
}

func rangeFromQuery(r *http.Request, def models.DateRange) (models.DateRange, error) {
	q := r.URL.Query()
	return parseRange(q.Get("start"), q.Get("end"), def)
}

// prepareError maps a Prepare failure to the client-facing error.
func prepareError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, services.ErrNotLoaded):
		return errors.ServiceUnavailableWrap(err, "Sales data is not loaded yet")
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.ServiceUnavailableWrap(err, "Request was cancelled")
	default:
		return errors.InternalWrap(err, "Failed to compute dashboard")
	}
}
