// Package http serves the dashboard JSON API over the finance store.
//
// This file implements utilities for parsing and validating HTTP request data:
// dashboard periods, limits, month keys and JSON bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moneyflow/internal/core"
)

const (
	maxBodyBytes = 1 << 20
	maxDays      = 366
)

// maxPeriodDays bounds explicit start/end periods; the daily series holds
// one entry per day.
const maxPeriodDays = 3660

// requestError is a malformed request; it maps to 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// ParsePeriod reads the dashboard period from query parameters.
//
//	days=N          the N calendar days ending today
//	start=, end=    explicit YYYY-MM-DD bounds; a missing bound defaults to
//	                the current month's edge
//	(nothing)       the current month
//
// Inverted bounds are swapped. Periods longer than maxPeriodDays are
// rejected.
func ParsePeriod(query url.Values, now time.Time) (core.Period, error) {
	if v := strings.TrimSpace(query.Get("days")); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 1 || days > maxDays {
			return core.Period{}, badRequest("days must be between 1 and %d", maxDays)
		}
		return core.LastDaysRange(days, now), nil
	}

	period := core.MonthRange(core.DateOf(now))
	for _, bound := range []struct {
		name string
		dst  *string
	}{
		{"start", &period.Start},
		{"end", &period.End},
	} {
		v := strings.TrimSpace(query.Get(bound.name))
		if v == "" {
			continue
		}
		d, ok := core.ParseISODate(v)
		if !ok {
			return core.Period{}, badRequest("%s must be a YYYY-MM-DD date", bound.name)
		}
		*bound.dst = d.String()
	}
	period = core.NormalizePeriod(period)

	start, _ := core.ParseISODate(period.Start)
	end, _ := core.ParseISODate(period.End)
	if core.DaysBetween(start, end)+1 > maxPeriodDays {
		return core.Period{}, badRequest("period must span at most %d days", maxPeriodDays)
	}
	return period, nil
}

// ParseLimit reads a positive integer parameter capped at maxLimit.
func ParseLimit(query url.Values, key string, def, maxLimit int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequest("%s must be a non-negative integer", key)
	}
	return min(n, maxLimit), nil
}

// ParseMonth reads month=YYYY-MM, defaulting to now's month.
func ParseMonth(query url.Values, now time.Time) (string, error) {
	v := strings.TrimSpace(query.Get("month"))
	if v == "" {
		return core.DateOf(now).MonthKey(), nil
	}
	d, ok := core.ParseMonthKey(v)
	if !ok {
		return "", badRequest("month must be YYYY-MM")
	}
	return d.MonthKey(), nil
}

// DecodeJSON reads at most one megabyte of JSON from r into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return badRequest("Content-Type must be application/json")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &maxErr):
			return badRequest("request body too large")
		default:
			return badRequest("invalid JSON body: %v", err)
		}
	}
	return nil
}
