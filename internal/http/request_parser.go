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

	"tempo/internal/core"
)

// maxBodyBytes bounds request bodies. An activity payload is a few hundred bytes.
const maxBodyBytes = 64 << 10

// errMalformedBody marks request bodies that are not valid JSON.
var errMalformedBody = errors.New("malformed request body")

// ActivityInput is the JSON body of create and update requests.
type ActivityInput struct {
	Date            string `json:"date"`
	Activity        string `json:"activity"`
	DurationMinutes *int   `json:"duration_minutes"`
	Notes           string `json:"notes"`
}

// activityFields is a decoded and parsed ActivityInput.
type activityFields struct {
	Date            core.Date
	Activity        string
	DurationMinutes int
	Notes           string
}

// DecodeJSON reads a single JSON document into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errMalformedBody)
	}
	return nil
}

// parseActivityInput decodes the body. A missing date means today.
func parseActivityInput(r *http.Request, today core.Date) (activityFields, error) {
	var in ActivityInput
	if err := DecodeJSON(r, &in); err != nil {
		return activityFields{}, err
	}

	out := activityFields{
		Date:     today,
		Activity: SanitizeInput(in.Activity),
		Notes:    SanitizeInput(in.Notes),
	}
	if v := strings.TrimSpace(in.Date); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return activityFields{}, err
		}
		out.Date = d
	}
	if in.DurationMinutes == nil {
		return activityFields{}, fmt.Errorf("%w: duration_minutes is required", core.ErrValidation)
	}
	out.DurationMinutes = *in.DurationMinutes
	return out, nil
}

// ParseID reads a positive record id from the {id} path segment.
func ParseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid id %q", core.ErrValidation, raw)
	}
	return id, nil
}

// ParseDateParam reads an optional YYYY-MM-DD query value. Absent yields def.
func ParseDateParam(query url.Values, key string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// ParseIntParam reads an optional integer query value. Absent yields def.
func ParseIntParam(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", core.ErrValidation, key, v)
	}
	return n, nil
}

// ParsePeriodParam reads the period query value. Absent means the last seven days.
func ParsePeriodParam(query url.Values) (core.Period, error) {
	return core.ParsePeriod(query.Get("period"))
}

// SanitizeInput removes control characters except tab and newline, then trims whitespace.
func SanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
