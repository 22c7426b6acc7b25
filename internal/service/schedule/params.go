package schedule

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	apperrors "github.com/luckypig3400/NEC-Backend/pkg/errors"
)

const (
	msgMissingDateRange  = "missing date range"
	msgMissingPagination = "missing pagination parameters"
)

// ListParams are the raw query string values of a schedule listing.
type ListParams struct {
	Limit     string `form:"limit"`
	Offset    string `form:"offset"`
	Sort      string `form:"sort"`
	Desc      string `form:"desc"`
	Search    string `form:"search"`
	DateRange string `form:"dateRange"`
	Status    string `form:"status"`
}

// Query is a validated listing request.
type Query struct {
	Filter *model.ScheduleFilter
	Sort   string
	Desc   bool
	Limit  int64
	Offset int64
}

// Skip is the number of rows before the page: offset is a page index.
func (q *Query) Skip() int64 {
	return q.Limit * q.Offset
}

// ParseListParams validates p. Missing parameters are bad requests; values
// that are present but cannot be parsed are plain errors.
func ParseListParams(p ListParams) (*Query, error) {
	allTime := model.ScheduleStatus(p.Status) == model.ScheduleStatusAll

	if !allTime && strings.TrimSpace(p.DateRange) == "" {
		return nil, apperrors.NewBadRequest(msgMissingDateRange, nil)
	}
	if strings.TrimSpace(p.Limit) == "" || strings.TrimSpace(p.Offset) == "" {
		return nil, apperrors.NewBadRequest(msgMissingPagination, nil)
	}

	q := &Query{
		Filter: &model.ScheduleFilter{Search: p.Search},
		Sort:   strings.TrimSpace(p.Sort),
	}

	var err error
	if q.Limit, err = parseCount("limit", p.Limit); err != nil {
		return nil, err
	}
	if q.Offset, err = parseCount("offset", p.Offset); err != nil {
		return nil, err
	}
	if q.Desc, err = parseDesc(p.Desc); err != nil {
		return nil, err
	}
	if p.Search != "" {
		if _, err := regexp.Compile(p.Search); err != nil {
			return nil, fmt.Errorf("invalid search pattern: %w", err)
		}
	}
	if !allTime {
		if q.Filter.DateRange, err = ParseDateRange(p.DateRange); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func parseCount(name, raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", name, raw)
	}
	return n, nil
}

// parseDesc reads the direction flag: 0 or absent is ascending, any other
// number descending.
func parseDesc(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return false, fmt.Errorf("invalid desc %q: %w", raw, err)
	}
	return f != 0, nil
}

// ParseDateRange decodes a serialized {"from": ..., "to": ...} object. Bounds
// may be RFC 3339 timestamps, YYYY-MM-DD dates or epoch milliseconds.
func ParseDateRange(raw string) (*model.DateRange, error) {
	var v struct {
		From json.RawMessage `json:"from"`
		To   json.RawMessage `json:"to"`
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("invalid date range: %w", err)
	}

	from, err := parseBound("from", v.From)
	if err != nil {
		return nil, err
	}
	to, err := parseBound("to", v.To)
	if err != nil {
		return nil, err
	}
	return &model.DateRange{From: from, To: to}, nil
}

func parseBound(name string, raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, fmt.Errorf("invalid date range: missing %s", name)
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(int64(ms)).UTC(), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("invalid date range %s: %w", name, err)
	}
	return parseTime(name, s)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTime(name, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date range %s: %q is not a timestamp", name, s)
}
