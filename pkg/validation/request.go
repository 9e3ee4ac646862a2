package validation

import (
	"context"
	"strconv"

	"github.com/merchantry/merchantry/pkg/apperror"
)

// Counter reports the live record count a list request runs against.
type Counter interface {
	Count(ctx context.Context, filter map[string]interface{}) (int64, error)
}

// ValidateListRequest checks the pagination inputs of a list request.
// Missing page or limit produce field errors; a page past the last one
// is reset to 1 so the list math never runs out of range.
func ValidateListRequest(ctx context.Context, counter Counter, values map[string]interface{}) (page, limit int64, err error) {
	errs := Errors{}

	page, ok := intValue(values["page"])
	if !ok {
		errs.Add("page", "page is required")
	}
	limit, ok = intValue(values["limit"])
	if !ok {
		errs.Add("limit", "limit is required")
	}
	if !errs.Empty() {
		return 0, 0, apperror.Validation(errs)
	}
	if page < 1 || limit < 1 {
		errs.Add("page", "page and limit must be positive")
		return 0, 0, apperror.Validation(errs)
	}

	total, err := counter.Count(ctx, map[string]interface{}{})
	if err != nil {
		return 0, 0, apperror.Internal("record count failed", err)
	}
	lastPage := (total + limit - 1) / limit
	if lastPage > 0 && page > lastPage {
		page = 1
	}
	return page, limit, nil
}

// intValue coerces the loosely-typed pagination inputs: JSON numbers
// decode as float64, query parameters arrive as strings.
func intValue(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}
