package repository

import (
	"strconv"
	"strings"
	"time"

	"github.com/merchantry/merchantry/pkg/apperror"
	"github.com/merchantry/merchantry/pkg/dates"
)

// Reserved list-query keys that never become field filters.
const (
	keyDateRange = "dateRange"
	keyStart     = "start"
	keyEnd       = "end"
	keyOrder     = "order"
)

// ListQuery carries the findAll input: mandatory pagination plus a
// free-form key/value bag of field filters and reserved keys.
type ListQuery struct {
	Page  *int64
	Limit *int64
	Query map[string]string
}

// NewListQuery builds a ListQuery with pagination set.
func NewListQuery(page, limit int64, query map[string]string) ListQuery {
	return ListQuery{Page: &page, Limit: &limit, Query: query}
}

// buildListFilter merges the per-field regex filters, the date filter
// and the archived flag into one store filter.
func buildListFilter(q ListQuery, now time.Time) (Filter, error) {
	filter := Filter{}

	for key, value := range q.Query {
		switch key {
		case keyDateRange, keyStart, keyEnd, keyOrder, FieldArchived:
			continue
		}
		if value == "" {
			continue
		}
		// Case-insensitive partial match on the field.
		filter[key] = Filter{"$regex": value, "$options": "i"}
	}

	start, end, ok, err := dateWindow(q.Query, now)
	if err != nil {
		return nil, err
	}
	if ok {
		filter[FieldCreatedAt] = Filter{"$gte": start, "$lte": end}
	}

	// Archived records stay out of normal listings unless asked for.
	archived := false
	if raw, present := q.Query[FieldArchived]; present {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperror.BadRequest("isArchived must be a boolean")
		}
		archived = parsed
	}
	filter[FieldArchived] = archived

	return filter, nil
}

// dateWindow extracts the inclusive createdAt window from the query.
// dateRange takes either a "<start>|<end>" timestamp pair or a
// symbolic label; separate start/end keys are the fallback.
func dateWindow(query map[string]string, now time.Time) (time.Time, time.Time, bool, error) {
	if raw := query[keyDateRange]; raw != "" {
		if dates.IsLabel(raw) {
			start, end, err := dates.Resolve(raw, now)
			if err != nil {
				return time.Time{}, time.Time{}, false, err
			}
			return start, end, true, nil
		}
		parts := strings.SplitN(raw, "|", 2)
		if len(parts) != 2 {
			return time.Time{}, time.Time{}, false, apperror.BadRequest("dateRange must be <start>|<end>")
		}
		return parseWindow(parts[0], parts[1])
	}

	startRaw, endRaw := query[keyStart], query[keyEnd]
	if startRaw != "" && endRaw != "" {
		return parseWindow(startRaw, endRaw)
	}

	return time.Time{}, time.Time{}, false, nil
}

func parseWindow(startRaw, endRaw string) (time.Time, time.Time, bool, error) {
	start, err := parseTimestamp(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, false, apperror.BadRequest("invalid start date: " + startRaw)
	}
	end, err := parseTimestamp(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, false, apperror.BadRequest("invalid end date: " + endRaw)
	}
	return start, end, true, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// listSort derives the createdAt sort direction from the reserved
// order key; anything but asc sorts newest first.
func listSort(query map[string]string) Filter {
	dir := -1
	if strings.EqualFold(query[keyOrder], "asc") {
		dir = 1
	}
	return Filter{FieldCreatedAt: dir}
}
