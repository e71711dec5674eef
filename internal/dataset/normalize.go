package dataset

import (
	"time"
)

// DateColumns lists, per table, the columns coerced to timestamps.
var DateColumns = map[TableName][]string{
	TableProducts:     {"created_at"},
	TableGroupBoards:  {"created_at", "deadline", "updated_at"},
	TableParticipants: {"joined_at"},
	TableUsers:        {"joined_date", "created_at"},
	TableFavorites:    {"created_at"},
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006.01.02",
}

// ParseTimestamp tries each accepted layout in order.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize coerces the table's date columns. Cells that do not parse become
// nil; columns missing from the frame are skipped.
func Normalize(table TableName, f Frame) Frame {
	if f.Nrow() == 0 {
		return f
	}
	for _, col := range DateColumns[table] {
		raw := f.Strings(col)
		if raw == nil {
			continue
		}
		parsed := make([]*time.Time, len(raw))
		for i, v := range raw {
			if t, ok := ParseTimestamp(v); ok {
				parsed[i] = &t
			}
		}
		f = f.withTimes(col, parsed)
	}
	return f
}
