package convert

import (
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mesh-intelligence/almanac/pkg/types"
)

// Fallback chains: the first key holding a usable value wins.
var (
	idKeys          = []string{"id", "_id", "uuid", "key"}
	titleKeys       = []string{"title", "name", "text", "summary"}
	nameKeys        = []string{"name", "title", "label", "text"}
	descriptionKeys = []string{"description", "notes", "note", "body", "details"}
	completedKeys   = []string{"completed", "done", "isCompleted", "checked"}
	archivedKeys    = []string{"archived", "isArchived"}
	dueKeys         = []string{"dueDate", "due_date", "due", "deadline", "dueOn"}
	projectKeys     = []string{"projectId", "project_id", "project", "listId", "list_id", "list"}
	parentKeys      = []string{"parentTaskId", "parentId", "parent_id", "parent"}
	subtaskKeys     = []string{"subtaskIds", "subtasks", "children"}
	categoryKeys    = []string{"categoryIds", "categories", "tags", "labels"}
	estimateKeys    = []string{"estimatedMinutes", "estimate", "duration", "minutes"}
	colorKeys       = []string{"color", "colour", "hexColor"}
	createdKeys     = []string{"createdAt", "created_at", "created", "dateCreated"}
	updatedKeys     = []string{"updatedAt", "updated_at", "modified", "modifiedAt", "lastModified"}
	startKeys       = []string{"start", "startDate", "startTime", "begin", "date"}
	endKeys         = []string{"end", "endDate", "endTime", "finish"}
	contentKeys     = []string{"content", "text", "body", "note", "description"}
	dateKeys        = []string{"date", "day", "entryDate"}
)

// firstString returns the first non-empty string among keys. Numbers are
// accepted in their literal form.
func firstString(r gjson.Result, keys ...string) (string, bool) {
	for _, k := range keys {
		v := r.Get(k)
		switch v.Type {
		case gjson.String:
			if s := strings.TrimSpace(v.Str); s != "" {
				return s, true
			}
		case gjson.Number:
			return v.Raw, true
		}
	}
	return "", false
}

// stringOr returns firstString or def.
func stringOr(r gjson.Result, def string, keys ...string) string {
	if s, ok := firstString(r, keys...); ok {
		return s
	}
	return def
}

// firstBool returns the first boolean-like value among keys. Numbers are
// true when non-zero; the strings "true", "yes" and "1" are true.
func firstBool(r gjson.Result, keys ...string) (bool, bool) {
	for _, k := range keys {
		v := r.Get(k)
		switch v.Type {
		case gjson.True:
			return true, true
		case gjson.False:
			return false, true
		case gjson.Number:
			return v.Num != 0, true
		case gjson.String:
			switch strings.ToLower(strings.TrimSpace(v.Str)) {
			case "true", "yes", "1":
				return true, true
			case "false", "no", "0":
				return false, true
			}
		}
	}
	return false, false
}

// completed maps completed ← completed, done, ..., status == "completed".
func completed(r gjson.Result) bool {
	if b, ok := firstBool(r, completedKeys...); ok {
		return b
	}
	switch strings.ToLower(r.Get("status").String()) {
	case "completed", "complete", "done":
		return true
	}
	return false
}

func archived(r gjson.Result) bool {
	if b, ok := firstBool(r, archivedKeys...); ok {
		return b
	}
	return strings.EqualFold(r.Get("status").String(), "archived")
}

// firstInt returns the first integral value among keys. Numeric strings
// are parsed; fractions are truncated.
func firstInt(r gjson.Result, keys ...string) (int, bool) {
	for _, k := range keys {
		v := r.Get(k)
		switch v.Type {
		case gjson.Number:
			return int(v.Num), true
		case gjson.String:
			if n, err := strconv.Atoi(strings.TrimSpace(v.Str)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// reference returns an id from a string, a number, or an object carrying
// one of idKeys.
func reference(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String:
		if s := strings.TrimSpace(v.Str); s != "" {
			return s, true
		}
	case gjson.Number:
		return v.Raw, true
	case gjson.JSON:
		if v.IsObject() {
			return firstString(v, idKeys...)
		}
	}
	return "", false
}

// firstReference returns the first reference among keys.
func firstReference(r gjson.Result, keys ...string) (string, bool) {
	for _, k := range keys {
		if id, ok := reference(r.Get(k)); ok {
			return id, true
		}
	}
	return "", false
}

// timeLayouts are tried in order when parsing foreign timestamps.
var timeLayouts = []struct {
	layout   string
	hasClock bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02 15:04", true},
	{types.DateLayout, false},
	{"2006/01/02", false},
}

// parseWhen parses a timestamp value. The second result reports whether the
// value carried a time of day. Objects of the form {"dateTime": ...} or
// {"date": ...} are unwrapped; numbers are Unix seconds or milliseconds.
func parseWhen(v gjson.Result) (time.Time, bool, bool) {
	switch v.Type {
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		for _, l := range timeLayouts {
			if t, err := time.Parse(l.layout, s); err == nil {
				return t, l.hasClock, true
			}
		}
	case gjson.Number:
		n := v.Int()
		if n <= 0 {
			return time.Time{}, false, false
		}
		if n > 1e11 {
			return time.UnixMilli(n).UTC(), true, true
		}
		return time.Unix(n, 0).UTC(), true, true
	case gjson.JSON:
		if v.IsObject() {
			for _, k := range []string{"dateTime", "date"} {
				if t, clock, ok := parseWhen(v.Get(k)); ok {
					return t, clock, true
				}
			}
		}
	}
	return time.Time{}, false, false
}

// firstWhen returns the first parseable timestamp among keys.
func firstWhen(r gjson.Result, keys ...string) (time.Time, bool, bool) {
	for _, k := range keys {
		if t, clock, ok := parseWhen(r.Get(k)); ok {
			return t, clock, true
		}
	}
	return time.Time{}, false, false
}

// firstDate returns the calendar date of the first parseable timestamp
// among keys.
func firstDate(r gjson.Result, keys ...string) *string {
	t, _, ok := firstWhen(r, keys...)
	if !ok {
		return nil
	}
	d := t.Format(types.DateLayout)
	return &d
}

// timestamps returns created and updated times, defaulting created to now
// and updated to created.
func timestamps(r gjson.Result, now time.Time) (time.Time, time.Time) {
	created, _, ok := firstWhen(r, createdKeys...)
	if !ok {
		created = now
	}
	updated, _, ok := firstWhen(r, updatedKeys...)
	if !ok {
		updated = created
	}
	return created, updated
}

func hasAny(r gjson.Result, keys ...string) bool {
	for _, k := range keys {
		if r.Get(k).Exists() {
			return true
		}
	}
	return false
}
