package transfer

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"

	"github.com/mesh-intelligence/almanac/internal/logger"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

// normalize drops records that are not JSON objects and gives records
// without a usable id a fresh one.
func normalize(section string, records []json.RawMessage, newID func() string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(records))
	for i, r := range records {
		_, err := types.RecordID(r)
		switch {
		case err == nil:
			out = append(out, r)
		case errors.Is(err, types.ErrInvalidID):
			fixed, err := withID(r, newID())
			if err != nil {
				logger.Warn("record skipped", "section", section, "index", i, "error", err)
				continue
			}
			out = append(out, fixed)
		default:
			logger.Warn("record skipped, not an object", "section", section, "index", i)
		}
	}
	return out
}

// withID returns r with its "id" member set to id.
func withID(r json.RawMessage, id string) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r, &fields); err != nil {
		return nil, err
	}
	quoted, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}
	fields["id"] = quoted
	return json.Marshal(fields)
}

// encodeAll marshals each item to a stored document.
func encodeAll[T any](items []T) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// validSchedule reports whether a work schedule object has an id and an
// array of shifts.
func validSchedule(obj json.RawMessage) bool {
	if _, err := types.RecordID(obj); err != nil {
		return false
	}
	return gjson.GetBytes(obj, "shifts").IsArray()
}
