package types

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// RecordID returns the "id" field of a stored JSON document.
// Numeric ids are returned in their literal form.
// Returns ErrInvalidData if the document is not a JSON object and
// ErrInvalidID if the id is missing, empty, or not a string or number.
func RecordID(record json.RawMessage) (string, error) {
	if !gjson.ValidBytes(record) {
		return "", ErrInvalidData
	}
	doc := gjson.ParseBytes(record)
	if !doc.IsObject() {
		return "", ErrInvalidData
	}
	id := doc.Get("id")
	switch id.Type {
	case gjson.String:
		if id.Str == "" {
			return "", ErrInvalidID
		}
		return id.Str, nil
	case gjson.Number:
		return id.Raw, nil
	default:
		return "", ErrInvalidID
	}
}
