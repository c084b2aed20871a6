// Package convert classifies JSON documents by shape and maps foreign
// schemas onto the canonical Almanac entities.
//
// Conversion is best effort: a record that cannot be mapped gets defaults
// and conversion continues. Nothing in this package returns an error for
// bad input.
package convert

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Format identifies the shape of an import document.
type Format string

// Known formats.
const (
	FormatCanonical      Format = "canonical"
	FormatTodoApp        Format = "todo-app"
	FormatProjectManager Format = "project-manager"
	FormatCalendarApp    Format = "calendar-app"
	FormatGeneric        Format = "generic"
)

// canonicalKeys are the lowercase section keys of a canonical bundle.
var canonicalKeys = []string{
	"tasks",
	"projects",
	"categories",
	"dailyplans",
	"workschedule",
	"journalentries",
}

// informationalKeys may appear in a canonical bundle without carrying data.
// workschedules is the legacy spelling of workschedule.
var informationalKeys = map[string]bool{
	"exportdate":    true,
	"version":       true,
	"workschedules": true,
}

// canonicalAliases maps legacy section spellings onto the canonical key they
// count as when matching.
var canonicalAliases = map[string]string{
	"workschedules": "workschedule",
}

// minCanonicalMatches is how many canonical keys a document needs to be
// classified as canonical.
const minCanonicalMatches = 3

// DetectKeys classifies a document from its top-level keys. Rules apply in
// order: canonical, todo-app, project-manager, calendar-app, generic.
func DetectKeys(keys []string) Format {
	set := lowerSet(keys)

	matches := 0
	for _, k := range canonicalKeys {
		if set[k] || aliased(set, k) {
			matches++
		}
	}
	switch {
	case matches >= minCanonicalMatches:
		return FormatCanonical
	case set["items"] || set["lists"]:
		return FormatTodoApp
	case set["tasks"] && set["projects"] && !set["lists"]:
		return FormatProjectManager
	case set["events"] || set["calendar"]:
		return FormatCalendarApp
	default:
		return FormatGeneric
	}
}

// Detect classifies a parsed document. Anything other than an object is
// generic.
func Detect(doc gjson.Result) Format {
	return DetectKeys(objectKeys(doc))
}

// Classify is DetectKeys for the importer. A document that DetectKeys calls
// generic but whose keys are all canonical section or informational keys is
// canonical, so a partial export such as {"tasks": [...]} is stored verbatim
// instead of being converted. Every other foreign format stands.
func Classify(keys []string) Format {
	f := DetectKeys(keys)
	if f != FormatGeneric || len(keys) == 0 {
		return f
	}
	for _, k := range keys {
		lk := strings.ToLower(k)
		if !informationalKeys[lk] && !isCanonicalKey(lk) {
			return f
		}
	}
	return FormatCanonical
}

func aliased(set map[string]bool, canonical string) bool {
	for alias, k := range canonicalAliases {
		if k == canonical && set[alias] {
			return true
		}
	}
	return false
}

func isCanonicalKey(lower string) bool {
	for _, k := range canonicalKeys {
		if k == lower {
			return true
		}
	}
	return false
}

func lowerSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = true
	}
	return set
}

func objectKeys(doc gjson.Result) []string {
	if !doc.IsObject() {
		return nil
	}
	var keys []string
	doc.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// lookup returns the member of obj named name, matching case-insensitively
// when there is no exact match.
func lookup(obj gjson.Result, name string) gjson.Result {
	if !obj.IsObject() {
		return gjson.Result{}
	}
	if r := obj.Get(gjson.Escape(name)); r.Exists() {
		return r
	}
	var found gjson.Result
	obj.ForEach(func(key, value gjson.Result) bool {
		if strings.EqualFold(key.String(), name) {
			found = value
			return false
		}
		return true
	})
	return found
}
