package convert

import (
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mesh-intelligence/almanac/pkg/types"
)

// defaultBlockLength is used for timed events that carry no end.
const defaultBlockLength = time.Hour

// todoApp maps {"lists": [...], "items": [...]}: lists become projects and
// items become tasks.
func (s *conversion) todoApp(doc gjson.Result) {
	eachElement(lookup(doc, "lists"), func(r gjson.Result) { s.project(r) })
	s.topLevelCategories(doc)
	eachElement(lookup(doc, "items"), func(r gjson.Result) { s.task(r, nil) })
}

// projectManager maps {"projects": [...], "tasks": [...]} with optional
// top-level categories, tags or labels.
func (s *conversion) projectManager(doc gjson.Result) {
	eachElement(lookup(doc, "projects"), func(r gjson.Result) { s.project(r) })
	s.topLevelCategories(doc)
	eachElement(lookup(doc, "tasks"), func(r gjson.Result) { s.task(r, nil) })
}

func (s *conversion) topLevelCategories(doc gjson.Result) {
	for _, key := range []string{"categories", "tags", "labels"} {
		if v := lookup(doc, key); v.IsArray() {
			eachElement(v, func(r gjson.Result) { s.category(r) })
			return
		}
	}
}

// calendarApp maps calendar events to tasks due on the event day. Timed
// events also become a time block in that day's plan.
func (s *conversion) calendarApp(doc gjson.Result) {
	events := lookup(doc, "events")
	if !events.IsArray() {
		cal := lookup(doc, "calendar")
		switch {
		case cal.IsArray():
			events = cal
		case cal.IsObject():
			events = lookup(cal, "events")
			if !events.IsArray() {
				events = lookup(cal, "items")
			}
		}
	}
	eachElement(events, s.event)
	sort.SliceStable(s.plans, func(i, j int) bool { return s.plans[i].Date < s.plans[j].Date })
	for i := range s.plans {
		s.planIndex[s.plans[i].ID] = i
	}
}

func (s *conversion) event(r gjson.Result) {
	id := s.task(r, nil)
	t := &s.tasks[s.taskIndex[id]]

	start, clock, ok := firstWhen(r, startKeys...)
	if !ok {
		return
	}
	date := start.Format(types.DateLayout)
	if t.DueDate == nil {
		t.DueDate = &date
	}
	if !clock {
		return
	}

	end, endClock, ok := firstWhen(r, endKeys...)
	if !ok || !endClock || end.Before(start) {
		length := defaultBlockLength
		if t.EstimatedMinutes != nil && *t.EstimatedMinutes > 0 {
			length = time.Duration(*t.EstimatedMinutes) * time.Minute
		}
		end = start.Add(length)
	}

	taskID := id
	block := types.TimeBlock{
		ID:          s.c.newID(),
		StartTime:   start.Format("15:04"),
		EndTime:     end.Format("15:04"),
		TaskID:      &taskID,
		TaskIDs:     []string{id},
		Title:       t.Title,
		Description: t.Description,
	}
	plan := s.plan(date)
	plan.TimeBlocks = append(plan.TimeBlocks, block)
}

// plan returns the daily plan for date, creating it on first use.
func (s *conversion) plan(date string) *types.DailyPlan {
	if i, ok := s.planIndex[date]; ok {
		return &s.plans[i]
	}
	s.planIndex[date] = len(s.plans)
	s.plans = append(s.plans, types.DailyPlan{ID: date, Date: date, TimeBlocks: []types.TimeBlock{}})
	return &s.plans[len(s.plans)-1]
}

// genericKind is what a top-level array of a generic document maps to.
type genericKind int

const (
	kindTask genericKind = iota
	kindProject
	kindCategory
	kindJournal
)

// genericTitleKeys mark an array's elements as convertible records.
var genericTitleKeys = []string{"title", "name", "text", "description"}

// generic scans every top-level array whose first element is an object
// with a title-like field. The array's key decides the target: projects,
// categories (or tags, labels), journal entries, otherwise tasks.
func (s *conversion) generic(doc gjson.Result) {
	if !doc.IsObject() {
		return
	}
	groups := make(map[genericKind][]gjson.Result)
	doc.ForEach(func(key, value gjson.Result) bool {
		if !value.IsArray() {
			return true
		}
		first := value.Get("0")
		if !first.IsObject() || !hasAny(first, genericTitleKeys...) {
			return true
		}
		kind := classifyArray(key.String())
		groups[kind] = append(groups[kind], value)
		return true
	})

	for _, v := range groups[kindProject] {
		eachElement(v, func(r gjson.Result) { s.project(r) })
	}
	for _, v := range groups[kindCategory] {
		eachElement(v, func(r gjson.Result) { s.category(r) })
	}
	for _, v := range groups[kindTask] {
		eachElement(v, func(r gjson.Result) { s.task(r, nil) })
	}
	for _, v := range groups[kindJournal] {
		eachElement(v, s.journalEntry)
	}
}

func classifyArray(key string) genericKind {
	k := strings.ToLower(key)
	switch {
	case strings.Contains(k, "project"):
		return kindProject
	case strings.Contains(k, "categor"), strings.Contains(k, "tag"), strings.Contains(k, "label"):
		return kindCategory
	case strings.Contains(k, "journal"), strings.Contains(k, "diary"):
		return kindJournal
	default:
		return kindTask
	}
}

// eachElement calls fn for every element of arr; non-arrays are ignored.
func eachElement(arr gjson.Result, fn func(gjson.Result)) {
	if !arr.IsArray() {
		return
	}
	arr.ForEach(func(_, item gjson.Result) bool {
		fn(item)
		return true
	})
}
