package convert

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/mesh-intelligence/almanac/internal/logger"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

// DefaultTaskTitle is used for tasks that arrive without a title.
const DefaultTaskTitle = "Untitled Task"

// Default names for untitled projects, categories and schedules.
const (
	DefaultProjectName  = "Untitled Project"
	DefaultCategoryName = "Untitled Category"
)

// Converter maps parsed documents to canonical bundles.
type Converter struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Converter.
type Option func(*Converter)

// WithClock sets the clock used for missing timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// WithIDGenerator sets the generator used for missing or duplicate ids.
func WithIDGenerator(newID func() string) Option {
	return func(c *Converter) { c.newID = newID }
}

// New returns a Converter. By default it uses time.Now and UUID v7 ids.
func New(opts ...Option) *Converter {
	c := &Converter{
		now:   time.Now,
		newID: NewID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewID returns a fresh UUID v7 string.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Convert maps doc, of format f, to a canonical bundle and repairs the
// parent/subtask links of the resulting tasks. The importer stores canonical
// documents as they are; given FormatCanonical, Convert maps the document
// like a generic one.
func (c *Converter) Convert(doc gjson.Result, f Format) *types.Bundle {
	s := newConversion(c)
	switch f {
	case FormatTodoApp:
		s.todoApp(doc)
	case FormatProjectManager:
		s.projectManager(doc)
	case FormatCalendarApp:
		s.calendarApp(doc)
	default:
		s.generic(doc)
	}
	linkSubtasks(s.tasks, s.taskIndex)
	return s.bundle()
}

// conversion holds the entities of one Convert call. Tasks live in an arena
// slice addressed by index; references between them are ids only.
type conversion struct {
	c     *Converter
	stamp time.Time

	tasks     []types.Task
	taskIndex map[string]int

	projects     []types.Project
	projectIndex map[string]int
	projectNames map[string]string // lowercase name -> id

	categories    []types.Category
	categoryIndex map[string]int
	categoryNames map[string]string // lowercase name -> id

	plans     []types.DailyPlan
	planIndex map[string]int // plan id (the date) -> index

	journal      []types.JournalEntry
	journalIndex map[string]bool

	schedule *types.WorkSchedule
}

func newConversion(c *Converter) *conversion {
	return &conversion{
		c:             c,
		stamp:         c.now().UTC(),
		taskIndex:     make(map[string]int),
		projectIndex:  make(map[string]int),
		projectNames:  make(map[string]string),
		categoryIndex: make(map[string]int),
		categoryNames: make(map[string]string),
		planIndex:     make(map[string]int),
		journalIndex:  make(map[string]bool),
	}
}

func (s *conversion) bundle() *types.Bundle {
	return &types.Bundle{
		Tasks:          nonNil(s.tasks),
		Projects:       nonNil(s.projects),
		Categories:     nonNil(s.categories),
		DailyPlans:     nonNil(s.plans),
		WorkSchedule:   s.schedule,
		JournalEntries: nonNil(s.journal),
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// uniqueID returns the record's own id unless it is missing or already
// taken, in which case a fresh id is generated.
func (s *conversion) uniqueID(r gjson.Result, taken func(string) bool, kind string) string {
	id, ok := firstString(r, idKeys...)
	if ok && !taken(id) {
		return id
	}
	fresh := s.c.newID()
	if ok {
		logger.Warn("duplicate id replaced", "kind", kind, "id", id, "new", fresh)
	}
	return fresh
}

// Projects.

func (s *conversion) project(r gjson.Result) string {
	p := types.Project{
		ID: s.uniqueID(r, func(id string) bool {
			_, ok := s.projectIndex[id]
			return ok
		}, "project"),
		Name:        stringOr(r, DefaultProjectName, nameKeys...),
		Description: stringOr(r, "", descriptionKeys...),
		Color:       stringOr(r, types.DefaultColor, colorKeys...),
	}
	if r.Type == gjson.String {
		p.Name = r.Str
	}
	p.CreatedAt, p.UpdatedAt = timestamps(r, s.stamp)

	s.projectIndex[p.ID] = len(s.projects)
	if _, dup := s.projectNames[strings.ToLower(p.Name)]; !dup {
		s.projectNames[strings.ToLower(p.Name)] = p.ID
	}
	s.projects = append(s.projects, p)
	return p.ID
}

// projectRef resolves a task's project reference by id, then by name.
// Unknown references are kept as given.
func (s *conversion) projectRef(r gjson.Result) *string {
	for _, k := range projectKeys {
		v := r.Get(k)
		ref, ok := reference(v)
		if !ok {
			continue
		}
		if _, known := s.projectIndex[ref]; known {
			return &ref
		}
		name := ref
		if v.IsObject() {
			name = stringOr(v, ref, nameKeys...)
		}
		if id, known := s.projectNames[strings.ToLower(name)]; known {
			return &id
		}
		return &ref
	}
	return nil
}

// Categories.

func (s *conversion) category(r gjson.Result) string {
	c := types.Category{
		ID: s.uniqueID(r, func(id string) bool {
			_, ok := s.categoryIndex[id]
			return ok
		}, "category"),
		Name:  stringOr(r, DefaultCategoryName, nameKeys...),
		Color: stringOr(r, types.DefaultColor, colorKeys...),
	}
	if r.Type == gjson.String {
		c.Name = r.Str
	}
	c.CreatedAt, c.UpdatedAt = timestamps(r, s.stamp)
	s.addCategory(c)
	return c.ID
}

func (s *conversion) addCategory(c types.Category) {
	s.categoryIndex[c.ID] = len(s.categories)
	if _, dup := s.categoryNames[strings.ToLower(c.Name)]; !dup {
		s.categoryNames[strings.ToLower(c.Name)] = c.ID
	}
	s.categories = append(s.categories, c)
}

// categoryRefs resolves task labels to category ids. Labels are matched by
// id, then by name; unknown names create a category.
func (s *conversion) categoryRefs(r gjson.Result) []string {
	refs := []string{}
	add := func(id string) {
		for _, existing := range refs {
			if existing == id {
				return
			}
		}
		refs = append(refs, id)
	}
	for _, k := range categoryKeys {
		v := r.Get(k)
		if !v.IsArray() {
			continue
		}
		v.ForEach(func(_, item gjson.Result) bool {
			if id, ok := s.resolveCategory(item); ok {
				add(id)
			}
			return true
		})
		break
	}
	return refs
}

func (s *conversion) resolveCategory(item gjson.Result) (string, bool) {
	var id, name string
	if item.IsObject() {
		id, _ = firstString(item, idKeys...)
		name, _ = firstString(item, nameKeys...)
	} else {
		ref, ok := reference(item)
		if !ok {
			return "", false
		}
		id, name = ref, ref
	}
	if id == "" && name == "" {
		return "", false
	}
	if _, known := s.categoryIndex[id]; known && id != "" {
		return id, true
	}
	if known, ok := s.categoryNames[strings.ToLower(name)]; ok && name != "" {
		return known, true
	}
	// A bare label that matches nothing is a name, not an id.
	if !item.IsObject() || id == "" {
		id = s.c.newID()
	}
	if name == "" {
		name = DefaultCategoryName
	}
	s.addCategory(types.Category{
		ID:        id,
		Name:      name,
		Color:     stringOr(item, types.DefaultColor, colorKeys...),
		CreatedAt: s.stamp,
		UpdatedAt: s.stamp,
	})
	return id, true
}

// Tasks.

// task converts r and any nested subtasks into the arena and returns the
// new task's id. parent overrides the record's own parent reference.
func (s *conversion) task(r gjson.Result, parent *string) string {
	t := types.Task{
		ID: s.uniqueID(r, func(id string) bool {
			_, ok := s.taskIndex[id]
			return ok
		}, "task"),
		Title:       stringOr(r, DefaultTaskTitle, titleKeys...),
		Description: stringOr(r, "", descriptionKeys...),
		Completed:   completed(r),
		Archived:    archived(r),
		DueDate:     firstDate(r, dueKeys...),
		ProjectID:   s.projectRef(r),
		CategoryIDs: s.categoryRefs(r),
		SubtaskIDs:  []string{},
	}
	if r.Type == gjson.String && strings.TrimSpace(r.Str) != "" {
		t.Title = strings.TrimSpace(r.Str)
	}
	if parent != nil {
		p := *parent
		t.ParentTaskID = &p
	} else if ref, ok := firstReference(r, parentKeys...); ok {
		t.ParentTaskID = &ref
	}
	if v, ok := types.ParsePriority(r.Get("priority").String()); ok {
		t.Priority = &v
	}
	if v, ok := types.ParseEnergy(r.Get("energy").String()); ok {
		t.Energy = &v
	}
	if v, ok := types.ParseSize(r.Get("size").String()); ok {
		t.Size = &v
	}
	if n, ok := firstInt(r, estimateKeys...); ok && n >= 0 {
		t.EstimatedMinutes = &n
	}
	t.CreatedAt, t.UpdatedAt = timestamps(r, s.stamp)

	idx := len(s.tasks)
	s.taskIndex[t.ID] = idx
	s.tasks = append(s.tasks, t)

	// Children are appended after the parent's slot; the arena may grow, so
	// the parent is written back through its index.
	subs := s.subtasks(r, t.ID)
	s.tasks[idx].SubtaskIDs = subs
	return t.ID
}

// subtasks reads the first subtask list of r. Scalar entries are ids;
// object entries are converted as child tasks of parentID.
func (s *conversion) subtasks(r gjson.Result, parentID string) []string {
	ids := []string{}
	for _, k := range subtaskKeys {
		v := r.Get(k)
		if !v.IsArray() {
			continue
		}
		v.ForEach(func(_, item gjson.Result) bool {
			if item.IsObject() {
				ids = append(ids, s.task(item, &parentID))
			} else if id, ok := reference(item); ok {
				ids = append(ids, id)
			}
			return true
		})
		break
	}
	return ids
}

// Journal entries.

func (s *conversion) journalEntry(r gjson.Result) {
	e := types.JournalEntry{
		ID: s.uniqueID(r, func(id string) bool {
			return s.journalIndex[id]
		}, "journal entry"),
		Content:   stringOr(r, "", contentKeys...),
		Completed: completed(r),
	}
	if r.Type == gjson.String {
		e.Content = r.Str
	}
	if section, ok := firstString(r, "section", "category"); ok {
		e.Section = &section
	}
	e.CreatedAt, e.UpdatedAt = timestamps(r, s.stamp)

	day, _, ok := firstWhen(r, dateKeys...)
	if !ok {
		day = e.CreatedAt
	}
	e.Date = day.Format(types.DateLayout)
	e.SetWeek(day)

	s.journalIndex[e.ID] = true
	s.journal = append(s.journal, e)
}
