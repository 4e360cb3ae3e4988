package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Task is one node of the hierarchy. Subtasks are owned exclusively by their parent;
// there are no back-references, parents are found by walking the forest.
type Task struct {
	ID          int
	Name        string
	State       string
	Description *string
	Priority    *int
	Group       *string
	DueDate     *string

	// Subtasks is nil when the field is absent from the document and an empty,
	// non-nil slice when it was stored as [].
	Subtasks []Task
}

// taskJSON is the wire shape of a Task. Subtasks goes through a pointer so that an
// absent field and an explicit empty list survive a load/save round-trip. An
// explicit null in any optional field loads as absent and is saved without the key.
type taskJSON struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	State       string  `json:"state"`
	Description *string `json:"description,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
	Group       *string `json:"group,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Subtasks    *[]Task `json:"subtasks,omitempty"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	w := taskJSON{
		ID:          t.ID,
		Name:        t.Name,
		State:       t.State,
		Description: t.Description,
		Priority:    t.Priority,
		Group:       t.Group,
		DueDate:     t.DueDate,
	}
	if t.Subtasks != nil {
		subs := t.Subtasks
		w.Subtasks = &subs
	}
	return json.Marshal(w)
}

func (t *Task) UnmarshalJSON(b []byte) error {
	var w taskJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*t = Task{
		ID:          w.ID,
		Name:        w.Name,
		State:       w.State,
		Description: w.Description,
		Priority:    w.Priority,
		Group:       w.Group,
		DueDate:     w.DueDate,
	}
	if w.Subtasks != nil {
		t.Subtasks = *w.Subtasks
		if t.Subtasks == nil {
			t.Subtasks = []Task{}
		}
	}
	return nil
}

// Clone returns a deep copy of t and its subtree.
func (t Task) Clone() Task {
	out := t
	out.Description = cloneStr(t.Description)
	out.Group = cloneStr(t.Group)
	out.DueDate = cloneStr(t.DueDate)
	if t.Priority != nil {
		p := *t.Priority
		out.Priority = &p
	}
	if t.Subtasks != nil {
		out.Subtasks = make([]Task, len(t.Subtasks))
		for i := range t.Subtasks {
			out.Subtasks[i] = t.Subtasks[i].Clone()
		}
	}
	return out
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// TaskAttributes is the attribute bundle used to create a task, either from a
// command or from a template skeleton.
type TaskAttributes struct {
	Name        string  `json:"name"`
	State       string  `json:"state,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
	Group       *string `json:"group,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`

	// Template names a Metadata template whose subtasks are copied into the new task.
	Template string `json:"template,omitempty"`

	Subtasks []TaskAttributes `json:"subtasks,omitempty"`
}

// Field names an optional Task attribute that a patch can clear.
type Field string

const (
	FieldDescription Field = "description"
	FieldPriority    Field = "priority"
	FieldGroup       Field = "group"
	FieldDueDate     Field = "dueDate"
)

func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "description", "desc":
		return FieldDescription, nil
	case "priority", "prio":
		return FieldPriority, nil
	case "group":
		return FieldGroup, nil
	case "duedate", "due", "due-date":
		return FieldDueDate, nil
	default:
		return "", fmt.Errorf("invalid field: %q (expected description|priority|group|dueDate)", s)
	}
}

// TaskPatch is a partial set of attributes. Nil pointers leave the existing value
// untouched; Unset lists optional fields to drop back to "absent".
type TaskPatch struct {
	Name        *string `json:"name,omitempty"`
	State       *string `json:"state,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
	Group       *string `json:"group,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Unset       []Field `json:"unset,omitempty"`
}

func (p TaskPatch) IsEmpty() bool {
	return p.Name == nil && p.State == nil && p.Description == nil && p.Priority == nil &&
		p.Group == nil && p.DueDate == nil && len(p.Unset) == 0
}

// Apply merges the patch into t. Only t itself is touched, never its subtasks.
func (p TaskPatch) Apply(t *Task) {
	for _, f := range p.Unset {
		switch f {
		case FieldDescription:
			t.Description = nil
		case FieldPriority:
			t.Priority = nil
		case FieldGroup:
			t.Group = nil
		case FieldDueDate:
			t.DueDate = nil
		}
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.State != nil {
		t.State = *p.State
	}
	if p.Description != nil {
		t.Description = cloneStr(p.Description)
	}
	if p.Priority != nil {
		v := *p.Priority
		t.Priority = &v
	}
	if p.Group != nil {
		t.Group = cloneStr(p.Group)
	}
	if p.DueDate != nil {
		t.DueDate = cloneStr(p.DueDate)
	}
}

// PriorityMarker is the symbol repeated to express a priority level.
const PriorityMarker = '!'

// ParsePriority maps a run of markers to a level: "!!" => 2. No markers means no
// priority, reported as nil rather than zero.
func ParsePriority(markers string) (*int, error) {
	markers = strings.TrimSpace(markers)
	if markers == "" {
		return nil, nil
	}
	n := 0
	for _, r := range markers {
		if r != PriorityMarker {
			return nil, fmt.Errorf("invalid priority %q: use %q markers (e.g. %q)", markers, string(PriorityMarker), "!!")
		}
		n++
	}
	return &n, nil
}

// FormatPriority renders a priority as markers. Unset renders as "".
func FormatPriority(p *int) string {
	if p == nil || *p <= 0 {
		return ""
	}
	return strings.Repeat(string(PriorityMarker), *p)
}

const DateLayout = "2006-01-02"

// ParseDueDate validates a YYYY-MM-DD calendar date and returns it normalized.
func ParseDueDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	ts, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid due date %q (expected YYYY-MM-DD)", s)
	}
	return ts.Format(DateLayout), nil
}

func StrPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }
