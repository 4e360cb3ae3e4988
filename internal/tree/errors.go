package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// NotFoundError reports every unresolved id of a request, not just the first.
type NotFoundError struct {
	Kind string
	IDs  []int
	Name string // set for non-numeric lookups (templates)
}

func (e NotFoundError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "task"
	}
	if e.Name != "" {
		return fmt.Sprintf("%s not found: %s", kind, e.Name)
	}
	return fmt.Sprintf("%s not found: %s", kind, joinIDs(e.IDs))
}

type InvalidMoveError struct {
	ID     int
	DestID int
}

func (e InvalidMoveError) Error() string {
	if e.ID == e.DestID {
		return fmt.Sprintf("invalid move: task %d cannot become its own child", e.ID)
	}
	return fmt.Sprintf("invalid move: task %d is a descendant of task %d", e.DestID, e.ID)
}

// StateNotFoundError is returned when a task (or a requested target) carries a state
// that is not in the configured progression.
type StateNotFoundError struct {
	ID    int
	State string
}

func (e StateNotFoundError) Error() string {
	if e.ID < 0 {
		return fmt.Sprintf("state not found: %q", e.State)
	}
	return fmt.Sprintf("state not found: %q (task %d)", e.State, e.ID)
}

type EmptyNameError struct{}

func (EmptyNameError) Error() string { return "task name is empty" }

func joinIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ",")
}
