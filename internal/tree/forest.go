// Package tree holds the in-memory task forest and the algorithms that mutate it.
//
// Every operation is synchronous and touches memory only; persistence belongs to
// internal/store. Batch operations resolve and validate every requested id before
// the first structural change, so a failed call leaves the forest untouched.
package tree

import (
	"fmt"
	"slices"
	"strings"

	"tasktree-cli/internal/model"
	"tasktree-cli/internal/statusutil"
)

type Forest struct {
	Roots []model.Task
}

func New(roots []model.Task) *Forest {
	return &Forest{Roots: roots}
}

// Location is where a task lives: the task itself, its owner (nil for roots) and its
// position among its siblings. The pointers are only valid until the next structural
// change to the forest.
type Location struct {
	Task   *model.Task
	Parent *model.Task
	Index  int
}

// AllocateID returns max(id)+1 over the whole forest, or 0 for an empty forest.
func (f *Forest) AllocateID() int {
	next := 0
	f.Walk(func(t *model.Task, _ int) {
		if t.ID >= next {
			next = t.ID + 1
		}
	})
	return next
}

// Find performs a depth-first search: roots in order, each root's subtasks recursively.
func (f *Forest) Find(id int) (Location, error) {
	if loc, ok := find(f.Roots, nil, id); ok {
		return loc, nil
	}
	return Location{}, NotFoundError{IDs: []int{id}}
}

func find(list []model.Task, parent *model.Task, id int) (Location, bool) {
	for i := range list {
		t := &list[i]
		if t.ID == id {
			return Location{Task: t, Parent: parent, Index: i}, true
		}
		if loc, ok := find(t.Subtasks, t, id); ok {
			return loc, true
		}
	}
	return Location{}, false
}

// Walk visits every task depth-first in declared order.
func (f *Forest) Walk(fn func(t *model.Task, depth int)) {
	var walk func(list []model.Task, depth int)
	walk = func(list []model.Task, depth int) {
		for i := range list {
			fn(&list[i], depth)
			walk(list[i].Subtasks, depth+1)
		}
	}
	walk(f.Roots, 0)
}

func (f *Forest) Count() int {
	n := 0
	f.Walk(func(*model.Task, int) { n++ })
	return n
}

func (f *Forest) IDs() []int {
	out := []int{}
	f.Walk(func(t *model.Task, _ int) { out = append(out, t.ID) })
	return out
}

// Subtree returns a deep copy of the task with the given id.
func (f *Forest) Subtree(id int) (model.Task, error) {
	loc, err := f.Find(id)
	if err != nil {
		return model.Task{}, err
	}
	return loc.Task.Clone(), nil
}

// Clone deep-copies the forest.
func (f *Forest) Clone() *Forest {
	out := &Forest{Roots: make([]model.Task, len(f.Roots))}
	for i := range f.Roots {
		out.Roots[i] = f.Roots[i].Clone()
	}
	return out
}

// CheckUniqueIDs reports the first id that appears more than once.
func (f *Forest) CheckUniqueIDs() error {
	seen := map[int]bool{}
	var dup *int
	f.Walk(func(t *model.Task, _ int) {
		if dup != nil {
			return
		}
		if t.ID < 0 {
			id := t.ID
			dup = &id
			return
		}
		if seen[t.ID] {
			id := t.ID
			dup = &id
			return
		}
		seen[t.ID] = true
	})
	if dup != nil {
		return fmt.Errorf("invalid or duplicate task id: %d", *dup)
	}
	return nil
}

// resolve returns the location of every id, or a NotFoundError naming all missing ids.
func (f *Forest) resolve(ids []int) ([]Location, error) {
	locs := make([]Location, 0, len(ids))
	var missing []int
	for _, id := range ids {
		loc, ok := find(f.Roots, nil, id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		locs = append(locs, loc)
	}
	if len(missing) > 0 {
		return nil, NotFoundError{IDs: missing}
	}
	return locs, nil
}

func (f *Forest) siblings(loc Location) *[]model.Task {
	if loc.Parent == nil {
		return &f.Roots
	}
	return &loc.Parent.Subtasks
}

func (f *Forest) detach(id int) (model.Task, bool) {
	loc, ok := find(f.Roots, nil, id)
	if !ok {
		return model.Task{}, false
	}
	sib := f.siblings(loc)
	t := (*sib)[loc.Index]
	*sib = slices.Delete(*sib, loc.Index, loc.Index+1)
	return t, true
}

// Insert creates a task from attrs and appends it as a new root (parentID nil) or as the
// last child of parentID. Template subtasks are deep-copied under fresh ids.
func (f *Forest) Insert(meta model.Metadata, attrs model.TaskAttributes, parentID *int) (int, error) {
	if parentID != nil {
		if _, err := f.Find(*parentID); err != nil {
			return 0, err
		}
	}

	next := f.AllocateID()
	task, err := build(meta, attrs, &next, nil)
	if err != nil {
		return 0, err
	}

	if parentID == nil {
		f.Roots = append(f.Roots, task)
		return task.ID, nil
	}
	loc, err := f.Find(*parentID)
	if err != nil {
		return 0, err
	}
	loc.Task.Subtasks = append(loc.Task.Subtasks, task)
	return task.ID, nil
}

func build(meta model.Metadata, attrs model.TaskAttributes, next *int, templatePath []string) (model.Task, error) {
	name := strings.TrimSpace(attrs.Name)
	if name == "" {
		return model.Task{}, EmptyNameError{}
	}
	state := strings.TrimSpace(attrs.State)
	if state == "" {
		state = meta.InitialState()
	}
	if !statusutil.ValidateState(meta, state) {
		return model.Task{}, StateNotFoundError{ID: -1, State: state}
	}
	if attrs.DueDate != nil {
		if _, err := model.ParseDueDate(*attrs.DueDate); err != nil {
			return model.Task{}, err
		}
	}
	if attrs.Priority != nil && *attrs.Priority < 0 {
		return model.Task{}, fmt.Errorf("invalid priority: %d", *attrs.Priority)
	}

	t := model.Task{
		ID:    *next,
		Name:  name,
		State: state,
	}
	*next++
	patch := model.TaskPatch{Description: attrs.Description, Priority: attrs.Priority, Group: attrs.Group, DueDate: attrs.DueDate}
	patch.Apply(&t)

	for _, sub := range attrs.Subtasks {
		child, err := build(meta, sub, next, templatePath)
		if err != nil {
			return model.Task{}, err
		}
		t.Subtasks = append(t.Subtasks, child)
	}

	if tmplName := strings.TrimSpace(attrs.Template); tmplName != "" {
		if slices.Contains(templatePath, tmplName) {
			return model.Task{}, fmt.Errorf("template %q includes itself", tmplName)
		}
		tmpl, ok := meta.FindTemplate(tmplName)
		if !ok {
			return model.Task{}, NotFoundError{Kind: "template", Name: tmplName}
		}
		path := append(slices.Clone(templatePath), tmplName)
		for _, sub := range tmpl.Subtasks {
			child, err := build(meta, sub, next, path)
			if err != nil {
				return model.Task{}, err
			}
			t.Subtasks = append(t.Subtasks, child)
		}
	}
	return t, nil
}

// Edit merges patch into every task in ids (and, when recursive, into all of their
// descendants). It returns the affected ids in visiting order without duplicates.
func (f *Forest) Edit(meta model.Metadata, ids []int, patch model.TaskPatch, recursive bool) ([]int, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, EmptyNameError{}
	}
	if patch.State != nil && !statusutil.ValidateState(meta, *patch.State) {
		return nil, StateNotFoundError{ID: -1, State: *patch.State}
	}
	if patch.DueDate != nil {
		if _, err := model.ParseDueDate(*patch.DueDate); err != nil {
			return nil, err
		}
	}
	locs, err := f.resolve(ids)
	if err != nil {
		return nil, err
	}

	targets := collectTargets(locs, recursive)
	affected := make([]int, 0, len(targets))
	for _, t := range targets {
		patch.Apply(t)
		affected = append(affected, t.ID)
	}
	return affected, nil
}

// Advance moves every target to the next configured state. Tasks already in the
// terminal state stay there. A stale state aborts the call before anything changes.
func (f *Forest) Advance(meta model.Metadata, ids []int, recursive bool) ([]int, error) {
	locs, err := f.resolve(ids)
	if err != nil {
		return nil, err
	}

	targets := collectTargets(locs, recursive)
	nextStates := make([]string, len(targets))
	for i, t := range targets {
		next, ok := statusutil.Next(meta, t.State)
		if !ok {
			return nil, StateNotFoundError{ID: t.ID, State: t.State}
		}
		nextStates[i] = next
	}

	affected := make([]int, 0, len(targets))
	for i, t := range targets {
		t.State = nextStates[i]
		affected = append(affected, t.ID)
	}
	return affected, nil
}

func collectTargets(locs []Location, recursive bool) []*model.Task {
	seen := map[int]bool{}
	out := []*model.Task{}
	var add func(t *model.Task)
	add = func(t *model.Task) {
		if !seen[t.ID] {
			seen[t.ID] = true
			out = append(out, t)
		}
		if !recursive {
			return
		}
		for i := range t.Subtasks {
			add(&t.Subtasks[i])
		}
	}
	for _, loc := range locs {
		add(loc.Task)
	}
	return out
}

// Remove detaches each task, with its whole subtree, and discards it.
func (f *Forest) Remove(ids []int) ([]int, error) {
	if _, err := f.Detach(ids); err != nil {
		return nil, err
	}
	return slices.Clone(ids), nil
}

// Detach removes each task (with its subtree) from its owner and returns the detached
// subtrees. An id that sits inside another requested subtree travels with its
// ancestor and contributes nothing further, whatever its position in ids.
func (f *Forest) Detach(ids []int) ([]model.Task, error) {
	locs, err := f.resolve(ids)
	if err != nil {
		return nil, err
	}
	out := []model.Task{}
	for _, id := range outermost(locs) {
		t, ok := f.detach(id)
		if !ok {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Graft appends deep copies of tasks as new roots, renumbering every node so ids
// stay unique in this forest. It returns the new root ids.
func (f *Forest) Graft(tasks []model.Task) []int {
	next := f.AllocateID()
	var renumber func(t *model.Task)
	renumber = func(t *model.Task) {
		t.ID = next
		next++
		for i := range t.Subtasks {
			renumber(&t.Subtasks[i])
		}
	}
	out := make([]int, 0, len(tasks))
	for _, t := range tasks {
		cp := t.Clone()
		renumber(&cp)
		f.Roots = append(f.Roots, cp)
		out = append(out, cp.ID)
	}
	return out
}

// Move reparents each task under destID, appending it as the last child. Moving a
// task into itself or into one of its descendants is rejected before any detach.
func (f *Forest) Move(ids []int, destID int) (int, error) {
	all := append(slices.Clone(ids), destID)
	locs, err := f.resolve(all)
	if err != nil {
		return 0, err
	}
	for _, loc := range locs[:len(ids)] {
		if loc.Task.ID == destID || contains(loc.Task.Subtasks, destID) {
			return 0, InvalidMoveError{ID: loc.Task.ID, DestID: destID}
		}
	}

	for _, id := range outermost(locs[:len(ids)]) {
		t, ok := f.detach(id)
		if !ok {
			continue
		}
		dest, err := f.Find(destID)
		if err != nil {
			return 0, err
		}
		dest.Task.Subtasks = append(dest.Task.Subtasks, t)
	}
	return destID, nil
}

// outermost returns the ids of locs in order, without duplicates and without any
// task that lies inside the subtree of another task in the same batch.
func outermost(locs []Location) []int {
	seen := make(map[int]bool, len(locs))
	out := make([]int, 0, len(locs))
	for _, loc := range locs {
		id := loc.Task.ID
		if seen[id] {
			continue
		}
		seen[id] = true
		nested := false
		for _, other := range locs {
			if other.Task.ID != id && contains(other.Task.Subtasks, id) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, id)
		}
	}
	return out
}

func contains(list []model.Task, id int) bool {
	_, ok := find(list, nil, id)
	return ok
}

// Reverse flips the top-level order in place. Subtask order is untouched.
func (f *Forest) Reverse() {
	slices.Reverse(f.Roots)
}
