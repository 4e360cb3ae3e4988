package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tasktree-cli/internal/model"
	"tasktree-cli/internal/statusutil"
	"tasktree-cli/internal/store"
)

// parseIDs accepts "3", "3,5,7" or several such arguments. Duplicates are
// dropped, order is kept.
func parseIDs(args ...string) ([]int, error) {
	var ids []int
	seen := map[int]bool{}
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil || id < 0 {
				return nil, fmt.Errorf("invalid id: %q", part)
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("missing id")
	}
	return ids, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid id: %q", s)
	}
	return id, nil
}

// idValue is an optional single id flag.
type idValue struct {
	id  int
	set bool
}

func (v *idValue) String() string {
	if !v.set {
		return ""
	}
	return strconv.Itoa(v.id)
}

func (v *idValue) Set(s string) error {
	id, err := parseID(s)
	if err != nil {
		return err
	}
	v.id, v.set = id, true
	return nil
}

func (v *idValue) Type() string { return "id" }

func (v *idValue) ptr() *int {
	if !v.set {
		return nil
	}
	id := v.id
	return &id
}

// priorityValue takes priority markers ("!!") or a plain level ("2").
type priorityValue struct {
	level int
	set   bool
}

func (v *priorityValue) String() string {
	if !v.set {
		return ""
	}
	return model.FormatPriority(&v.level)
}

func (v *priorityValue) Set(s string) error {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return fmt.Errorf("invalid priority: %d", n)
		}
		v.level, v.set = n, true
		return nil
	}
	n, err := model.ParsePriority(s)
	if err != nil {
		return err
	}
	if n == nil {
		return errors.New("empty priority (use --clear priority to unset it)")
	}
	v.level, v.set = *n, true
	return nil
}

func (v *priorityValue) Type() string { return "priority" }

func (v *priorityValue) ptr() *int {
	if !v.set {
		return nil
	}
	n := v.level
	return &n
}

// attrFlags are the task attribute flags shared by add and edit.
type attrFlags struct {
	state       string
	description string
	group       string
	due         string
	priority    priorityValue
}

func (f *attrFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.state, "state", "s", "", "State name (see: tasktree meta states)")
	fl.StringVarP(&f.description, "description", "d", "", "Description (Markdown)")
	fl.StringVarP(&f.group, "group", "g", "", "Group name")
	fl.StringVar(&f.due, "due", "", "Due date (YYYY-MM-DD)")
	fl.VarP(&f.priority, "priority", "p", "Priority as markers (!!) or a level (2)")
}

func changedString(cmd *cobra.Command, name, v string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

// patch builds a TaskPatch from the flags the user actually passed.
func (f *attrFlags) patch(cmd *cobra.Command, meta model.Metadata) (model.TaskPatch, error) {
	var p model.TaskPatch
	if s := changedString(cmd, "state", f.state); s != nil {
		state, err := statusutil.NormalizeStateName(meta, *s)
		if err != nil {
			return p, err
		}
		p.State = &state
	}
	p.Description = changedString(cmd, "description", f.description)
	if g := changedString(cmd, "group", f.group); g != nil {
		trimmed := strings.TrimSpace(*g)
		p.Group = &trimmed
	}
	if d := changedString(cmd, "due", f.due); d != nil {
		due, err := model.ParseDueDate(*d)
		if err != nil {
			return p, err
		}
		p.DueDate = &due
	}
	p.Priority = f.priority.ptr()
	return p, nil
}

func openErr(err error) error {
	var missing store.StorageMissingError
	if errors.As(err, &missing) {
		return fmt.Errorf("%w (run: tasktree init)", err)
	}
	return err
}
