package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"tasktree-cli/internal/model"
	"tasktree-cli/internal/store"
)

// Intent is a parsed mutating command. Commands build one and hand it to Run;
// nothing touches the forest before that.
type Intent struct {
	Action    string
	IDs       []int
	Parent    *int
	Attrs     model.TaskAttributes
	Patch     model.TaskPatch
	Recursive bool
	Dest      int
	Path      string
}

const (
	ActionInsert  = "insert"
	ActionEdit    = "edit"
	ActionAdvance = "advance"
	ActionRemove  = "remove"
	ActionMove    = "move"
	ActionExtract = "extract"
)

// Operation maps the intent onto an orchestrator operation. Extract is not a
// single-document operation and is handled by Run.
func (in Intent) Operation() (store.Operation, error) {
	switch in.Action {
	case ActionInsert:
		return store.InsertOp(in.Attrs, in.Parent), nil
	case ActionEdit:
		if in.Patch.IsEmpty() {
			return store.Operation{}, fmt.Errorf("nothing to edit (pass at least one attribute flag or --clear)")
		}
		return store.EditOp(in.IDs, in.Patch, in.Recursive), nil
	case ActionAdvance:
		return store.AdvanceOp(in.IDs, in.Recursive), nil
	case ActionRemove:
		return store.RemoveOp(in.IDs), nil
	case ActionMove:
		return store.MoveOp(in.IDs, in.Dest), nil
	default:
		return store.Operation{}, fmt.Errorf("unknown action: %q", in.Action)
	}
}

func (in Intent) Run(ctx context.Context, o *store.Orchestrator, fs afero.Fs) (store.Result, error) {
	if in.Action == ActionExtract {
		if in.Path == "" {
			return store.Result{}, fmt.Errorf("missing --to path")
		}
		if samePath(in.Path, o.Path()) {
			return store.Result{}, fmt.Errorf("extract target is the current document: %s", in.Path)
		}
		return o.Extract(ctx, in.IDs, store.Store{Path: in.Path, Fs: fs})
	}
	op, err := in.Operation()
	if err != nil {
		return store.Result{}, err
	}
	return o.Mutate(ctx, op)
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// mutationView is the structured output of a mutating command: what happened
// plus the current state of the touched tasks that still exist.
type mutationView struct {
	store.Result
	Tasks []model.Task `json:"tasks"`
}

func viewOf(o *store.Orchestrator, res store.Result) mutationView {
	v := mutationView{Result: res, Tasks: []model.Task{}}
	if res.Action == ActionRemove || res.Action == ActionExtract {
		return v
	}
	seen := map[int]bool{}
	for _, id := range res.IDs {
		if seen[id] {
			continue
		}
		t, err := o.GetByID(id)
		if err != nil {
			continue
		}
		v.Tasks = append(v.Tasks, t)
		for _, sub := range subtreeIDs(t) {
			seen[sub] = true
		}
	}
	return v
}

func subtreeIDs(t model.Task) []int {
	ids := []int{t.ID}
	for _, s := range t.Subtasks {
		ids = append(ids, subtreeIDs(s)...)
	}
	return ids
}
