package tree

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktree-cli/internal/model"
)

func testMeta() model.Metadata {
	return model.Metadata{
		States: []model.State{
			{Name: "todo", Color: "red"},
			{Name: "wip", Color: "yellow"},
			{Name: "done", Color: "green"},
		},
		Groups: []model.Group{{Name: "work", Color: "blue"}},
		Templates: []model.Template{
			{Name: "release", Subtasks: []model.TaskAttributes{
				{Name: "changelog"},
				{Name: "tag", State: "wip", Subtasks: []model.TaskAttributes{{Name: "push tag"}}},
			}},
		},
	}
}

// sample builds:
//
//	0 a
//	├─ 1 b
//	│  └─ 2 c
//	└─ 3 d
//	4 e
func sample() *Forest {
	return New([]model.Task{
		{ID: 0, Name: "a", State: "todo", Subtasks: []model.Task{
			{ID: 1, Name: "b", State: "todo", Subtasks: []model.Task{
				{ID: 2, Name: "c", State: "wip"},
			}},
			{ID: 3, Name: "d", State: "done"},
		}},
		{ID: 4, Name: "e", State: "todo"},
	})
}

func assertUniqueIDs(t *testing.T, f *Forest) {
	t.Helper()
	require.NoError(t, f.CheckUniqueIDs())
}

func snapshot(t *testing.T, f *Forest) string {
	t.Helper()
	b, err := json.Marshal(f.Roots)
	require.NoError(t, err)
	return string(b)
}

func TestAllocateID(t *testing.T) {
	assert.Equal(t, 0, New(nil).AllocateID())
	assert.Equal(t, 5, sample().AllocateID())

	f := New([]model.Task{{ID: 7, Name: "x", State: "todo", Subtasks: []model.Task{{ID: 42, Name: "y", State: "todo"}}}})
	assert.Equal(t, 43, f.AllocateID())
}

func TestFind(t *testing.T) {
	f := sample()

	loc, err := f.Find(2)
	require.NoError(t, err)
	assert.Equal(t, "c", loc.Task.Name)
	require.NotNil(t, loc.Parent)
	assert.Equal(t, 1, loc.Parent.ID)
	assert.Equal(t, 0, loc.Index)

	loc, err = f.Find(4)
	require.NoError(t, err)
	assert.Nil(t, loc.Parent)
	assert.Equal(t, 1, loc.Index)

	loc, err = f.Find(3)
	require.NoError(t, err)
	assert.Equal(t, 1, loc.Index)

	_, err = f.Find(99)
	var nf NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []int{99}, nf.IDs)
}

func TestInsert_RootAndChild(t *testing.T) {
	meta := testMeta()
	f := New(nil)

	id, err := f.Insert(meta, model.TaskAttributes{Name: "root"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, id)
	assert.Equal(t, "todo", f.Roots[0].State)

	parent := 0
	child, err := f.Insert(meta, model.TaskAttributes{Name: "sub", Priority: model.IntPtr(2)}, &parent)
	require.NoError(t, err)
	assert.Equal(t, 1, child)
	require.Len(t, f.Roots[0].Subtasks, 1)
	assert.Equal(t, 2, *f.Roots[0].Subtasks[0].Priority)

	missing := 9
	_, err = f.Insert(meta, model.TaskAttributes{Name: "x"}, &missing)
	var nf NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 2, f.Count())
}

func TestInsert_Validation(t *testing.T) {
	meta := testMeta()
	f := sample()
	before := snapshot(t, f)

	_, err := f.Insert(meta, model.TaskAttributes{Name: "  "}, nil)
	assert.ErrorAs(t, err, &EmptyNameError{})

	_, err = f.Insert(meta, model.TaskAttributes{Name: "x", State: "blocked"}, nil)
	var sn StateNotFoundError
	require.ErrorAs(t, err, &sn)
	assert.Equal(t, "blocked", sn.State)

	_, err = f.Insert(meta, model.TaskAttributes{Name: "x", Template: "nope"}, nil)
	var nf NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "template", nf.Kind)

	_, err = f.Insert(meta, model.TaskAttributes{Name: "x", DueDate: model.StrPtr("soon")}, nil)
	assert.Error(t, err)

	assert.Equal(t, before, snapshot(t, f))
}

func TestInsert_TemplateIsDeepCopied(t *testing.T) {
	meta := testMeta()
	f := sample()

	id, err := f.Insert(meta, model.TaskAttributes{Name: "v1.0", Template: "release"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, id)

	loc, err := f.Find(id)
	require.NoError(t, err)
	require.Len(t, loc.Task.Subtasks, 2)
	assert.Equal(t, "changelog", loc.Task.Subtasks[0].Name)
	assert.Equal(t, "todo", loc.Task.Subtasks[0].State)
	assert.Equal(t, "wip", loc.Task.Subtasks[1].State)
	require.Len(t, loc.Task.Subtasks[1].Subtasks, 1)
	assertUniqueIDs(t, f)

	// The template is a copy, not a reference.
	loc.Task.Subtasks[0].Name = "edited"
	tmpl, _ := meta.FindTemplate("release")
	assert.Equal(t, "changelog", tmpl.Subtasks[0].Name)

	again, err := f.Insert(meta, model.TaskAttributes{Name: "v1.1", Template: "release"}, nil)
	require.NoError(t, err)
	loc2, err := f.Find(again)
	require.NoError(t, err)
	assert.Equal(t, "changelog", loc2.Task.Subtasks[0].Name)
	assertUniqueIDs(t, f)
}

func TestInsert_SelfReferencingTemplate(t *testing.T) {
	meta := testMeta()
	meta.Templates = append(meta.Templates, model.Template{
		Name:     "loop",
		Subtasks: []model.TaskAttributes{{Name: "again", Template: "loop"}},
	})
	_, err := New(nil).Insert(meta, model.TaskAttributes{Name: "x", Template: "loop"}, nil)
	assert.Error(t, err)
}

func TestEdit_MergesOnlyPresentFields(t *testing.T) {
	meta := testMeta()
	f := sample()
	f.Roots[1].Description = model.StrPtr("keep me")

	affected, err := f.Edit(meta, []int{4}, model.TaskPatch{Name: model.StrPtr("renamed")}, false)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, affected)

	loc, _ := f.Find(4)
	assert.Equal(t, "renamed", loc.Task.Name)
	assert.Equal(t, "todo", loc.Task.State)
	require.NotNil(t, loc.Task.Description)
	assert.Equal(t, "keep me", *loc.Task.Description)
}

func TestEdit_Recursive(t *testing.T) {
	meta := testMeta()
	f := sample()

	affected, err := f.Edit(meta, []int{1}, model.TaskPatch{State: model.StrPtr("done")}, true)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, affected)

	for _, id := range []int{1, 2} {
		loc, _ := f.Find(id)
		assert.Equal(t, "done", loc.Task.State, "task %d", id)
	}
	for id, want := range map[int]string{0: "todo", 3: "done", 4: "todo"} {
		loc, _ := f.Find(id)
		assert.Equal(t, want, loc.Task.State, "non-descendant %d", id)
	}
}

func TestEdit_MissingIDAbortsWholeBatch(t *testing.T) {
	meta := testMeta()
	f := sample()
	before := snapshot(t, f)

	_, err := f.Edit(meta, []int{0, 77, 4, 78}, model.TaskPatch{Name: model.StrPtr("x")}, false)
	var nf NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []int{77, 78}, nf.IDs)
	assert.Equal(t, before, snapshot(t, f))

	_, err = f.Edit(meta, []int{0}, model.TaskPatch{State: model.StrPtr("bogus")}, false)
	assert.ErrorAs(t, err, &StateNotFoundError{})
	assert.Equal(t, before, snapshot(t, f))
}

func TestAdvance(t *testing.T) {
	meta := testMeta()
	f := sample()

	affected, err := f.Advance(meta, []int{0, 2, 3}, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3}, affected)

	states := map[int]string{}
	f.Walk(func(t *model.Task, _ int) { states[t.ID] = t.State })
	assert.Equal(t, map[int]string{0: "wip", 1: "todo", 2: "done", 3: "done", 4: "todo"}, states)
}

func TestAdvance_TerminalIsIdempotent(t *testing.T) {
	meta := testMeta()
	f := sample()

	for i := 0; i < 3; i++ {
		_, err := f.Advance(meta, []int{3}, false)
		require.NoError(t, err)
	}
	loc, _ := f.Find(3)
	assert.Equal(t, "done", loc.Task.State)
}

func TestAdvance_RecursiveVisitsEachTaskOnce(t *testing.T) {
	meta := testMeta()
	f := sample()

	// 1 is listed explicitly and is also a descendant of 0.
	affected, err := f.Advance(meta, []int{0, 1}, true)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, affected)

	states := map[int]string{}
	f.Walk(func(t *model.Task, _ int) { states[t.ID] = t.State })
	assert.Equal(t, map[int]string{0: "wip", 1: "wip", 2: "done", 3: "done", 4: "todo"}, states)
}

func TestAdvance_StaleStateIsReported(t *testing.T) {
	meta := testMeta()
	f := sample()
	f.Roots[0].Subtasks[1].State = "archived"
	before := snapshot(t, f)

	_, err := f.Advance(meta, []int{4, 0}, true)
	var sn StateNotFoundError
	require.ErrorAs(t, err, &sn)
	assert.Equal(t, 3, sn.ID)
	assert.Equal(t, "archived", sn.State)
	assert.Equal(t, before, snapshot(t, f))
}

func TestRemove_CascadesWholeSubtree(t *testing.T) {
	f := sample()
	total := f.Count()

	removed, err := f.Remove([]int{0})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, removed)

	// 0 had three descendants.
	assert.Equal(t, total-4, f.Count())
	for _, id := range []int{0, 1, 2, 3} {
		_, err := f.Find(id)
		assert.ErrorAs(t, err, &NotFoundError{}, "id %d", id)
	}
	_, err = f.Find(4)
	assert.NoError(t, err)
}

func TestRemove_DescendantListedAfterAncestor(t *testing.T) {
	f := sample()
	_, err := f.Remove([]int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 4}, f.IDs())
}

func TestRemove_MissingIDLeavesForestUntouched(t *testing.T) {
	f := sample()
	before := snapshot(t, f)

	_, err := f.Remove([]int{4, 50})
	assert.ErrorAs(t, err, &NotFoundError{})
	assert.Equal(t, before, snapshot(t, f))
}

func TestMove(t *testing.T) {
	f := sample()

	dest, err := f.Move([]int{1}, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, dest)

	loc, err := f.Find(2)
	require.NoError(t, err)
	assert.Equal(t, 1, loc.Parent.ID, "moved subtree is preserved")

	loc, err = f.Find(1)
	require.NoError(t, err)
	assert.Equal(t, 4, loc.Parent.ID)
	assert.Equal(t, []int{0, 3, 4, 1, 2}, f.IDs())
	assertUniqueIDs(t, f)
}

func TestMove_RejectsCycles(t *testing.T) {
	cases := []struct {
		name string
		ids  []int
		dest int
	}{
		{"into itself", []int{1}, 1},
		{"into child", []int{0}, 1},
		{"into grandchild", []int{0}, 2},
		{"second id invalid", []int{4, 1}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := sample()
			before := snapshot(t, f)

			_, err := f.Move(tc.ids, tc.dest)
			var im InvalidMoveError
			require.ErrorAs(t, err, &im)
			assert.Equal(t, tc.dest, im.DestID)
			assert.Equal(t, before, snapshot(t, f))
		})
	}
}

func TestMove_MissingDestination(t *testing.T) {
	f := sample()
	_, err := f.Move([]int{4}, 12)
	var nf NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []int{12}, nf.IDs)
}

func TestMove_ReappendUnderCurrentParent(t *testing.T) {
	f := sample()
	_, err := f.Move([]int{1}, 0)
	require.NoError(t, err)

	loc, err := f.Find(1)
	require.NoError(t, err)
	assert.Equal(t, 0, loc.Parent.ID)
	assert.Equal(t, 1, loc.Index, "re-appended as last child")
}

func TestMove_NestedIDsKeepSubtree(t *testing.T) {
	for _, ids := range [][]int{{1, 2}, {2, 1}} {
		f := sample()
		_, err := f.Move(ids, 4)
		require.NoError(t, err)

		loc, err := f.Find(2)
		require.NoError(t, err)
		assert.Equal(t, 1, loc.Parent.ID, "ids %v", ids)
		loc, err = f.Find(1)
		require.NoError(t, err)
		assert.Equal(t, 4, loc.Parent.ID, "ids %v", ids)
		assert.Equal(t, []int{0, 3, 4, 1, 2}, f.IDs(), "ids %v", ids)
	}
}

func TestDetach_DescendantListedFirst(t *testing.T) {
	f := sample()
	detached, err := f.Detach([]int{2, 1})
	require.NoError(t, err)
	require.Len(t, detached, 1)
	assert.Equal(t, 1, detached[0].ID)
	require.Len(t, detached[0].Subtasks, 1)
	assert.Equal(t, 2, detached[0].Subtasks[0].ID)
	assert.Equal(t, []int{0, 3, 4}, f.IDs())
}

func TestDetachAndGraft(t *testing.T) {
	src := sample()
	dst := New([]model.Task{{ID: 0, Name: "existing", State: "todo"}})

	detached, err := src.Detach([]int{1})
	require.NoError(t, err)
	require.Len(t, detached, 1)
	assert.Equal(t, []int{0, 3, 4}, src.IDs())

	newIDs := dst.Graft(detached)
	assert.Equal(t, []int{1}, newIDs)
	assert.Equal(t, []int{0, 1, 2}, dst.IDs())
	assertUniqueIDs(t, dst)

	loc, err := dst.Find(2)
	require.NoError(t, err)
	assert.Equal(t, "c", loc.Task.Name)
}

func TestReverse(t *testing.T) {
	f := sample()
	f.Reverse()
	assert.Equal(t, 4, f.Roots[0].ID)
	assert.Equal(t, 0, f.Roots[1].ID)
	assert.Equal(t, 1, f.Roots[1].Subtasks[0].ID, "subtask order untouched")
}

func TestIDUniquenessAcrossOperations(t *testing.T) {
	meta := testMeta()
	f := New(nil)

	for i := 0; i < 5; i++ {
		_, err := f.Insert(meta, model.TaskAttributes{Name: "root", Template: "release"}, nil)
		require.NoError(t, err)
	}
	_, err := f.Remove([]int{f.Roots[1].ID, f.Roots[3].ID})
	require.NoError(t, err)

	parent := f.Roots[0].ID
	for i := 0; i < 3; i++ {
		_, err := f.Insert(meta, model.TaskAttributes{Name: "child"}, &parent)
		require.NoError(t, err)
	}
	_, err = f.Move([]int{f.Roots[2].ID}, parent)
	require.NoError(t, err)
	f.Graft([]model.Task{f.Roots[0].Clone()})

	assertUniqueIDs(t, f)
}

func TestExampleScenario(t *testing.T) {
	meta := testMeta()
	f := New([]model.Task{{ID: 0, Name: "Add more stuff", State: "todo"}})

	parent := 0
	id, err := f.Insert(meta, model.TaskAttributes{Name: "sub"}, &parent)
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	_, err = f.Advance(meta, []int{0, 1}, false)
	require.NoError(t, err)
	for _, id := range []int{0, 1} {
		loc, _ := f.Find(id)
		assert.Equal(t, "wip", loc.Task.State)
	}

	_, err = f.Move([]int{1}, 0)
	require.NoError(t, err)

	_, err = f.Remove([]int{0})
	require.NoError(t, err)
	_, err = f.Find(1)
	assert.True(t, errors.As(err, &NotFoundError{}))
	assert.Equal(t, 0, f.Count())
}
