package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktree-cli/internal/model"
)

func groupForest() *Forest {
	return New([]model.Task{
		{ID: 0, Name: "a", State: "done", Priority: model.IntPtr(1), Group: model.StrPtr("work"), DueDate: model.StrPtr("2024-03-01")},
		{ID: 5, Name: "b", State: "todo"},
		{ID: 2, Name: "c", State: "legacy", Priority: model.IntPtr(3), Group: model.StrPtr("home"), DueDate: model.StrPtr("2023-12-31")},
		{ID: 3, Name: "d", State: "todo", Priority: model.IntPtr(1), Group: model.StrPtr(""),
			Subtasks: []model.Task{{ID: 4, Name: "nested", State: "wip"}}},
	})
}

func keys(buckets []Bucket) []string {
	out := make([]string, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b.Key)
	}
	return out
}

func names(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Name)
	}
	return out
}

func TestGroup_ByState(t *testing.T) {
	buckets, err := groupForest().Group(testMeta(), GroupByState)
	require.NoError(t, err)

	assert.Equal(t, []string{"todo", "done", "legacy"}, keys(buckets))
	assert.Equal(t, []string{"b", "d"}, names(buckets[0].Tasks))
}

func TestGroup_TopLevelOnlyAndEveryTaskOnce(t *testing.T) {
	f := groupForest()
	for _, by := range []GroupBy{GroupByState, GroupByID, GroupByPriority, GroupByGroup, GroupByDueDate} {
		buckets, err := f.Group(testMeta(), by)
		require.NoError(t, err, "group by %s", by)

		seen := map[int]int{}
		for _, b := range buckets {
			for _, tk := range b.Tasks {
				seen[tk.ID]++
			}
		}
		assert.Equal(t, map[int]int{0: 1, 5: 1, 2: 1, 3: 1}, seen, "group by %s", by)
	}
}

func TestGroup_ByID(t *testing.T) {
	buckets, err := groupForest().Group(testMeta(), GroupByID)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "2", "3", "5"}, keys(buckets))
}

func TestGroup_ByPriority_UnsetLast(t *testing.T) {
	buckets, err := groupForest().Group(testMeta(), GroupByPriority)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "3", "unset"}, keys(buckets))
	assert.True(t, buckets[2].Unset)
	assert.Equal(t, []string{"a", "d"}, names(buckets[0].Tasks))
}

func TestGroup_ByGroup(t *testing.T) {
	buckets, err := groupForest().Group(testMeta(), GroupByGroup)
	require.NoError(t, err)

	assert.Equal(t, []string{"home", "work", "unset"}, keys(buckets))
	assert.Equal(t, []string{"b", "d"}, names(buckets[2].Tasks))
}

func TestGroup_ByDueDate(t *testing.T) {
	buckets, err := groupForest().Group(testMeta(), GroupByDueDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-12-31", "2024-03-01", "unset"}, keys(buckets))
}

func TestGroup_DoesNotMutate(t *testing.T) {
	f := groupForest()
	before := snapshot(t, f)

	buckets, err := f.Group(testMeta(), GroupByState)
	require.NoError(t, err)
	buckets[0].Tasks[1].Subtasks[0].Name = "changed"

	assert.Equal(t, before, snapshot(t, f))
}

func TestParseGroupBy(t *testing.T) {
	by, err := ParseGroupBy("DueDate")
	require.NoError(t, err)
	assert.Equal(t, GroupByDueDate, by)

	_, err = ParseGroupBy("color")
	assert.Error(t, err)
}
