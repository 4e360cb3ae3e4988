package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskJSON_SubtasksAbsentVsEmpty(t *testing.T) {
	var absent Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"name":"a","state":"todo"}`), &absent))
	assert.Nil(t, absent.Subtasks)

	var empty Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"name":"b","state":"todo","subtasks":[]}`), &empty))
	require.NotNil(t, empty.Subtasks)
	assert.Len(t, empty.Subtasks, 0)

	b, err := json.Marshal(absent)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "subtasks")

	b, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"subtasks":[]`)
}

func TestTaskJSON_OptionalFieldsPresentButEmpty(t *testing.T) {
	in := `{"id":3,"name":"c","state":"wip","description":"","priority":0,"group":"","dueDate":"2024-05-01"}`
	var tk Task
	require.NoError(t, json.Unmarshal([]byte(in), &tk))

	require.NotNil(t, tk.Description)
	assert.Equal(t, "", *tk.Description)
	require.NotNil(t, tk.Priority)
	assert.Equal(t, 0, *tk.Priority)
	require.NotNil(t, tk.Group)

	out, err := json.Marshal(tk)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestTaskJSON_NullMeansAbsent(t *testing.T) {
	in := `{"id":4,"name":"d","state":"todo","description":null,"priority":null,"subtasks":null}`
	var tk Task
	require.NoError(t, json.Unmarshal([]byte(in), &tk))
	assert.Nil(t, tk.Description)
	assert.Nil(t, tk.Priority)
	assert.Nil(t, tk.Subtasks)

	out, err := json.Marshal(tk)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":4,"name":"d","state":"todo"}`, string(out))
}

func TestTaskClone_IsDeep(t *testing.T) {
	orig := Task{
		ID:          1,
		Name:        "root",
		State:       "todo",
		Description: StrPtr("d"),
		Priority:    IntPtr(2),
		Subtasks:    []Task{{ID: 2, Name: "child", State: "todo"}},
	}
	cp := orig.Clone()
	cp.Subtasks[0].Name = "changed"
	*cp.Description = "x"
	*cp.Priority = 9

	assert.Equal(t, "child", orig.Subtasks[0].Name)
	assert.Equal(t, "d", *orig.Description)
	assert.Equal(t, 2, *orig.Priority)
}

func TestParsePriority(t *testing.T) {
	cases := []struct {
		in      string
		want    *int
		wantErr bool
	}{
		{"", nil, false},
		{"   ", nil, false},
		{"!", IntPtr(1), false},
		{"!!!", IntPtr(3), false},
		{" !! ", IntPtr(2), false},
		{"2", nil, true},
		{"!a", nil, true},
	}
	for _, tc := range cases {
		got, err := ParsePriority(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "ParsePriority(%q)", tc.in)
			continue
		}
		require.NoError(t, err, "ParsePriority(%q)", tc.in)
		assert.Equal(t, tc.want, got, "ParsePriority(%q)", tc.in)
	}
}

func TestFormatPriority(t *testing.T) {
	assert.Equal(t, "", FormatPriority(nil))
	assert.Equal(t, "", FormatPriority(IntPtr(0)))
	assert.Equal(t, "!!", FormatPriority(IntPtr(2)))
}

func TestParseDueDate(t *testing.T) {
	got, err := ParseDueDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got)

	_, err = ParseDueDate("2023-02-29")
	assert.Error(t, err)
	_, err = ParseDueDate("tomorrow")
	assert.Error(t, err)
}

func TestTaskPatchApply_MergesAndUnsets(t *testing.T) {
	tk := Task{ID: 1, Name: "a", State: "todo", Description: StrPtr("keep"), Group: StrPtr("work")}
	TaskPatch{
		State: StrPtr("wip"),
		Unset: []Field{FieldGroup},
	}.Apply(&tk)

	assert.Equal(t, "a", tk.Name)
	assert.Equal(t, "wip", tk.State)
	require.NotNil(t, tk.Description)
	assert.Equal(t, "keep", *tk.Description)
	assert.Nil(t, tk.Group)
}

func TestMetadataValidate(t *testing.T) {
	require.NoError(t, DefaultMetadata().Validate())
	assert.ErrorIs(t, Metadata{}.Validate(), ErrNoStates)
	assert.Error(t, Metadata{States: []State{{Name: "a"}, {Name: "a"}}}.Validate())
	assert.Error(t, Metadata{States: []State{{Name: " "}}}.Validate())
}
