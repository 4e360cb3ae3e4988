package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteDirectLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"tasktree"},
			want: []string{"tasktree"},
		},
		{
			name: "id first token",
			in:   []string{"tasktree", "3"},
			want: []string{"tasktree", "show", "3"},
		},
		{
			name: "id after value flag",
			in:   []string{"tasktree", "--file", "./tasks.json", "3"},
			want: []string{"tasktree", "--file", "./tasks.json", "show", "3"},
		},
		{
			name: "id after equals flag",
			in:   []string{"tasktree", "--file=./tasks.json", "0"},
			want: []string{"tasktree", "--file=./tasks.json", "show", "0"},
		},
		{
			name: "id after bool flag",
			in:   []string{"tasktree", "--plain", "12"},
			want: []string{"tasktree", "--plain", "show", "12"},
		},
		{
			name: "id after double dash",
			in:   []string{"tasktree", "--format", "edn", "--", "3"},
			want: []string{"tasktree", "--format", "edn", "--", "show", "3"},
		},
		{
			name: "numeric flag value is not an id",
			in:   []string{"tasktree", "--log-level", "1", "list"},
			want: []string{"tasktree", "--log-level", "1", "list"},
		},
		{
			name: "log format value skipped",
			in:   []string{"tasktree", "--log-format", "json", "4"},
			want: []string{"tasktree", "--log-format", "json", "show", "4"},
		},
		{
			name: "subcommand not rewritten",
			in:   []string{"tasktree", "check", "3"},
			want: []string{"tasktree", "check", "3"},
		},
		{
			name: "negative number not rewritten",
			in:   []string{"tasktree", "-3"},
			want: []string{"tasktree", "-3"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"tasktree", "wat"},
			want: []string{"tasktree", "wat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, rewriteDirectLookupArgs(tt.in))
		})
	}
}
