package store

import (
	"fmt"
	"strconv"
	"strings"

	"tasktree-cli/internal/model"
	"tasktree-cli/internal/tree"
)

func JoinIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ",")
}

func InsertOp(attrs model.TaskAttributes, parentID *int) Operation {
	return Operation{
		Action: "insert",
		Apply: func(f *tree.Forest, meta model.Metadata) ([]int, error) {
			id, err := f.Insert(meta, attrs, parentID)
			if err != nil {
				return nil, err
			}
			return []int{id}, nil
		},
		Summary: func(ids []int) string {
			s := fmt.Sprintf("add %s %q", JoinIDs(ids), attrs.Name)
			if parentID != nil {
				s += fmt.Sprintf(" under %d", *parentID)
			}
			return s
		},
	}
}

func EditOp(ids []int, patch model.TaskPatch, recursive bool) Operation {
	return Operation{
		Action: "edit",
		Apply: func(f *tree.Forest, meta model.Metadata) ([]int, error) {
			return f.Edit(meta, ids, patch, recursive)
		},
		Summary: func(changed []int) string { return "edit " + JoinIDs(changed) },
	}
}

func AdvanceOp(ids []int, recursive bool) Operation {
	return Operation{
		Action: "advance",
		Apply: func(f *tree.Forest, meta model.Metadata) ([]int, error) {
			return f.Advance(meta, ids, recursive)
		},
		Summary: func(changed []int) string { return "check " + JoinIDs(changed) },
	}
}

func RemoveOp(ids []int) Operation {
	return Operation{
		Action: "remove",
		Apply: func(f *tree.Forest, _ model.Metadata) ([]int, error) {
			return f.Remove(ids)
		},
		Summary: func(removed []int) string { return "delete " + JoinIDs(removed) },
	}
}

func MoveOp(ids []int, destID int) Operation {
	return Operation{
		Action: "move",
		Apply: func(f *tree.Forest, _ model.Metadata) ([]int, error) {
			if _, err := f.Move(ids, destID); err != nil {
				return nil, err
			}
			return ids, nil
		},
		Summary: func(moved []int) string { return fmt.Sprintf("move %s to %d", JoinIDs(moved), destID) },
	}
}
