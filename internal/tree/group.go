package tree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"tasktree-cli/internal/model"
	"tasktree-cli/internal/statusutil"
)

type GroupBy string

const (
	GroupByState    GroupBy = "state"
	GroupByID       GroupBy = "id"
	GroupByPriority GroupBy = "priority"
	GroupByGroup    GroupBy = "group"
	GroupByDueDate  GroupBy = "dueDate"
)

func ParseGroupBy(s string) (GroupBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "state", "status":
		return GroupByState, nil
	case "id":
		return GroupByID, nil
	case "priority", "prio":
		return GroupByPriority, nil
	case "group":
		return GroupByGroup, nil
	case "duedate", "due", "due-date":
		return GroupByDueDate, nil
	default:
		return "", fmt.Errorf("invalid group-by: %q (expected state|id|priority|group|dueDate)", s)
	}
}

// Bucket is one partition of the top-level tasks. Tasks keep their forest order.
type Bucket struct {
	Key   string       `json:"key"`
	Unset bool         `json:"unset,omitempty"`
	Tasks []model.Task `json:"tasks"`
}

type bucketKey struct {
	label string
	unset bool
	// rank orders buckets; ties fall back to label.
	rank int
}

// Group partitions the top-level forest by the requested attribute. Only non-empty
// buckets are returned; the unset bucket, when present, is last. The returned tasks
// are copies, the forest is not modified.
func (f *Forest) Group(meta model.Metadata, by GroupBy) ([]Bucket, error) {
	keyOf, err := groupKeyFunc(meta, by, f.Roots)
	if err != nil {
		return nil, err
	}

	keys := []bucketKey{}
	byLabel := map[bucketKey][]model.Task{}
	for _, t := range f.Roots {
		k := keyOf(t)
		if _, ok := byLabel[k]; !ok {
			keys = append(keys, k)
		}
		byLabel[k] = append(byLabel[k], t.Clone())
	}

	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.unset != b.unset {
			return !a.unset
		}
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		return a.label < b.label
	})

	out := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, Bucket{Key: k.label, Unset: k.unset, Tasks: byLabel[k]})
	}
	return out, nil
}

const unsetLabel = "unset"

func groupKeyFunc(meta model.Metadata, by GroupBy, roots []model.Task) (func(model.Task) bucketKey, error) {
	switch by {
	case GroupByState:
		// Configured states first in progression order; stale states after them in
		// order of first appearance.
		stale := map[string]int{}
		for _, t := range roots {
			if t.State == "" {
				continue
			}
			if _, ok := statusutil.StateIndex(meta, t.State); ok {
				continue
			}
			if _, ok := stale[t.State]; !ok {
				stale[t.State] = len(meta.States) + len(stale)
			}
		}
		return func(t model.Task) bucketKey {
			if t.State == "" {
				return bucketKey{label: unsetLabel, unset: true}
			}
			if i, ok := statusutil.StateIndex(meta, t.State); ok {
				return bucketKey{label: t.State, rank: i}
			}
			return bucketKey{label: t.State, rank: stale[t.State]}
		}, nil
	case GroupByID:
		return func(t model.Task) bucketKey {
			return bucketKey{label: strconv.Itoa(t.ID), rank: t.ID}
		}, nil
	case GroupByPriority:
		return func(t model.Task) bucketKey {
			if t.Priority == nil {
				return bucketKey{label: unsetLabel, unset: true}
			}
			return bucketKey{label: strconv.Itoa(*t.Priority), rank: *t.Priority}
		}, nil
	case GroupByGroup:
		return func(t model.Task) bucketKey {
			if t.Group == nil || strings.TrimSpace(*t.Group) == "" {
				return bucketKey{label: unsetLabel, unset: true}
			}
			return bucketKey{label: strings.TrimSpace(*t.Group)}
		}, nil
	case GroupByDueDate:
		return func(t model.Task) bucketKey {
			if t.DueDate == nil || strings.TrimSpace(*t.DueDate) == "" {
				return bucketKey{label: unsetLabel, unset: true}
			}
			d := strings.TrimSpace(*t.DueDate)
			ts, err := time.Parse(model.DateLayout, d)
			if err != nil {
				// Unparseable dates sort after every valid one, by label.
				return bucketKey{label: d, rank: int(^uint(0) >> 1)}
			}
			return bucketKey{label: d, rank: int(ts.Unix() / 86400)}
		}, nil
	default:
		return nil, fmt.Errorf("invalid group-by: %q", by)
	}
}
