package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"tasktree-cli/internal/journal"
	"tasktree-cli/internal/model"
	"tasktree-cli/internal/statusutil"
	"tasktree-cli/internal/tree"
)

const DefaultSyncTimeout = 30 * time.Second

// Syncer receives the document path after every successful save.
type Syncer interface {
	CommitAndSync(ctx context.Context, path string, message string) error
}

// Journal records applied mutations. Failures are warnings.
type Journal interface {
	Append(ctx context.Context, action string, ids []int, summary string) (journal.Entry, error)
}

type Options struct {
	Store       Store
	Journal     Journal
	Syncer      Syncer
	Logger      zerolog.Logger
	SyncTimeout time.Duration
}

// Operation is one engine call run through the load-mutate-save cycle.
// Apply returns the ids it affected; Summary renders the commit/journal line.
type Operation struct {
	Action  string
	Apply   func(f *tree.Forest, meta model.Metadata) ([]int, error)
	Summary func(ids []int) string
}

type Result struct {
	Action  string `json:"action"`
	IDs     []int  `json:"ids"`
	Summary string `json:"summary"`
}

// SyncEvent is emitted after a successful save.
type SyncEvent struct {
	Path    string
	Message string
}

// Orchestrator owns the in-memory forest and metadata for one document.
type Orchestrator struct {
	store   Store
	journal Journal
	syncer  Syncer
	log     zerolog.Logger
	timeout time.Duration

	forest *tree.Forest
	meta   model.Metadata

	syncPool *pool.ErrorPool
	mu       sync.Mutex
	warnings []error
}

// Open loads the document and returns an orchestrator bound to it.
func Open(opts Options) (*Orchestrator, error) {
	doc, err := opts.Store.Load()
	if err != nil {
		return nil, err
	}
	timeout := opts.SyncTimeout
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}
	return &Orchestrator{
		store:    opts.Store,
		journal:  opts.Journal,
		syncer:   opts.Syncer,
		log:      opts.Logger,
		timeout:  timeout,
		forest:   tree.New(doc.Datas),
		meta:     doc.Meta,
		syncPool: pool.New().WithErrors().WithMaxGoroutines(1),
	}, nil
}

func (o *Orchestrator) Path() string { return o.store.Path }

// Forest exposes the live forest. Callers must not mutate it outside Mutate.
func (o *Orchestrator) Forest() *tree.Forest { return o.forest }

func (o *Orchestrator) Meta() model.Metadata { return o.meta }

func (o *Orchestrator) document() *Document {
	return &Document{Meta: o.meta, Datas: o.forest.Roots}
}

// GetByID returns a copy of the task subtree with the given id.
func (o *Orchestrator) GetByID(id int) (model.Task, error) {
	t, err := o.forest.Subtree(id)
	if err != nil {
		return model.Task{}, LookupError{ID: id, Err: err}
	}
	return t, nil
}

// Mutate applies op to the forest, saves the whole document, then records the
// change and dispatches sync. Engine errors leave memory and disk untouched. A
// save failure is returned as SaveError while memory keeps the mutation.
func (o *Orchestrator) Mutate(ctx context.Context, op Operation) (Result, error) {
	if op.Apply == nil {
		return Result{}, errors.New("mutate: missing operation")
	}
	ids, err := op.Apply(o.forest, o.meta)
	if err != nil {
		return Result{}, err
	}
	res := Result{Action: op.Action, IDs: ids}
	if res.IDs == nil {
		res.IDs = []int{}
	}
	if op.Summary != nil {
		res.Summary = op.Summary(ids)
	} else {
		res.Summary = fmt.Sprintf("%s %s", op.Action, JoinIDs(ids))
	}

	if err := o.store.Save(o.document()); err != nil {
		o.log.Error().Err(err).Str("path", o.store.Path).Str("action", op.Action).Msg("save failed")
		return res, SaveError{Path: o.store.Path, Err: err}
	}
	o.log.Debug().Str("action", op.Action).Ints("ids", res.IDs).Msg("saved")

	if o.journal != nil {
		if _, err := o.journal.Append(ctx, op.Action, res.IDs, res.Summary); err != nil {
			o.warn(fmt.Errorf("journal: %w", err))
		}
	}
	o.dispatchSync(ctx, SyncEvent{Path: o.store.Path, Message: "tasktree: " + res.Summary})
	return res, nil
}

func (o *Orchestrator) dispatchSync(ctx context.Context, ev SyncEvent) {
	if o.syncer == nil {
		return
	}
	// Sync outlives command cancellation; the local write is already durable.
	base := context.WithoutCancel(ctx)
	o.syncPool.Go(func() error {
		sctx, cancel := context.WithTimeout(base, o.timeout)
		defer cancel()
		if err := o.syncer.CommitAndSync(sctx, ev.Path, ev.Message); err != nil {
			o.log.Warn().Err(err).Str("path", ev.Path).Msg("sync failed")
			return SyncError{Err: err}
		}
		return nil
	})
}

func (o *Orchestrator) warn(err error) {
	o.log.Warn().Err(err).Msg("post-save step failed")
	o.mu.Lock()
	o.warnings = append(o.warnings, err)
	o.mu.Unlock()
}

// Close waits for pending sync work (bounded by ctx) and returns every
// collected warning. Warnings never mean the local write was lost.
func (o *Orchestrator) Close(ctx context.Context) []error {
	done := make(chan error, 1)
	go func() { done <- o.syncPool.Wait() }()

	var syncErr error
	select {
	case syncErr = <-done:
	case <-ctx.Done():
		syncErr = SyncError{Err: fmt.Errorf("still running: %w", ctx.Err())}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	out := append([]error(nil), o.warnings...)
	if syncErr != nil {
		out = append(out, syncErr)
	}
	return out
}

// Extract moves ids out of this document into target. The target is saved
// before the source, so a failure in between duplicates tasks rather than
// losing them. An existing target is first copied to BackupPath, and every
// moved task must carry a state the target's metadata defines.
func (o *Orchestrator) Extract(ctx context.Context, ids []int, target Store) (Result, error) {
	scratch := o.forest.Clone()
	moved, err := scratch.Detach(ids)
	if err != nil {
		return Result{}, err
	}

	doc, created, err := target.LoadOrInit(o.meta)
	if err != nil {
		return Result{}, err
	}
	if missing := checkStates(doc.Meta, moved); len(missing) > 0 {
		return Result{}, ExtractStateError{Target: target.Path, States: missing}
	}
	if !created {
		backup := BackupPath(target.Path)
		if err := CopyFile(target.fs(), target.Path, backup); err != nil {
			return Result{}, fmt.Errorf("backup %s: %w", target.Path, err)
		}
		o.log.Debug().Str("backup", backup).Msg("target backed up")
	}
	dest := tree.New(doc.Datas)
	newIDs := dest.Graft(moved)
	doc.Datas = dest.Roots
	if err := target.Save(doc); err != nil {
		return Result{}, SaveError{Path: target.Path, Err: err}
	}
	o.log.Info().Str("target", target.Path).Ints("ids", newIDs).Msg("extracted")

	return o.Mutate(ctx, Operation{
		Action: "extract",
		Apply: func(f *tree.Forest, _ model.Metadata) ([]int, error) {
			if _, err := f.Detach(ids); err != nil {
				return nil, err
			}
			return ids, nil
		},
		Summary: func(ids []int) string {
			return fmt.Sprintf("extract %s to %s", JoinIDs(ids), target.Path)
		},
	})
}

// checkStates returns the states used in tasks that meta does not define, in
// first-seen order.
func checkStates(meta model.Metadata, tasks []model.Task) []string {
	var missing []string
	seen := map[string]bool{}
	f := tree.New(tasks)
	f.Walk(func(t *model.Task, _ int) {
		if seen[t.State] {
			return
		}
		seen[t.State] = true
		if !statusutil.ValidateState(meta, t.State) {
			missing = append(missing, t.State)
		}
	})
	return missing
}
