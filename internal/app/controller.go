package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixbrock/okrs/internal/domain"
	"golang.org/x/sync/semaphore"
)

// ErrDetached is returned once the controller was closed; results of calls
// still in flight at that point are dropped.
var ErrDetached = errors.New("controller detached")

type ObjectiveRepo interface {
	List(ctx context.Context) ([]domain.Objective, error)
	Insert(ctx context.Context, title string) (*domain.Objective, error)
	Update(ctx context.Context, id string, title string) (*domain.Objective, error)
	Delete(ctx context.Context, id string) error
}

type KeyResultRepo interface {
	Insert(ctx context.Context, objectiveId string, draft domain.KeyResultDraft) (*domain.KeyResult, error)
	UpdateProgress(ctx context.Context, objectiveId string, keyResultId string, current float64) (*domain.KeyResult, error)
	Delete(ctx context.Context, objectiveId string, keyResultId string) error
}

// Controller applies user intents against the persistence service and keeps
// the store reconciled: every settled mutation is followed by a full refresh,
// a failed one leaves the collection untouched.
type Controller struct {
	objectives ObjectiveRepo
	keyResults KeyResultRepo
	store      *Store
	metrics    *Metrics
	logger     *slog.Logger

	mu    sync.Mutex
	locks map[string]*semaphore.Weighted

	refreshSeq atomic.Uint64
	closed     atomic.Bool
}

func NewController(objectives ObjectiveRepo, keyResults KeyResultRepo, store *Store, metrics *Metrics) *Controller {
	if store == nil {
		store = NewStore()
	}
	return &Controller{
		objectives: objectives,
		keyResults: keyResults,
		store:      store,
		metrics:    metrics,
		logger:     slog.Default().With("component", "controller"),
		locks:      map[string]*semaphore.Weighted{},
	}
}

func (c *Controller) Store() *Store {
	return c.store
}

func (c *Controller) State(region string) MutationState {
	return c.store.State(region)
}

// Close detaches the controller from its view. Results arriving afterwards
// are discarded instead of being applied to stale state.
func (c *Controller) Close() {
	c.closed.Store(true)
}

// Refresh replaces the collection with the service's current state.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.closed.Load() {
		return ErrDetached
	}

	seq := c.refreshSeq.Add(1)
	start := time.Now()
	objectives, err := c.objectives.List(ctx)
	c.metrics.refresh(start, err)

	if c.closed.Load() {
		c.metrics.drop("detached")
		return ErrDetached
	}
	if err != nil {
		c.logger.Error("refresh failed", "err", err)
		return fmt.Errorf("refresh objectives: %w", err)
	}

	if !c.store.Replace(seq, objectives) {
		c.metrics.drop("stale")
		c.logger.Debug("dropping stale refresh", "seq", seq)
	}
	return nil
}

func (c *Controller) CreateObjective(ctx context.Context, title string) (*domain.Objective, error) {
	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}

	var created *domain.Objective
	err := c.mutate(ctx, "create_objective", RegionNewObjective, func(ctx context.Context) error {
		var err error
		created, err = c.objectives.Insert(ctx, title)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Controller) RenameObjective(ctx context.Context, id string, title string) (*domain.Objective, error) {
	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}

	var updated *domain.Objective
	err := c.mutate(ctx, "update_objective", ObjectiveRegion(id), func(ctx context.Context) error {
		var err error
		updated, err = c.objectives.Update(ctx, id, title)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *Controller) DeleteObjective(ctx context.Context, id string) error {
	return c.mutate(ctx, "delete_objective", ObjectiveRegion(id), func(ctx context.Context) error {
		return c.objectives.Delete(ctx, id)
	})
}

func (c *Controller) AddKeyResult(ctx context.Context, objectiveId string, draft domain.KeyResultDraft) (*domain.KeyResult, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	var created *domain.KeyResult
	err := c.mutate(ctx, "create_key_result", ObjectiveRegion(objectiveId), func(ctx context.Context) error {
		var err error
		created, err = c.keyResults.Insert(ctx, objectiveId, draft.WithDefaults())
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// EchoProgress shows a typed value locally without calling the service.
// Progress is only persisted by UpdateProgress.
func (c *Controller) EchoProgress(objectiveId, keyResultId string, current float64) {
	c.store.EchoProgress(KeyResultRegion(objectiveId, keyResultId), current)
}

// UpdateProgress echoes current immediately, then submits it. Concurrent
// updates of the same key result run one after the other; the echo shows the
// latest typed value until the submission that owns it ends.
func (c *Controller) UpdateProgress(ctx context.Context, objectiveId, keyResultId string, current float64) (*domain.KeyResult, error) {
	if err := domain.ValidateMeasure("current", current); err != nil {
		return nil, err
	}

	region := KeyResultRegion(objectiveId, keyResultId)
	current = domain.ClampCurrent(current)
	token := c.store.EchoProgress(region, current)
	release := func() { c.store.ReleaseEcho(region, token) }

	var updated *domain.KeyResult
	err := c.submit(ctx, "update_key_result_progress", region, release, func(ctx context.Context) error {
		var err error
		updated, err = c.keyResults.UpdateProgress(ctx, objectiveId, keyResultId, current)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *Controller) DeleteKeyResult(ctx context.Context, objectiveId, keyResultId string) error {
	return c.mutate(ctx, "delete_key_result", KeyResultRegion(objectiveId, keyResultId), func(ctx context.Context) error {
		return c.keyResults.Delete(ctx, objectiveId, keyResultId)
	})
}

// mutate runs call as one Idle -> Submitting -> Settled|Failed cycle of region.
func (c *Controller) mutate(ctx context.Context, op, region string, call func(context.Context) error) error {
	return c.submit(ctx, op, region, nil, call)
}

// submit is mutate with release run exactly once whenever the submission
// ends: before the Failed or Settled state is published, and on every early
// return.
func (c *Controller) submit(ctx context.Context, op, region string, release func(), call func(context.Context) error) error {
	if release == nil {
		release = func() {}
	}
	release = sync.OnceFunc(release)
	defer release()

	if c.closed.Load() {
		return ErrDetached
	}

	lock := c.lock(region)
	if err := lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer lock.Release(1)

	if err := c.store.setState(region, Submitting); err != nil {
		return err
	}
	done := c.metrics.begin()
	defer done()

	err := call(ctx)

	if c.closed.Load() {
		c.metrics.drop("detached")
		return ErrDetached
	}

	if err != nil {
		release()
		c.finish(region, Failed)
		c.metrics.mutation(op, "failed")
		c.logger.Error(fmt.Sprintf("Error occured: %s", err.Error()), "op", op, "region", region)
		return err
	}

	c.metrics.mutation(op, "settled")
	refreshErr := c.Refresh(ctx)
	release()
	c.finish(region, Settled)

	if refreshErr != nil {
		return fmt.Errorf("%s succeeded but the view is stale: %w", strings.ReplaceAll(op, "_", " "), refreshErr)
	}
	return nil
}

func (c *Controller) finish(region string, to MutationState) {
	if err := c.store.setState(region, to); err != nil {
		c.logger.Error("invalid region state", "region", region, "err", err)
	}
}

func (c *Controller) lock(region string) *semaphore.Weighted {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[region]
	if !ok {
		lock = semaphore.NewWeighted(1)
		c.locks[region] = lock
	}
	return lock
}
