/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package datasync keeps the in-memory game world of a map server in step
// with the persistent store without ever blocking the simulation on I/O.
//
// The Manager owns three read-through caches (storage inventories, parties
// and guilds), a save pipeline for characters and buildings, and the batch
// orchestrator used by periodic checkpoints and shutdown. Every store call
// runs as a job on a worker pool. Every cache mutation runs on a single
// loop goroutine, so caches need no locking. Duplicate loads and saves of
// the same key are collapsed by in-flight sets.
//
// Example usage:
//
//	manager, err := datasync.New(backend, world,
//	    datasync.WithSceneName("map01"),
//	    datasync.WithSaveInterval(time.Minute),
//	    datasync.WithSaveOnStop())
//	if err != nil {
//	    return err
//	}
//	if err := manager.Start(ctx); err != nil {
//	    return err
//	}
//	defer manager.Stop(ctx)
//
//	manager.EnsureStorage(model.PlayerStorage(userID))
package datasync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/tochemey/mapsync/errors"
	"github.com/tochemey/mapsync/internal/inflight"
	"github.com/tochemey/mapsync/internal/loop"
	imetric "github.com/tochemey/mapsync/internal/metric"
	"github.com/tochemey/mapsync/internal/workerpool"
	"github.com/tochemey/mapsync/job"
	"github.com/tochemey/mapsync/log"
	"github.com/tochemey/mapsync/model"
	"github.com/tochemey/mapsync/store"
)

// InFlightStats reports the number of keys currently in flight per kind
type InFlightStats struct {
	StorageLoads   int
	PartyLoads     int
	GuildLoads     int
	CharacterSaves int
	BuildingSaves  int
}

// Manager is the data synchronization layer of one map server.
//
// Ensure, Save, Create and Delete calls return immediately and may be made
// from any goroutine. SaveAllCharacters, SaveAllBuildings, Checkpoint and Stop
// block until the saves they started have drained and must never be called
// from a function running on the manager loop, such as a MutateStorage callback.
type Manager struct {
	*settings

	store     store.Store
	residents Residents

	loop      *loop.Loop
	pool      *workerpool.WorkerPool
	scheduler *scheduler
	metric    *imetric.SyncMetric

	// owned by the loop goroutine
	storages map[model.StorageID]model.ItemList
	parties  map[int]*model.PartyRecord
	guilds   map[int]*model.GuildRecord

	storageLoads   *inflight.Set[model.StorageID]
	partyLoads     *inflight.Set[int]
	guildLoads     *inflight.Set[int]
	characterSaves *inflight.Set[string]
	buildingSaves  *inflight.Set[string]

	characterBatch *atomic.Bool
	buildingBatch  *atomic.Bool

	started *atomic.Bool
	stopped *atomic.Bool

	// mu guards accepting so that no operation is registered once Stop waits on ops
	mu        sync.RWMutex
	accepting bool
	ops       sync.WaitGroup

	ctx          context.Context
	cancel       context.CancelFunc
	registration metric.Registration
}

// New creates a Manager persisting through st and enumerating the live
// entities of residents. The Manager does nothing until Start is called.
func New(st store.Store, residents Residents, opts ...Option) (*Manager, error) {
	if st == nil {
		return nil, errors.ErrStoreRequired
	}
	if residents == nil {
		return nil, errors.ErrResidentsRequired
	}

	cfg := defaultSettings()
	for _, opt := range opts {
		opt.Apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.DiscardLogger
	}
	if cfg.drainInterval <= 0 {
		cfg.drainInterval = DefaultDrainInterval
	}
	if cfg.workerShards <= 0 {
		cfg.workerShards = DefaultWorkerShards
	}

	syncMetric, err := imetric.NewSyncMetric(imetric.NewProvider(cfg.meterProvider).Meter())
	if err != nil {
		return nil, err
	}

	sched, err := newScheduler(cfg.logger, DefaultStopTimeout)
	if err != nil {
		return nil, err
	}

	return &Manager{
		settings:  cfg,
		store:     st,
		residents: residents,
		loop:      loop.New(cfg.logger),
		pool: workerpool.New(
			workerpool.WithNumShards(cfg.workerShards),
			workerpool.WithPassivateAfter(cfg.passivateAfter),
		),
		scheduler:      sched,
		metric:         syncMetric,
		storages:       make(map[model.StorageID]model.ItemList),
		parties:        make(map[int]*model.PartyRecord),
		guilds:         make(map[int]*model.GuildRecord),
		storageLoads:   inflight.New("storage", inflight.StorageHasher),
		partyLoads:     inflight.New("party", inflight.IntHasher),
		guildLoads:     inflight.New("guild", inflight.IntHasher),
		characterSaves: inflight.New("character", inflight.StringHasher),
		buildingSaves:  inflight.New("building", inflight.StringHasher),
		characterBatch: atomic.NewBool(false),
		buildingBatch:  atomic.NewBool(false),
		started:        atomic.NewBool(false),
		stopped:        atomic.NewBool(false),
	}, nil
}

// Start starts the loop, the worker pool and, when a save interval is set,
// the periodic checkpoint. A stopped Manager cannot be started again.
func (m *Manager) Start(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return errors.ErrAlreadyStarted
	}

	m.logger.Infof("starting data manager for scene=(%s)...", m.sceneName)
	m.ctx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
	m.loop.Start()
	m.pool.Start()

	registration, err := m.metric.Observe(func() imetric.State {
		stats := m.InFlight()
		return imetric.State{
			InFlight: map[string]int{
				m.storageLoads.Name():   stats.StorageLoads,
				m.partyLoads.Name():     stats.PartyLoads,
				m.guildLoads.Name():     stats.GuildLoads,
				m.characterSaves.Name(): stats.CharacterSaves,
				m.buildingSaves.Name():  stats.BuildingSaves,
			},
			LoopPending:   m.loop.Pending(),
			LoopProcessed: m.loop.Processed(),
		}
	})
	if err != nil {
		m.logger.Warnf("failed to observe the manager state: %v", err)
	}
	m.registration = registration

	m.mu.Lock()
	m.accepting = true
	m.mu.Unlock()

	if m.saveInterval > 0 {
		m.scheduler.Start(m.ctx)
		if err := m.scheduler.Schedule(m.saveInterval, m.scheduledCheckpoint); err != nil {
			return multierr.Combine(fmt.Errorf("failed to schedule the checkpoint: %w", err), m.Stop(ctx))
		}
	}

	m.logger.Info("data manager started.:)")
	return nil
}

// Stop shuts the Manager down. It cancels the periodic checkpoint, runs a
// final checkpoint when WithSaveOnStop is set, waits for every outstanding
// operation and then releases the loop and the worker pool. Operations still
// running when ctx is done are canceled.
func (m *Manager) Stop(ctx context.Context) error {
	if !m.started.Load() {
		return errors.ErrNotStarted
	}
	if !m.stopped.CompareAndSwap(false, true) {
		return nil
	}

	m.logger.Info("stopping data manager...")
	m.scheduler.Stop(ctx)

	var err error
	if m.saveOnStop {
		err = multierr.Append(err, m.finalCheckpoint(ctx))
	}

	m.mu.Lock()
	m.accepting = false
	m.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		m.ops.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		err = multierr.Append(err, fmt.Errorf("waiting for outstanding operations: %w", ctx.Err()))
		m.logger.Warnf("canceling unfinished saves: characters=%v buildings=%v",
			m.characterSaves.Keys(), m.buildingSaves.Keys())
		m.cancel()
		<-drained
	}
	m.cancel()

	if m.registration != nil {
		err = multierr.Append(err, m.registration.Unregister())
	}

	// closures left on the loop are short cache writes
	err = multierr.Append(err, m.loop.Stop(context.Background()))
	m.pool.Stop()
	err = multierr.Append(err, m.pool.Wait(ctx))

	if err != nil {
		m.logger.Errorf("data manager stopped with errors: %v", err)
		return err
	}
	m.logger.Info("data manager stopped.:)")
	return nil
}

// InFlight returns the sizes of the in-flight sets
func (m *Manager) InFlight() InFlightStats {
	return InFlightStats{
		StorageLoads:   m.storageLoads.Len(),
		PartyLoads:     m.partyLoads.Len(),
		GuildLoads:     m.guildLoads.Len(),
		CharacterSaves: m.characterSaves.Len(),
		BuildingSaves:  m.buildingSaves.Len(),
	}
}

// acquire registers an outstanding operation. It returns false once the
// Manager no longer accepts work.
func (m *Manager) acquire() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.accepting {
		return false
	}
	m.ops.Add(1)
	return true
}

// spawn runs fn as an operation registered by acquire
func (m *Manager) spawn(fn func(ctx context.Context) error) *Operation {
	op := newOperation()
	go func() {
		defer m.ops.Done()
		op.settle(fn(m.ctx))
	}()
	return op
}

// onLoop runs fn on the loop and waits for it
func (m *Manager) onLoop(ctx context.Context, fn func()) error {
	return m.loop.Do(ctx, fn)
}

func (m *Manager) observe(name string, latency time.Duration, err error) {
	m.metric.RecordJob(context.Background(), name, latency, err)
}

// runJob runs task as a job on the worker pool and waits for it.
// A NotFound result is returned as an error wrapping errors.ErrNotFound.
func runJob[T any](ctx context.Context, m *Manager, name, key string, task job.Task[T]) (T, error) {
	j := job.New(name, task,
		job.WithExecutor(m.pool),
		job.WithTimeout(m.jobTimeout),
		job.WithLogger(m.logger),
		job.WithObserver(m.observe),
		job.WithKey(key),
	)

	value, ok := j.Start(ctx).WaitFor(ctx)
	if ok {
		return value, nil
	}

	// a done ctx settles the job right away
	<-j.Done()
	result := j.Result()
	return result.Success(), result.Failure()
}

// write adapts a store write to a job task
func write(fn func(ctx context.Context) error) job.Task[struct{}] {
	return func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}
}
