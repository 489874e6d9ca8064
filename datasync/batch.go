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

package datasync

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/mapsync/errors"
	"github.com/tochemey/mapsync/internal/ticker"
)

// CheckpointResult reports the entities processed by a checkpoint
type CheckpointResult struct {
	Characters int
	Buildings  int
}

// drainable is an in-flight set a batch waits on
type drainable interface {
	Empty() bool
}

// SaveAllCharacters saves every resident character and blocks until all
// those saves have completed or ctx is done. It returns the number of
// characters enumerated. It returns errors.ErrBatchInProgress, without
// saving anything, while character saves from a previous call are running.
func (m *Manager) SaveAllCharacters(ctx context.Context) (int, error) {
	return m.batch(ctx, "character", m.characterBatch, m.characterSaves, func() int {
		count := 0
		for _, character := range m.residents.Characters() {
			m.SaveCharacter(character)
			count++
		}
		return count
	})
}

// SaveAllBuildings saves every resident building and blocks until all those
// saves have completed or ctx is done. It returns the number of buildings
// enumerated; nil residents are neither saved nor counted. It returns
// errors.ErrBatchInProgress, without saving anything, while building saves
// from a previous call are running.
func (m *Manager) SaveAllBuildings(ctx context.Context) (int, error) {
	return m.batch(ctx, "building", m.buildingBatch, m.buildingSaves, func() int {
		count := 0
		for _, building := range m.residents.Buildings() {
			if building == nil {
				continue
			}
			m.SaveBuilding(building)
			count++
		}
		return count
	})
}

// Checkpoint saves every resident character and building concurrently
func (m *Manager) Checkpoint(ctx context.Context) (CheckpointResult, error) {
	var (
		result CheckpointResult
		group  errgroup.Group
	)

	group.Go(func() (err error) {
		result.Characters, err = m.SaveAllCharacters(ctx)
		return err
	})
	group.Go(func() (err error) {
		result.Buildings, err = m.SaveAllBuildings(ctx)
		return err
	})

	return result, group.Wait()
}

func (m *Manager) scheduledCheckpoint(ctx context.Context) error {
	result, err := m.Checkpoint(ctx)
	switch {
	case err == nil:
		if m.logInfo {
			m.logger.Debugf("checkpoint saved %d character(s) and %d building(s)", result.Characters, result.Buildings)
		}
	case stderrors.Is(err, errors.ErrBatchInProgress):
		m.logger.Warn("checkpoint skipped: the previous checkpoint has not drained yet")
	default:
		m.logger.Errorf("checkpoint failed: %v", err)
	}
	return err
}

// finalCheckpoint lets a checkpoint interrupted by the scheduler shutdown
// settle and then saves everything once more
func (m *Manager) finalCheckpoint(ctx context.Context) error {
	if err := multierr.Combine(
		m.drain(ctx, idleBatch{running: m.characterBatch, saves: m.characterSaves}),
		m.drain(ctx, idleBatch{running: m.buildingBatch, saves: m.buildingSaves}),
	); err != nil {
		return fmt.Errorf("waiting for running saves before the final checkpoint: %w", err)
	}

	result, err := m.Checkpoint(ctx)
	m.logger.Infof("final checkpoint saved %d character(s) and %d building(s)", result.Characters, result.Buildings)
	return err
}

// idleBatch is empty once no batch of its kind runs and its saves have completed
type idleBatch struct {
	running *atomic.Bool
	saves   drainable
}

func (b idleBatch) Empty() bool {
	return !b.running.Load() && b.saves.Empty()
}

// batch fans out the saves of one kind and waits for the in-flight set to drain
func (m *Manager) batch(ctx context.Context, kind string, running *atomic.Bool, saves drainable, fanOut func() int) (int, error) {
	if !m.accepts() {
		return 0, errors.ErrNotStarted
	}
	if !running.CompareAndSwap(false, true) {
		return 0, errors.ErrBatchInProgress
	}
	defer running.Store(false)

	if !saves.Empty() {
		return 0, errors.ErrBatchInProgress
	}

	count := fanOut()
	if err := m.drain(ctx, saves); err != nil {
		return count, err
	}

	m.metric.RecordBatch(ctx, kind, count)
	if m.logInfo {
		m.logger.Debugf("saved %d %s(s)", count, kind)
	}
	return count, nil
}

// drain blocks until saves is empty, re-checking on every tick
func (m *Manager) drain(ctx context.Context, saves drainable) error {
	if saves.Empty() {
		return nil
	}

	tick := ticker.New(m.drainInterval)
	tick.Start()
	defer tick.Stop()

	for {
		select {
		case <-tick.Ticks:
			if saves.Empty() {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Manager) accepts() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accepting
}
