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

package metric

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/mapsync/errors"
)

// job outcomes recorded on the job counter
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeFailure  = "failure"
)

// SyncMetric groups the instruments describing store traffic.
//
// Instruments:
//   - datasync.jobs.count      (Int64Counter, by job and outcome)
//   - datasync.jobs.duration   (Int64Histogram, unit: ms, by job)
//   - datasync.batches.count   (Int64Counter, by kind)
//   - datasync.batches.saved   (Int64Counter, by kind)
//   - datasync.inflight.size   (Int64ObservableGauge, by tracker)
//   - datasync.loop.pending    (Int64ObservableGauge)
//   - datasync.loop.processed  (Int64ObservableCounter)
type SyncMetric struct {
	meter         metric.Meter
	jobsCount     metric.Int64Counter
	jobsDuration  metric.Int64Histogram
	batchesCount  metric.Int64Counter
	batchesSaved  metric.Int64Counter
	inflightSize  metric.Int64ObservableGauge
	loopPending   metric.Int64ObservableGauge
	loopProcessed metric.Int64ObservableCounter
}

// State is the point-in-time view reported by the observable instruments
type State struct {
	// InFlight maps every tracker name to its size
	InFlight      map[string]int
	LoopPending   int64
	LoopProcessed int64
}

// NewSyncMetric creates the instruments using the provided Meter
func NewSyncMetric(meter metric.Meter) (*SyncMetric, error) {
	instruments := &SyncMetric{meter: meter}
	var err error

	if instruments.jobsCount, err = meter.Int64Counter(
		"datasync.jobs.count",
		metric.WithDescription("Total number of settled store jobs"),
	); err != nil {
		return nil, fmt.Errorf("failed to create jobsCount instrument, %w", err)
	}

	if instruments.jobsDuration, err = meter.Int64Histogram(
		"datasync.jobs.duration",
		metric.WithDescription("The latency of store jobs in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create jobsDuration instrument, %w", err)
	}

	if instruments.batchesCount, err = meter.Int64Counter(
		"datasync.batches.count",
		metric.WithDescription("Total number of batch saves that ran"),
	); err != nil {
		return nil, fmt.Errorf("failed to create batchesCount instrument, %w", err)
	}

	if instruments.batchesSaved, err = meter.Int64Counter(
		"datasync.batches.saved",
		metric.WithDescription("Total number of entities processed by batch saves"),
	); err != nil {
		return nil, fmt.Errorf("failed to create batchesSaved instrument, %w", err)
	}

	if instruments.inflightSize, err = meter.Int64ObservableGauge(
		"datasync.inflight.size",
		metric.WithDescription("Number of keys currently in flight per tracker"),
	); err != nil {
		return nil, fmt.Errorf("failed to create inflightSize instrument, %w", err)
	}

	if instruments.loopPending, err = meter.Int64ObservableGauge(
		"datasync.loop.pending",
		metric.WithDescription("Number of cache closures waiting on the loop"),
	); err != nil {
		return nil, fmt.Errorf("failed to create loopPending instrument, %w", err)
	}

	if instruments.loopProcessed, err = meter.Int64ObservableCounter(
		"datasync.loop.processed",
		metric.WithDescription("Total number of cache closures run by the loop"),
	); err != nil {
		return nil, fmt.Errorf("failed to create loopProcessed instrument, %w", err)
	}

	return instruments, nil
}

// RecordJob records one settled job
func (x *SyncMetric) RecordJob(ctx context.Context, name string, latency time.Duration, err error) {
	x.jobsCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job", name),
		attribute.String("outcome", Outcome(err)),
	))
	x.jobsDuration.Record(ctx, latency.Milliseconds(), metric.WithAttributes(attribute.String("job", name)))
}

// RecordBatch records one completed batch save of the given kind
func (x *SyncMetric) RecordBatch(ctx context.Context, kind string, processed int) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	x.batchesCount.Add(ctx, 1, attrs)
	x.batchesSaved.Add(ctx, int64(processed), attrs)
}

// Observe registers a callback reporting the State returned by state.
// The returned registration must be unregistered on shutdown.
func (x *SyncMetric) Observe(state func() State) (metric.Registration, error) {
	return x.meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		current := state()
		for tracker, size := range current.InFlight {
			observer.ObserveInt64(x.inflightSize, int64(size), metric.WithAttributes(attribute.String("tracker", tracker)))
		}
		observer.ObserveInt64(x.loopPending, current.LoopPending)
		observer.ObserveInt64(x.loopProcessed, current.LoopProcessed)
		return nil
	}, x.inflightSize, x.loopPending, x.loopProcessed)
}

// Outcome classifies a job error
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.IsNotFound(err):
		return OutcomeNotFound
	default:
		return OutcomeFailure
	}
}
