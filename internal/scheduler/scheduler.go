package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"memwatch/internal/model"
	"memwatch/internal/sampler"
)

// Sampler probes current memory usage. Implemented by sampler.Sampler.
type Sampler interface {
	Sample(ctx context.Context) (sampler.Reading, error)
}

// SampleStore persists readings. Implemented by repository.SampleRepository.
type SampleStore interface {
	Insert(ctx context.Context, sample model.MemorySample) error
}

// Scheduler drives one sampling cycle per interval on a single goroutine,
// so cycles never overlap. It is the handle returned by Start and owns the
// loop's lifecycle: create it when the process starts serving and call
// Stop exactly once at shutdown.
type Scheduler struct {
	sampler  Sampler
	store    SampleStore
	interval time.Duration
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start launches the sampling loop and returns its handle. The first cycle
// runs immediately; later cycles fire every interval.
func Start(s Sampler, store SampleStore, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	sched := &Scheduler{
		sampler:  s,
		store:    store,
		interval: interval,
		now:      time.Now,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go sched.run(ctx)
	return sched
}

// Stop cancels the loop and waits for it to exit. An in-flight probe is
// killed through context cancellation rather than awaited, so the wait is
// bounded by the probe timeout at worst. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.once.Do(s.cancel)
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("memory sampling started", "interval", s.interval)
	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("memory sampling stopped")
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// cycle runs one probe and, on success, persists the reading with a
// server-assigned timestamp. A failed probe or insert skips the sample;
// the loop itself always continues.
func (s *Scheduler) cycle(ctx context.Context) {
	reading, err := s.sampler.Sample(ctx)
	if err != nil {
		// Already logged by the sampler with the failure reason.
		return
	}

	sample := model.MemorySample{
		SampledAt: s.now().UTC(),
		TotalMB:   reading.TotalMB,
		UsedMB:    reading.UsedMB,
		FreeMB:    reading.FreeMB,
	}

	if err := s.store.Insert(ctx, sample); err != nil {
		slog.Error("failed to persist memory sample", "error", err)
		return
	}

	slog.Info("memory sample recorded",
		"total_mb", sample.TotalMB,
		"used_mb", sample.UsedMB,
		"free_mb", sample.FreeMB)
}
