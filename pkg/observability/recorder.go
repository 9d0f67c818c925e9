package observability

import (
	"context"
	"maps"
	"sync"
	"time"
)

// Recorder counts pipeline and cache events in memory.
// It implements both PipelineHooks and CacheHooks.
type Recorder struct {
	NoopPipelineHooks

	mu      sync.Mutex
	stages  map[string]time.Duration
	hits    map[string]int
	misses  map[string]int
	layouts int
	errors  int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		stages: make(map[string]time.Duration),
		hits:   make(map[string]int),
		misses: make(map[string]int),
	}
}

func (r *Recorder) OnStageComplete(_ context.Context, stage string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[stage] += d
}

func (r *Recorder) OnLayoutComplete(_ context.Context, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts++
	if err != nil {
		r.errors++
	}
}

func (r *Recorder) OnCacheHit(_ context.Context, keyType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits[keyType]++
}

func (r *Recorder) OnCacheMiss(_ context.Context, keyType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses[keyType]++
}

func (r *Recorder) OnCacheSet(context.Context, string, int) {}

// Snapshot is a copy of the recorder's counters.
type Snapshot struct {
	Stages  map[string]time.Duration
	Hits    map[string]int
	Misses  map[string]int
	Layouts int
	Errors  int
}

// Snapshot returns the counters collected so far.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Stages:  maps.Clone(r.stages),
		Hits:    maps.Clone(r.hits),
		Misses:  maps.Clone(r.misses),
		Layouts: r.layouts,
		Errors:  r.errors,
	}
}
