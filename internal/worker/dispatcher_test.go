package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MeKo-Tech/sitescout/internal/types"
)

// mockAssessor simulates a provider for testing
type mockAssessor struct {
	delay     time.Duration
	callCount atomic.Int32
	release   chan struct{} // if set, calls block until closed
}

func (m *mockAssessor) Assess(ctx context.Context, c types.Coordinate) types.Assessment {
	m.callCount.Add(1)

	if m.release != nil {
		<-m.release
	}
	select {
	case <-ctx.Done():
	case <-time.After(m.delay):
	}

	return types.Assessment{
		TrafficScore:    c.Lat,
		InfluenceRadius: 1000,
		Description:     "mock",
		Source:          types.SourceSynthetic,
	}
}

// collector gathers results from OnResult.
type collector struct {
	mu      sync.Mutex
	results []Result
}

func (c *collector) add(r Result) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
}

func (c *collector) byID() map[types.PointID]Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[types.PointID]Result, len(c.results))
	for _, r := range c.results {
		out[r.Job.PointID] = r
	}
	return out
}

func jobs(n int) []Job {
	out := make([]Job, n)
	for i := range out {
		out[i] = Job{
			PointID:    types.PointID(fmt.Sprintf("p%d", i)),
			Coordinate: types.Coordinate{Lat: float64(i), Lng: 121},
		}
	}
	return out
}

func TestDispatcher_BasicExecution(t *testing.T) {
	gen := &mockAssessor{delay: 10 * time.Millisecond}
	var col collector

	d := New(Config{Workers: 2, Assessor: gen, OnResult: col.add})
	d.Start(context.Background())

	for _, j := range jobs(3) {
		if !d.Submit(j) {
			t.Fatalf("Submit(%s) rejected", j.PointID)
		}
	}
	d.Stop()

	got := col.byID()
	if len(got) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(got))
	}
	for i := 0; i < 3; i++ {
		r, ok := got[types.PointID(fmt.Sprintf("p%d", i))]
		if !ok {
			t.Fatalf("Missing result for p%d", i)
		}
		if r.Assessment.TrafficScore != float64(i) {
			t.Errorf("Result for p%d carries the wrong assessment: %v", i, r.Assessment.TrafficScore)
		}
	}

	stats := d.Stats()
	if stats.Completed != 3 || stats.Submitted != 3 || stats.Active != 0 || stats.Queued != 0 {
		t.Errorf("Unexpected stats after stop: %+v", stats)
	}
}

func TestDispatcher_Parallelism(t *testing.T) {
	gen := &mockAssessor{delay: 50 * time.Millisecond}

	d := New(Config{Workers: 4, Assessor: gen})
	d.Start(context.Background())

	start := time.Now()
	for _, j := range jobs(8) {
		d.Submit(j)
	}
	d.Stop()
	elapsed := time.Since(start)

	// 8 jobs / 4 workers * 50ms = ~100ms; sequential would be 400ms
	if elapsed > 300*time.Millisecond {
		t.Errorf("Expected parallel execution (~100ms), took %v", elapsed)
	}
	if gen.callCount.Load() != 8 {
		t.Errorf("Expected 8 calls, got %d", gen.callCount.Load())
	}
}

func TestDispatcher_SubmitNeverBlocks(t *testing.T) {
	gen := &mockAssessor{release: make(chan struct{})}
	var col collector

	d := New(Config{Workers: 1, QueueSize: 1, Assessor: gen, OnResult: col.add})
	d.Start(context.Background())

	done := make(chan struct{})
	go func() {
		for _, j := range jobs(5) {
			d.Submit(j)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}

	close(gen.release)
	d.Stop()

	if n := len(col.byID()); n != 5 {
		t.Errorf("Expected 5 results, got %d", n)
	}
}

func TestDispatcher_StopWithoutStartDrainsQueue(t *testing.T) {
	gen := &mockAssessor{}
	var col collector

	d := New(Config{Workers: 2, QueueSize: 10, Assessor: gen, OnResult: col.add})
	for _, j := range jobs(4) {
		d.Submit(j)
	}
	d.Stop()

	if n := len(col.byID()); n != 4 {
		t.Errorf("Expected 4 results, got %d", n)
	}
}

func TestDispatcher_SubmitAfterStop(t *testing.T) {
	d := New(Config{Assessor: &mockAssessor{}})
	d.Start(context.Background())
	d.Stop()

	if d.Submit(Job{PointID: "late"}) {
		t.Error("Expected Submit to be rejected after Stop")
	}

	// second Stop is harmless
	d.Stop()
}

func TestDispatcher_ProgressCallback(t *testing.T) {
	gen := &mockAssessor{}

	var maxCompleted atomic.Int32
	var calls atomic.Int32

	d := New(Config{
		Workers:  2,
		Assessor: gen,
		OnProgress: func(completed, submitted int) {
			calls.Add(1)
			for {
				cur := maxCompleted.Load()
				if int32(completed) <= cur || maxCompleted.CompareAndSwap(cur, int32(completed)) {
					break
				}
			}
			if completed > submitted {
				t.Errorf("completed %d exceeds submitted %d", completed, submitted)
			}
		},
	})
	d.Start(context.Background())
	for _, j := range jobs(5) {
		d.Submit(j)
	}
	d.Stop()

	if calls.Load() != 5 {
		t.Errorf("Expected 5 progress calls, got %d", calls.Load())
	}
	if maxCompleted.Load() != 5 {
		t.Errorf("Expected final completed=5, got %d", maxCompleted.Load())
	}
}

func TestDispatcher_ContextCancellation(t *testing.T) {
	gen := &mockAssessor{delay: 5 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	d := New(Config{Workers: 2, Assessor: gen})
	d.Start(ctx)

	for _, j := range jobs(4) {
		d.Submit(j)
	}
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	d.Stop()

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected cancelled assessments to finish quickly, took %v", elapsed)
	}
	if d.Stats().Completed != 4 {
		t.Errorf("Expected every job to complete, got %d", d.Stats().Completed)
	}
}

func TestDispatcher_DefaultWorkers(t *testing.T) {
	d := New(Config{Assessor: &mockAssessor{}})
	if d.workers != DefaultWorkers {
		t.Errorf("Expected %d workers, got %d", DefaultWorkers, d.workers)
	}
	if cap(d.queue) != 4*DefaultWorkers {
		t.Errorf("Expected queue of %d, got %d", 4*DefaultWorkers, cap(d.queue))
	}
}
