package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/stampo/internal/testutil"
)

// progressRecorder captures all callback events for assertions.
type progressRecorder struct {
	mu        sync.Mutex
	starts    []int
	snapshots []Progress
	completes int
}

func (r *progressRecorder) OnStart(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, total)
}

func (r *progressRecorder) OnProgress(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, p)
}

func (r *progressRecorder) OnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completes++
}

func makeItems(t *testing.T, dir string, count int) []Item {
	t.Helper()

	items := make([]Item, count)
	for i := range items {
		src := filepath.Join(dir, "in", fmt.Sprintf("img_%02d.png", i))
		testutil.WriteTestImage(t, src, 40, 30)
		items[i] = Item{
			Source: src,
			Output: filepath.Join(dir, "out", fmt.Sprintf("img_%02d.jpg", i)),
		}
	}
	return items
}

func TestRunProcessesAllItems(t *testing.T) {
	dir := t.TempDir()
	items := makeItems(t, dir, 5)

	rec := &progressRecorder{}
	report, err := Run(context.Background(), testConfig(), items, rec)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total())
	assert.Equal(t, 5, report.Succeeded)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.Cancelled)
	assert.False(t, report.Partial)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	// Exactly one result per item, in input order.
	require.Len(t, report.Results, 5)
	for i, res := range report.Results {
		assert.Equal(t, items[i].Source, res.Source, "result %d out of order", i)
		assert.Equal(t, FailureNone, res.Kind)
		assert.FileExists(t, items[i].Output)
	}

	// One start with the total, one completion, one snapshot per item.
	assert.Equal(t, []int{5}, rec.starts)
	assert.Equal(t, 1, rec.completes)
	require.Len(t, rec.snapshots, 5)

	// Completed counts are monotonically non-decreasing and end at the total.
	prev := 0
	for _, p := range rec.snapshots {
		assert.GreaterOrEqual(t, p.Completed, prev)
		assert.Equal(t, 5, p.Total)
		prev = p.Completed
	}
	assert.Equal(t, 5, prev)
}

func TestRunFaultIsolation(t *testing.T) {
	dir := t.TempDir()
	items := makeItems(t, dir, 5)

	// Corrupt the third source; its failure must not disturb the others.
	testutil.WriteCorruptImage(t, items[2].Source)

	report, err := Run(context.Background(), testConfig(), items, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, FailureUnsupportedInput, report.Results[2].Kind)

	for i, res := range report.Results {
		if i == 2 {
			continue
		}
		assert.Equal(t, FailureNone, res.Kind, "item %d should have succeeded", i)
	}
}

func TestRunEmptyItems(t *testing.T) {
	rec := &progressRecorder{}
	report, err := Run(context.Background(), testConfig(), nil, rec)
	require.NoError(t, err)

	assert.Zero(t, report.Total())
	assert.Zero(t, report.Succeeded)
	assert.False(t, report.Partial)
	assert.Empty(t, rec.starts, "no lifecycle events for an empty run")
}

func TestRunCancellation(t *testing.T) {
	dir := t.TempDir()
	items := makeItems(t, dir, 10)

	cfg := testConfig()
	cfg.Workers = 1

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel from inside the progress callback after the third completion;
	// with one worker this is deterministic.
	cb := ProgressFunc(func(p Progress) {
		if p.Completed == 3 {
			cancel()
		}
	})

	done := make(chan struct{})
	var report *Report
	var runErr error
	go func() {
		report, runErr = Run(ctx, cfg, items, cb)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("run did not return after cancellation")
	}

	require.NoError(t, runErr)
	assert.True(t, report.Partial)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 7, report.Cancelled)

	for i, res := range report.Results {
		if i < 3 {
			assert.Equal(t, FailureNone, res.Kind, "item %d finished before cancel", i)
		} else {
			assert.Equal(t, FailureCancelled, res.Kind, "item %d was never claimed", i)
			assert.Equal(t, items[i].Source, res.Source)
		}
	}
}

func TestRunProgressIsOrderedUnderContention(t *testing.T) {
	dir := t.TempDir()
	items := makeItems(t, dir, 64)

	cfg := testConfig()
	cfg.Workers = 16

	rec := &progressRecorder{}
	report, err := Run(context.Background(), cfg, items, rec)
	require.NoError(t, err)
	require.Equal(t, 64, report.Succeeded)

	// Snapshots are delivered under the orchestrator's lock, so every
	// observer sees Completed advance by exactly one, never backwards.
	require.Len(t, rec.snapshots, 64)
	for i, p := range rec.snapshots {
		assert.Equal(t, i+1, p.Completed)
	}
}

func TestRunMoreWorkersThanItems(t *testing.T) {
	dir := t.TempDir()
	items := makeItems(t, dir, 2)

	cfg := testConfig()
	cfg.Workers = 16

	report, err := Run(context.Background(), cfg, items, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
}

func TestRunReportDuration(t *testing.T) {
	dir := t.TempDir()
	items := makeItems(t, dir, 1)

	report, err := Run(context.Background(), testConfig(), items, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.Duration(), time.Duration(0))
}
