package sweep

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"talentgrid/backend/internal/region"
)

type fakeTokens struct {
	mu      sync.Mutex
	regions []region.Region
	cutoffs []time.Time
	err     error
}

func (f *fakeTokens) DeleteExpired(ctx context.Context, r region.Region, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regions = append(f.regions, r)
	f.cutoffs = append(f.cutoffs, before)
	if f.err != nil {
		return 0, f.err
	}
	return 2, nil
}

type fakeDirectory struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeDirectory) DeleteExpiredSignupTokens(ctx context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func TestSweepOnce_CoversEveryRegionAndDirectory(t *testing.T) {
	tokens := &fakeTokens{}
	dir := &fakeDirectory{}
	s := New(tokens, dir, time.Hour, nil)
	fixed := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.SweepOnce(context.Background())

	if len(tokens.regions) != len(region.All) {
		t.Fatalf("swept %d regions, want %d", len(tokens.regions), len(region.All))
	}
	seen := map[region.Region]bool{}
	for i, rg := range tokens.regions {
		seen[rg] = true
		if !tokens.cutoffs[i].Equal(fixed) {
			t.Errorf("cutoff = %v, want %v", tokens.cutoffs[i], fixed)
		}
	}
	for _, rg := range region.All {
		if !seen[rg] {
			t.Errorf("region %s not swept", rg)
		}
	}
	if dir.calls != 1 {
		t.Errorf("directory sweeps = %d, want 1", dir.calls)
	}
}

func TestSweepOnce_RegionFailureDoesNotStopOthers(t *testing.T) {
	tokens := &fakeTokens{err: errors.New("connection refused")}
	dir := &fakeDirectory{}
	s := New(tokens, dir, time.Hour, nil)

	s.SweepOnce(context.Background())

	if len(tokens.regions) != len(region.All) {
		t.Fatalf("swept %d regions, want all %d despite errors", len(tokens.regions), len(region.All))
	}
	if dir.calls != 1 {
		t.Errorf("directory sweeps = %d, want 1", dir.calls)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	tokens := &fakeTokens{}
	dir := &fakeDirectory{}
	s := New(tokens, dir, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	tokens.mu.Lock()
	sweeps := len(tokens.regions) / len(region.All)
	tokens.mu.Unlock()
	if sweeps < 2 {
		t.Errorf("expected at least 2 sweeps, got %d", sweeps)
	}
}
