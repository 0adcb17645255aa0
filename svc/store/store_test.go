package store

import (
	"context"
	"sync"
	"testing"

	"macrobin/pkg/domain"

	"github.com/pkg/errors"
)

type fakeDurable struct {
	mu       sync.Mutex
	inserted []uint64
	fail     bool
}

func (f *fakeDurable) Insert(ctx context.Context, p *domain.Pasta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("disk full")
	}
	f.inserted = append(f.inserted, p.ID)
	return nil
}

func TestAppendCommits(t *testing.T) {
	d := &fakeDurable{}
	c := NewCoordinator(d, nil)
	if c.exists(1) {
		t.Error("exists(1) true on empty coordinator")
	}
	if err := c.Append(context.Background(), &domain.Pasta{ID: 1}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if !c.exists(1) {
		t.Error("exists(1) false after append")
	}
	if len(d.inserted) != 1 || d.inserted[0] != 1 {
		t.Errorf("durable insert calls = %v, want [1]", d.inserted)
	}
}

func TestReserveIsExclusive(t *testing.T) {
	c := NewCoordinator(&fakeDurable{}, nil)
	if !c.Reserve(7) {
		t.Fatal("first Reserve(7) failed")
	}
	if c.Reserve(7) {
		t.Error("second Reserve(7) succeeded while held")
	}
	c.Release(7)
	if !c.Reserve(7) {
		t.Error("Reserve(7) failed after Release")
	}
}

func TestReserveRejectsCommittedID(t *testing.T) {
	c := NewCoordinator(&fakeDurable{}, nil)
	if err := c.Append(context.Background(), &domain.Pasta{ID: 4}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if c.Reserve(4) {
		t.Error("Reserve succeeded for a committed id")
	}
}

func TestAppendConsumesReservation(t *testing.T) {
	c := NewCoordinator(&fakeDurable{}, nil)
	if !c.Reserve(8) {
		t.Fatal("Reserve failed")
	}
	if err := c.Append(context.Background(), &domain.Pasta{ID: 8}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	// Committed now, and releasing must not free the id.
	c.Release(8)
	if c.Reserve(8) {
		t.Error("Reserve succeeded for a committed id after Release")
	}
}

func TestAppendRejectsDuplicateID(t *testing.T) {
	c := NewCoordinator(&fakeDurable{}, nil)
	if err := c.Append(context.Background(), &domain.Pasta{ID: 5}); err != nil {
		t.Fatalf("first Append failed: %v", err)
	}
	err := c.Append(context.Background(), &domain.Pasta{ID: 5})
	if err != domain.ErrIDCollision {
		t.Fatalf("duplicate Append error = %v, want ErrIDCollision", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d after rejected duplicate, want 1", c.Len())
	}
}

func TestAppendRollsBackOnPersistFailure(t *testing.T) {
	d := &fakeDurable{fail: true}
	c := NewCoordinator(d, nil)
	if !c.Reserve(9) {
		t.Fatal("Reserve failed")
	}
	if err := c.Append(context.Background(), &domain.Pasta{ID: 9}); err == nil {
		t.Fatal("Append succeeded despite persist failure")
	}
	if c.exists(9) {
		t.Error("failed append left record in memory")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after rollback, want 0", c.Len())
	}
	// The reservation survives the failed append so the caller keeps
	// exclusive ownership while it cleans up its side effects.
	if c.Reserve(9) {
		t.Error("another request could reserve the id before Release")
	}
	c.Release(9)
	if !c.Reserve(9) {
		t.Error("Reserve failed after the owner released")
	}
}

func TestSeedWarmsCollection(t *testing.T) {
	seed := []*domain.Pasta{{ID: 2}, {ID: 3}}
	c := NewCoordinator(&fakeDurable{}, seed)
	if c.Len() != 2 || !c.exists(2) || !c.exists(3) {
		t.Errorf("seeded coordinator state wrong: len=%d", c.Len())
	}
}

func TestConcurrentAppendsStayConsistent(t *testing.T) {
	d := &fakeDurable{}
	c := NewCoordinator(d, nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			if !c.Reserve(id) {
				t.Errorf("Reserve(%d) failed", id)
				return
			}
			if err := c.Append(context.Background(), &domain.Pasta{ID: id}); err != nil {
				t.Errorf("Append(%d) failed: %v", id, err)
			}
		}(uint64(i))
	}
	wg.Wait()
	if c.Len() != 50 {
		t.Errorf("Len = %d after concurrent appends, want 50", c.Len())
	}
	if len(d.inserted) != 50 {
		t.Errorf("durable inserts = %d, want 50", len(d.inserted))
	}
	snap := c.snapshot()
	if len(snap) != 50 {
		t.Errorf("snapshot len = %d, want 50", len(snap))
	}
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	c := NewCoordinator(&fakeDurable{}, nil)
	var wg sync.WaitGroup
	wins := make(chan struct{}, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Reserve(42) {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)
	n := 0
	for range wins {
		n++
	}
	if n != 1 {
		t.Errorf("%d goroutines reserved the same id, want 1", n)
	}
}
