// Package store serializes access to the shared pasta collection and
// couples every append with a durable persist.
package store

import (
	"context"
	"sync"

	"macrobin/pkg/domain"

	"github.com/pkg/errors"
)

// Durable persists a snapshot of one record. Implementations must be
// idempotent for the same id.
type Durable interface {
	Insert(ctx context.Context, p *domain.Pasta) error
}

// Coordinator owns the process-wide ordered collection of records. One
// mutex guards both the append and the durable insert; validation,
// crypto, and file I/O all happen before Append is called, so the
// critical section stays small.
//
// Ids move through two states: reserved by Reserve while a request is
// still writing side effects (the attachment directory is named after
// the id's slug, so exclusive ownership must start before the first
// byte hits disk), then committed by Append. A request that fails
// after reserving calls Release.
type Coordinator struct {
	mu       sync.Mutex
	pastas   []*domain.Pasta
	byID     map[uint64]struct{}
	reserved map[uint64]struct{}
	durable  Durable
}

func NewCoordinator(d Durable, seed []*domain.Pasta) *Coordinator {
	c := &Coordinator{
		durable:  d,
		byID:     make(map[uint64]struct{}, len(seed)),
		reserved: make(map[uint64]struct{}),
	}
	for _, p := range seed {
		c.pastas = append(c.pastas, p)
		c.byID[p.ID] = struct{}{}
	}
	return c
}

// Reserve claims an id for one in-flight request. It fails when the id
// is committed or held by another request; success means no other
// request can write under this id, or its slug, until Release or
// Append.
func (c *Coordinator) Reserve(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[id]; ok {
		return false
	}
	if _, ok := c.reserved[id]; ok {
		return false
	}
	c.reserved[id] = struct{}{}
	return true
}

// Release gives up a reservation that will not be committed. Safe to
// call after a failed Append; releasing a committed id is a no-op.
func (c *Coordinator) Release(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reserved, id)
}

// Append commits the finished record: append to the in-memory collection
// and persist the snapshot, atomically with respect to other appends. A
// failed persist rolls the in-memory append back but keeps the caller's
// reservation, so the id stays owned until the caller has finished its
// own compensation and calls Release.
func (c *Coordinator) Append(ctx context.Context, p *domain.Pasta) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[p.ID]; ok {
		return domain.ErrIDCollision
	}
	c.pastas = append(c.pastas, p)
	c.byID[p.ID] = struct{}{}
	delete(c.reserved, p.ID)
	if err := c.durable.Insert(ctx, p); err != nil {
		c.pastas = c.pastas[:len(c.pastas)-1]
		delete(c.byID, p.ID)
		c.reserved[p.ID] = struct{}{}
		return errors.Wrap(err, "persist pasta")
	}
	return nil
}

func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pastas)
}

// exists reports whether an id is committed.
func (c *Coordinator) exists(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.byID[id]
	return ok
}

// snapshot copies the collection in insertion order. The records
// themselves are shared; the creation pipeline never mutates a record
// after commit.
func (c *Coordinator) snapshot() []*domain.Pasta {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*domain.Pasta, len(c.pastas))
	copy(out, c.pastas)
	return out
}
