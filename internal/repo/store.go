package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"license-shop/internal/domain"
)

var ErrTxDone = errors.New("transaction already committed or rolled back")

// Store is the in-memory source of truth for orders, licenses, payments and
// statistics. Entities are held by value and handed out as copies.
//
// Writers go through a Tx, which holds the write lock from Begin until
// Commit or Rollback, so a multi-entity change is never observed half done.
type Store struct {
	mu       sync.RWMutex
	seq      uint64
	orders   map[string]orderEntry
	licenses map[string]domain.License
	payments []domain.Payment
	stats    domain.Stats
}

type orderEntry struct {
	seq   uint64
	order domain.Order
}

func NewStore(now time.Time) *Store {
	return &Store{
		orders:   map[string]orderEntry{},
		licenses: map[string]domain.License{},
		stats:    domain.NewStats(now),
	}
}

// Tx stages writes against the store. Reads through a Tx see its own
// staged writes.
type Tx struct {
	s        *Store
	done     bool
	orders   map[string]orderEntry
	licenses map[string]domain.License
	payments []domain.Payment
	stats    *domain.Stats
}

func (s *Store) BeginTx(ctx context.Context) (*Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &Tx{
		s:        s,
		orders:   map[string]orderEntry{},
		licenses: map[string]domain.License{},
	}, nil
}

func (tx *Tx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	s := tx.s
	for id, e := range tx.orders {
		s.orders[id] = e
	}
	for key, l := range tx.licenses {
		s.licenses[key] = l
	}
	s.payments = append(s.payments, tx.payments...)
	if tx.stats != nil {
		s.stats = *tx.stats
	}
	tx.done = true
	s.mu.Unlock()
	return nil
}

// Rollback discards staged writes. It is safe to call after Commit.
func (tx *Tx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.s.mu.Unlock()
	return nil
}

// reader is the read surface shared by the committed store and a Tx.
type reader interface {
	order(id string) (orderEntry, bool)
	eachOrder(fn func(orderEntry))
	license(key string) (domain.License, bool)
	licenseCount() int
	paymentList() []domain.Payment
	currentStats() domain.Stats
}

type committed struct{ s *Store }

func (c committed) order(id string) (orderEntry, bool) {
	e, ok := c.s.orders[id]
	return e, ok
}

func (c committed) eachOrder(fn func(orderEntry)) {
	for _, e := range c.s.orders {
		fn(e)
	}
}

func (c committed) license(key string) (domain.License, bool) {
	l, ok := c.s.licenses[key]
	return l, ok
}

func (c committed) licenseCount() int { return len(c.s.licenses) }

func (c committed) paymentList() []domain.Payment { return c.s.payments }

func (c committed) currentStats() domain.Stats { return c.s.stats }

func (tx *Tx) order(id string) (orderEntry, bool) {
	if e, ok := tx.orders[id]; ok {
		return e, true
	}
	e, ok := tx.s.orders[id]
	return e, ok
}

func (tx *Tx) eachOrder(fn func(orderEntry)) {
	for id, e := range tx.s.orders {
		if _, staged := tx.orders[id]; staged {
			continue
		}
		fn(e)
	}
	for _, e := range tx.orders {
		fn(e)
	}
}

func (tx *Tx) license(key string) (domain.License, bool) {
	if l, ok := tx.licenses[key]; ok {
		return l, true
	}
	l, ok := tx.s.licenses[key]
	return l, ok
}

func (tx *Tx) licenseCount() int {
	n := len(tx.s.licenses)
	for key := range tx.licenses {
		if _, ok := tx.s.licenses[key]; !ok {
			n++
		}
	}
	return n
}

func (tx *Tx) paymentList() []domain.Payment {
	out := make([]domain.Payment, 0, len(tx.s.payments)+len(tx.payments))
	out = append(out, tx.s.payments...)
	return append(out, tx.payments...)
}

func (tx *Tx) currentStats() domain.Stats {
	if tx.stats != nil {
		return *tx.stats
	}
	return tx.s.stats
}

// view runs fn against tx, or against the committed state under a read lock
// when tx is nil.
func (s *Store) view(tx *Tx, fn func(r reader)) error {
	if tx != nil {
		if tx.done {
			return ErrTxDone
		}
		fn(tx)
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(committed{s})
	return nil
}

// write stages fn in tx, or in a short transaction of its own when tx is nil.
func (s *Store) write(ctx context.Context, tx *Tx, fn func(tx *Tx)) error {
	if tx != nil {
		if tx.done {
			return ErrTxDone
		}
		fn(tx)
		return nil
	}
	own, err := s.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer own.Rollback()
	fn(own)
	return own.Commit()
}

func (tx *Tx) nextSeq() uint64 {
	tx.s.seq++
	return tx.s.seq
}

// sortedOrders returns orders newest first; equal timestamps put the later
// insert first.
func sortedOrders(r reader, keep func(domain.Order) bool) []orderEntry {
	var out []orderEntry
	r.eachOrder(func(e orderEntry) {
		if keep == nil || keep(e.order) {
			out = append(out, e)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.order.CreatedAt.Equal(b.order.CreatedAt) {
			return a.order.CreatedAt.After(b.order.CreatedAt)
		}
		return a.seq > b.seq
	})
	return out
}
