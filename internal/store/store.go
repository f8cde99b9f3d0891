// Package store owns the client's canonical transaction collection. The
// collection only ever reflects states the remote store has confirmed: every
// write waits for the gateway before touching local state, and a failed write
// leaves the collection exactly as it was.
package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	apperrors "budgettracker/internal/errors"
	"budgettracker/internal/ledger"
	"budgettracker/internal/logger"
)

// Gateway defines the remote operations the store needs.
type Gateway interface {
	ListAll(ctx context.Context) ([]ledger.Transaction, error)
	Create(ctx context.Context, entry ledger.Entry) (ledger.Transaction, error)
	Update(ctx context.Context, id ledger.ID, entry ledger.Entry) (ledger.Transaction, error)
	Delete(ctx context.Context, id ledger.ID) error
}

// Session is the part of the session holder the store depends on.
type Session interface {
	Generation() uint64
	Clear() error
	Subscribe(fn func(authenticated bool))
}

// Listener receives a copy of the collection after every confirmed change.
type Listener func(txs []ledger.Transaction)

// Store is the single source of truth for the local transaction collection.
// Only one write (Refresh, Add, Edit, Remove) may be in flight at a time; a
// second one is rejected with ErrBusy. Reads are never blocked by an
// outstanding write and see the last confirmed state.
type Store struct {
	gateway Gateway
	session Session
	log     *zap.SugaredLogger

	busy atomic.Bool

	mu        sync.RWMutex
	items     []ledger.Transaction
	listeners []Listener
}

// New creates an empty Store. When the session loses its credential the
// collection is cleared.
func New(gateway Gateway, session Session) *Store {
	s := &Store{
		gateway: gateway,
		session: session,
		log:     logger.Named("store"),
		items:   []ledger.Transaction{},
	}
	session.Subscribe(func(authenticated bool) {
		if !authenticated {
			s.reset()
		}
	})
	return s
}

// Current returns a copy of the collection.
func (s *Store) Current() []ledger.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Transaction, len(s.items))
	copy(out, s.items)
	return out
}

// Subscribe registers fn to be called after every confirmed change.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Refresh replaces the whole collection with the remote one.
func (s *Store) Refresh(ctx context.Context) error {
	return s.write(func(gen uint64) error {
		txs, err := s.gateway.ListAll(ctx)
		if err != nil {
			return s.fail("refresh", err)
		}
		return s.apply(gen, func([]ledger.Transaction) []ledger.Transaction {
			out := make([]ledger.Transaction, len(txs))
			copy(out, txs)
			return out
		})
	})
}

// Add validates draft, creates it remotely and appends the confirmed transaction.
func (s *Store) Add(ctx context.Context, draft ledger.Draft) (ledger.Transaction, error) {
	entry, err := draft.Entry()
	if err != nil {
		return ledger.Transaction{}, err
	}

	var created ledger.Transaction
	err = s.write(func(gen uint64) error {
		tx, err := s.gateway.Create(ctx, entry)
		if err != nil {
			return s.fail("add", err)
		}
		created = tx
		return s.apply(gen, func(items []ledger.Transaction) []ledger.Transaction {
			out := make([]ledger.Transaction, 0, len(items)+1)
			out = append(out, items...)
			return append(out, tx)
		})
	})
	if err != nil {
		return ledger.Transaction{}, err
	}
	return created, nil
}

// Edit validates draft and replaces transaction id, which must be in the
// local collection.
func (s *Store) Edit(ctx context.Context, id ledger.ID, draft ledger.Draft) (ledger.Transaction, error) {
	entry, err := draft.Entry()
	if err != nil {
		return ledger.Transaction{}, err
	}

	var updated ledger.Transaction
	err = s.write(func(gen uint64) error {
		if !s.has(id) {
			return apperrors.WithMessage(apperrors.ErrNotLocal, "transaction "+string(id)+" is not in the local collection")
		}
		tx, err := s.gateway.Update(ctx, id, entry)
		if err != nil {
			return s.fail("edit", err)
		}
		updated = tx
		return s.apply(gen, func(items []ledger.Transaction) []ledger.Transaction {
			out := make([]ledger.Transaction, len(items))
			copy(out, items)
			for i := range out {
				if out[i].ID == id {
					out[i] = tx
				}
			}
			return out
		})
	})
	if err != nil {
		return ledger.Transaction{}, err
	}
	return updated, nil
}

// Remove deletes transaction id remotely and drops it locally. A remote
// not-found counts as success: either way the transaction no longer exists.
func (s *Store) Remove(ctx context.Context, id ledger.ID) error {
	return s.write(func(gen uint64) error {
		err := s.gateway.Delete(ctx, id)
		if err != nil && !apperrors.IsNotFound(err) {
			return s.fail("remove", err)
		}
		if err != nil {
			s.log.Debugw("remote transaction already gone", "id", id)
		}
		if !s.has(id) {
			return s.discardIfStale(gen)
		}
		return s.apply(gen, func(items []ledger.Transaction) []ledger.Transaction {
			out := make([]ledger.Transaction, 0, len(items))
			for _, tx := range items {
				if tx.ID != id {
					out = append(out, tx)
				}
			}
			return out
		})
	})
}

// write runs op as the single outstanding write.
func (s *Store) write(op func(gen uint64) error) error {
	if !s.busy.CompareAndSwap(false, true) {
		return apperrors.ErrBusy
	}
	defer s.busy.Store(false)
	return op(s.session.Generation())
}

// apply swaps in the collection computed by next, unless the session changed
// while the gateway call was outstanding, in which case the result is dropped.
func (s *Store) apply(gen uint64, next func(items []ledger.Transaction) []ledger.Transaction) error {
	s.mu.Lock()
	if s.session.Generation() != gen {
		s.mu.Unlock()
		s.log.Infow("discarding response for a previous session")
		return apperrors.WithMessage(apperrors.ErrUnauthenticated, "session changed while the request was outstanding")
	}
	s.items = next(s.items)
	snapshot := make([]ledger.Transaction, len(s.items))
	copy(snapshot, s.items)
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
	return nil
}

func (s *Store) discardIfStale(gen uint64) error {
	if s.session.Generation() != gen {
		return apperrors.WithMessage(apperrors.ErrUnauthenticated, "session changed while the request was outstanding")
	}
	return nil
}

// fail logs err and, for an authentication rejection, ends the session.
func (s *Store) fail(op string, err error) error {
	if errors.Is(err, apperrors.ErrUnauthenticated) {
		s.log.Warnw("credential rejected, clearing session", "op", op)
		if clearErr := s.session.Clear(); clearErr != nil {
			s.log.Errorw("failed to clear session", "op", op, "error", clearErr)
		}
		return err
	}
	s.log.Warnw("gateway call failed", "op", op, "error", err)
	return err
}

func (s *Store) has(id ledger.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tx := range s.items {
		if tx.ID == id {
			return true
		}
	}
	return false
}

// reset empties the collection and notifies listeners.
func (s *Store) reset() {
	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return
	}
	s.items = []ledger.Transaction{}
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn([]ledger.Transaction{})
	}
}
