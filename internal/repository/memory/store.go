// internal/repository/memory/store.go
package memory

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"marketplace-core/internal/domain"
	"marketplace-core/internal/repository"
	"marketplace-core/pkg/db"
)

// errNoSQL is returned by the DBExecutor methods, which only exist so a *Store or *Tx
// can be handed to the repositories in place of a database handle.
var errNoSQL = errors.New("memory store does not execute SQL")

// Store is an in-process implementation of every repository. One mutex guards all
// data and a transaction holds it from Begin until Commit or Rollback, so
// transactions are fully serialized.
type Store struct {
	mu   sync.Mutex
	data *state
	// Application numbers behave like a sequence and survive rollbacks.
	seq int64
}

type state struct {
	wallets      map[string]domain.Wallet // by wallet ID
	walletOwners map[string]string        // owner ID -> wallet ID
	transactions []domain.Transaction     // append order
	txIndex      map[string]int           // transaction ID -> position
	applications map[string]domain.ServiceApplication
	quotes       map[string]domain.Quote
}

func newState() *state {
	return &state{
		wallets:      make(map[string]domain.Wallet),
		walletOwners: make(map[string]string),
		txIndex:      make(map[string]int),
		applications: make(map[string]domain.ServiceApplication),
		quotes:       make(map[string]domain.Quote),
	}
}

// clone copies the containers. Stored values are replaced on write, never mutated in place.
func (s *state) clone() *state {
	out := newState()
	for k, v := range s.wallets {
		out.wallets[k] = v
	}
	for k, v := range s.walletOwners {
		out.walletOwners[k] = v
	}
	out.transactions = append([]domain.Transaction(nil), s.transactions...)
	for k, v := range s.txIndex {
		out.txIndex[k] = v
	}
	for k, v := range s.applications {
		out.applications[k] = v
	}
	for k, v := range s.quotes {
		out.quotes[k] = v
	}
	return out
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{data: newState()}
}

// Begin starts a transaction. It matches db.BeginTxFunc and ignores the beginner.
func (s *Store) Begin(ctx context.Context, _ db.DBTxBeginner) (db.TxController, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &Tx{store: s, snapshot: s.data.clone()}, nil
}

// access takes the store lock unless q is a live transaction of this store, which already holds it.
func (s *Store) access(q repository.DBExecutor) func() {
	if tx, ok := q.(*Tx); ok && tx.store == s && !tx.done {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) GetContext(context.Context, interface{}, string, ...interface{}) error {
	return errNoSQL
}

func (s *Store) SelectContext(context.Context, interface{}, string, ...interface{}) error {
	return errNoSQL
}

func (s *Store) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}

func (s *Store) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

// Tx is a Store transaction. Rollback restores the snapshot taken by Begin.
type Tx struct {
	store    *Store
	snapshot *state
	done     bool
}

func (t *Tx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *Tx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.store.data = t.snapshot
	t.store.mu.Unlock()
	return nil
}

func (t *Tx) GetContext(context.Context, interface{}, string, ...interface{}) error {
	return errNoSQL
}

func (t *Tx) SelectContext(context.Context, interface{}, string, ...interface{}) error {
	return errNoSQL
}

func (t *Tx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}

func (t *Tx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return append([]T{}, items[offset:end]...)
}
