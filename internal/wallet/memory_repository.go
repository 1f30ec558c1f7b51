package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memoryRepository struct {
	mu       sync.RWMutex
	balances map[string]decimal.Decimal
	records  map[string][]Transaction
}

// NewMemoryRepository constructs a concurrency-safe in-memory repository for
// development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		balances: make(map[string]decimal.Decimal),
		records:  make(map[string][]Transaction),
	}
}

func (r *memoryRepository) EnsureAccount(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.balances[userID]; !exists {
		r.balances[userID] = decimal.Zero
	}
	return nil
}

func (r *memoryRepository) Balance(_ context.Context, userID string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	balance, ok := r.balances[userID]
	if !ok {
		return decimal.Zero, ErrAccountNotFound
	}
	return balance, nil
}

func (r *memoryRepository) Deposit(_ context.Context, userID string, amount decimal.Decimal, description string) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	balance, ok := r.balances[userID]
	if !ok {
		return Transaction{}, ErrAccountNotFound
	}

	after := balance.Add(amount)
	r.balances[userID] = after
	record := r.record(userID, TypeCredit, amount, after, description)
	return record, nil
}

func (r *memoryRepository) Transfer(_ context.Context, fromID, toID string, amount decimal.Decimal, fromDesc, toDesc string) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fromBalance, ok := r.balances[fromID]
	if !ok {
		return Transaction{}, ErrAccountNotFound
	}
	toBalance, ok := r.balances[toID]
	if !ok {
		return Transaction{}, ErrAccountNotFound
	}

	if fromBalance.LessThan(amount) {
		return Transaction{}, ErrInsufficientFunds
	}

	fromAfter := fromBalance.Sub(amount)
	toAfter := toBalance.Add(amount)
	r.balances[fromID] = fromAfter
	r.balances[toID] = toAfter

	debit := r.record(fromID, TypeDebit, amount, fromAfter, fromDesc)
	r.record(toID, TypeCredit, amount, toAfter, toDesc)
	return debit, nil
}

func (r *memoryRepository) Transactions(_ context.Context, userID string, page, size int) (Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.balances[userID]; !ok {
		return Page{}, ErrAccountNotFound
	}

	all := r.records[userID]
	total := len(all)

	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	content := make([]Transaction, end-start)
	copy(content, all[start:end])

	return Page{Content: content, Page: page, TotalPages: totalPages(total, size), TotalElements: total}, nil
}

// record appends a statement line, newest first. Callers hold the lock.
func (r *memoryRepository) record(userID, kind string, amount, after decimal.Decimal, description string) Transaction {
	tx := Transaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		Type:         kind,
		Amount:       amount,
		BalanceAfter: after,
		Description:  description,
		Timestamp:    time.Now().UTC(),
	}
	r.records[userID] = append([]Transaction{tx}, r.records[userID]...)
	return tx
}
