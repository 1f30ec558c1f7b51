package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds occurs when the source account lacks available
	// balance to cover a requested posting.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound indicates no wallet account exists for the user.
	ErrAccountNotFound = errors.New("wallet account not found")
)

// Repository persists wallet balances and transaction records. Postings are
// atomic: a balance never changes without its statement line and vice versa.
type Repository interface {
	EnsureAccount(ctx context.Context, userID string) error
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	Deposit(ctx context.Context, userID string, amount decimal.Decimal, description string) (Transaction, error)
	Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal, fromDesc, toDesc string) (Transaction, error)
	Transactions(ctx context.Context, userID string, page, size int) (Page, error)
}

// PostgresRepository stores wallet state in PostgreSQL. Amounts travel as
// text to keep NUMERIC exact through the driver.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureAccount creates the balance row if it does not exist yet.
func (r *PostgresRepository) EnsureAccount(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (user_id, balance) VALUES ($1, 0)
        ON CONFLICT (user_id) DO NOTHING`, uid)
	return err
}

// Balance returns the current balance for the user's account.
func (r *PostgresRepository) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return decimal.Zero, ErrAccountNotFound
	}
	var raw string
	err = r.db.QueryRow(ctx, `SELECT balance::text FROM accounts WHERE user_id = $1`, uid).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrAccountNotFound
		}
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

// Deposit credits the account and records a CREDIT statement line.
func (r *PostgresRepository) Deposit(ctx context.Context, userID string, amount decimal.Decimal, description string) (Transaction, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Transaction{}, ErrAccountNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx)

	after, err := adjustBalance(ctx, tx, uid, amount)
	if err != nil {
		return Transaction{}, err
	}

	record, err := insertRecord(ctx, tx, userID, TypeCredit, amount, after, description)
	if err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return record, nil
}

// Transfer debits one account and credits another atomically, recording a
// statement line on each side. The returned record is the sender's debit.
func (r *PostgresRepository) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal, fromDesc, toDesc string) (Transaction, error) {
	fromUID, err := uuid.Parse(fromID)
	if err != nil {
		return Transaction{}, ErrAccountNotFound
	}
	toUID, err := uuid.Parse(toID)
	if err != nil {
		return Transaction{}, ErrAccountNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx)

	// Lock in a stable order so concurrent opposing transfers cannot deadlock.
	first, second := fromUID, toUID
	if second.String() < first.String() {
		first, second = second, first
	}
	for _, uid := range []uuid.UUID{first, second} {
		var throwaway string
		if err := tx.QueryRow(ctx, `SELECT balance::text FROM accounts WHERE user_id = $1 FOR UPDATE`, uid).Scan(&throwaway); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Transaction{}, ErrAccountNotFound
			}
			return Transaction{}, err
		}
	}

	fromAfter, err := adjustBalance(ctx, tx, fromUID, amount.Neg())
	if err != nil {
		return Transaction{}, err
	}
	if fromAfter.IsNegative() {
		return Transaction{}, ErrInsufficientFunds
	}
	toAfter, err := adjustBalance(ctx, tx, toUID, amount)
	if err != nil {
		return Transaction{}, err
	}

	debit, err := insertRecord(ctx, tx, fromID, TypeDebit, amount, fromAfter, fromDesc)
	if err != nil {
		return Transaction{}, err
	}
	if _, err := insertRecord(ctx, tx, toID, TypeCredit, amount, toAfter, toDesc); err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return debit, nil
}

// Transactions returns one page of the user's statement, newest first.
func (r *PostgresRepository) Transactions(ctx context.Context, userID string, page, size int) (Page, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Page{}, ErrAccountNotFound
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM transactions WHERE user_id = $1`, uid).Scan(&total); err != nil {
		return Page{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, transaction_type, amount::text, balance_after::text, description, created_at
        FROM transactions WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		uid, size, page*size)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	content := make([]Transaction, 0, size)
	for rows.Next() {
		var (
			id                  uuid.UUID
			amountRaw, afterRaw string
			createdAt           time.Time
			record              Transaction
		)
		if err := rows.Scan(&id, &record.Type, &amountRaw, &afterRaw, &record.Description, &createdAt); err != nil {
			return Page{}, err
		}
		record.ID = id.String()
		record.UserID = userID
		record.Timestamp = createdAt.UTC()
		if record.Amount, err = decimal.NewFromString(amountRaw); err != nil {
			return Page{}, err
		}
		if record.BalanceAfter, err = decimal.NewFromString(afterRaw); err != nil {
			return Page{}, err
		}
		content = append(content, record)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}

	return Page{Content: content, Page: page, TotalPages: totalPages(total, size), TotalElements: total}, nil
}

func totalPages(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

func adjustBalance(ctx context.Context, tx pgx.Tx, uid uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var raw string
	err := tx.QueryRow(ctx, `UPDATE accounts SET balance = balance + $1::numeric WHERE user_id = $2
        RETURNING balance::text`, delta.String(), uid).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrAccountNotFound
		}
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

func insertRecord(ctx context.Context, tx pgx.Tx, userID, kind string, amount, after decimal.Decimal, description string) (Transaction, error) {
	record := Transaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		Type:         kind,
		Amount:       amount,
		BalanceAfter: after,
		Description:  description,
		Timestamp:    time.Now().UTC(),
	}
	_, err := tx.Exec(ctx, `INSERT INTO transactions (id, user_id, transaction_type, amount, balance_after, description, created_at)
        VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7)`,
		uuid.MustParse(record.ID), uuid.MustParse(userID), kind, amount.String(), after.String(), description, record.Timestamp)
	if err != nil {
		return Transaction{}, err
	}
	return record, nil
}
