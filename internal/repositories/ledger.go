package repositories

import (
	"context"
	"time"

	"kudipay/internal/models"
)

// TransactionStats aggregates a user's transaction activity over a period.
type TransactionStats struct {
	TotalTransactions int64   `json:"total_transactions"`
	TotalVolume       float64 `json:"total_volume"`
	AvgAmount         float64 `json:"avg_amount"`
	MaxAmount         float64 `json:"max_amount"`
	SuccessRate       float64 `json:"success_rate"`
}

// LedgerRepository is the durable record of balances and the append-only
// transaction log. Every multi-step mutation is exposed as a single-call
// transactional primitive: the balance change and its transaction row commit
// together or not at all, and concurrent mutations of the same user
// serialize on a locked balance read.
type LedgerRepository interface {
	// ReadBalance returns the user's current spendable balance.
	ReadBalance(ctx context.Context, userID uint) (float64, error)

	// AtomicApply applies a balance delta and appends the transaction row in
	// one transaction. A zero delta records the row without touching the
	// balance (pending and failed entries). A negative delta that would
	// overdraw the locked balance fails with ErrInsufficientFunds and
	// nothing is written.
	AtomicApply(ctx context.Context, userID uint, delta float64, txn *models.Transaction) error

	FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
	GetTransactionByID(ctx context.Context, userID, id uint) (*models.Transaction, error)

	// UpdateTransactionStatus transitions a pending row to a terminal status
	// with no balance effect. Terminal rows are immutable: if the row has
	// already settled the call is a no-op.
	UpdateTransactionStatus(ctx context.Context, reference, status, externalRef string) error

	// ResolvePending settles a pending row to a terminal status and applies
	// the balance delta in the same transaction. Safe to call concurrently
	// for the same reference: only the caller that observes the row still
	// pending applies the mutation; everyone else gets applied=false.
	ResolvePending(ctx context.Context, reference, status, externalRef string, delta float64) (applied bool, err error)

	// AtomicTransfer moves amount between two users and appends both
	// transfer legs, all four effects in one transaction.
	AtomicTransfer(ctx context.Context, senderID, recipientID uint, amount float64, debitLeg, creditLeg *models.Transaction) error

	ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error)
	ListStalePending(ctx context.Context, types []string, olderThan time.Time, limit int) ([]models.Transaction, error)
	GetTransactionStats(ctx context.Context, userID uint, start, end time.Time) (*TransactionStats, error)
}
