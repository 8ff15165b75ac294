package models

import (
	"time"
)

// Transaction types
const (
	TransactionTypeAirtime     = "airtime"
	TransactionTypeData        = "data"
	TransactionTypeBill        = "bill"
	TransactionTypeWalletFund  = "wallet_fund"
	TransactionTypeWithdrawal  = "withdrawal"
	TransactionTypeP2PTransfer = "p2p_transfer"
)

// Transaction statuses. A transaction is created as pending or directly in a
// terminal state; the only legal transitions are pending -> success, failed
// or cancelled. Terminal rows are never updated again.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusSuccess   = "success"
	TransactionStatusFailed    = "failed"
	TransactionStatusCancelled = "cancelled"
)

type Transaction struct {
	ID                uint    `gorm:"primarykey"`
	UserID            uint    `gorm:"index;not null"`
	Type              string  `gorm:"not null"`
	Amount            float64 `gorm:"type:numeric(20,2);not null"`
	Reference         string  `gorm:"uniqueIndex;not null"` // idempotency key
	ExternalReference string  // set by the gateway or fulfillment provider
	Status            string  `gorm:"not null;default:'pending'"`
	Details           JSON    `gorm:"type:jsonb"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsTerminal reports whether the transaction has settled to an immutable state.
func (t *Transaction) IsTerminal() bool {
	return t.Status != TransactionStatusPending
}

// IsDebit reports whether a success row of this type reduces the balance.
func (t *Transaction) IsDebit() bool {
	switch t.Type {
	case TransactionTypeWalletFund:
		return false
	case TransactionTypeP2PTransfer:
		// transfer legs carry their direction in Details
		dir, _ := t.Details["direction"].(string)
		return dir != "credit"
	default:
		return true
	}
}
