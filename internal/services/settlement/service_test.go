package settlement

import (
	"context"
	"sync"
	"testing"

	domain "kudipay/internal/errors"
	"kudipay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestEngine(ledger *memLedger, users *memUsers, gw *fakeGateway, ff *fakeFulfiller) Service {
	if users == nil {
		users = newMemUsers(&models.User{Model: gorm.Model{ID: 1}, Email: "ada@test.ng"})
	}
	if gw == nil {
		gw = &fakeGateway{}
	}
	if ff == nil {
		ff = &fakeFulfiller{}
	}
	return NewService(ledger, users, gw, ff, nil, Config{}, nil)
}

func TestDebitAndFulfillSettled(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 1000})
	ff := &fakeFulfiller{
		purchaseFn: func(string) (string, string, error) { return "EXT1", "delivered", nil },
	}
	engine := newTestEngine(ledger, nil, nil, ff)

	result, err := engine.DebitAndFulfill(context.Background(), PurchaseRequest{
		UserID: 1, Type: models.TransactionTypeAirtime, Amount: 500,
		ServiceID: "mtn", Recipient: "08030000000",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSettled, result.Outcome)
	assert.Equal(t, models.TransactionStatusSuccess, result.Status)
	assert.Equal(t, "EXT1", result.ExternalReference)
	assert.Equal(t, 500.0, ledger.balance(1))

	txn := ledger.transaction(result.Reference)
	require.NotNil(t, txn)
	assert.Equal(t, models.TransactionStatusSuccess, txn.Status)
	assert.Equal(t, 500.0, txn.Amount)
}

func TestDebitAndFulfillIndeterminateDefersDebit(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 1000})
	ff := &fakeFulfiller{
		purchaseFn: func(string) (string, string, error) { return "EXT1", "pending", nil },
		requeryFn:  func(string) (string, string, error) { return "EXT1", "pending", nil },
	}
	engine := newTestEngine(ledger, nil, nil, ff)

	result, err := engine.DebitAndFulfill(context.Background(), PurchaseRequest{
		UserID: 1, Type: models.TransactionTypeData, Amount: 300,
		ServiceID: "mtn-data", Recipient: "08030000000", VariationCode: "mtn-1gb",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeIndeterminate, result.Outcome)
	assert.Equal(t, 1000.0, ledger.balance(1), "unknown outcome must not touch the balance")
	assert.Equal(t, models.TransactionStatusPending, ledger.transaction(result.Reference).Status)

	// the provider later confirms delivery; reconciliation performs the debit
	ff.mu.Lock()
	ff.requeryFn = func(string) (string, string, error) { return "EXT1", "delivered", nil }
	ff.mu.Unlock()

	rec, err := engine.ReconcilePending(context.Background(), result.Reference)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSettled, rec.Outcome)
	assert.Equal(t, 700.0, ledger.balance(1))
	assert.Equal(t, models.TransactionStatusSuccess, ledger.transaction(result.Reference).Status)

	// a second reconcile replays the terminal result without re-debiting
	rec2, err := engine.ReconcilePending(context.Background(), result.Reference)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSettled, rec2.Outcome)
	assert.Equal(t, 700.0, ledger.balance(1))
}

func TestDebitAndFulfillRejected(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 1000})
	ff := &fakeFulfiller{
		purchaseFn: func(string) (string, string, error) { return "EXT1", "failed", nil },
	}
	engine := newTestEngine(ledger, nil, nil, ff)

	result, err := engine.DebitAndFulfill(context.Background(), PurchaseRequest{
		UserID: 1, Type: models.TransactionTypeBill, Amount: 400,
		ServiceID: "ikeja-electric", Recipient: "12345678901",
	})
	require.NoError(t, err, "a rejection is a result, not an error")

	assert.Equal(t, OutcomeRejected, result.Outcome)
	assert.Equal(t, 1000.0, ledger.balance(1))
	assert.Equal(t, models.TransactionStatusFailed, ledger.transaction(result.Reference).Status)
}

func TestDebitAndFulfillInsufficientFunds(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 100})
	ff := &fakeFulfiller{}
	engine := newTestEngine(ledger, nil, nil, ff)

	_, err := engine.DebitAndFulfill(context.Background(), PurchaseRequest{
		UserID: 1, Type: models.TransactionTypeAirtime, Amount: 500,
		ServiceID: "mtn", Recipient: "08030000000",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, 0, ff.purchaseCalls(), "provider must not be called when funds are insufficient")
	assert.Equal(t, 100.0, ledger.balance(1))
}

func TestDebitAndFulfillProviderUnreachableIsIndeterminate(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 1000})
	ff := &fakeFulfiller{
		purchaseFn: func(string) (string, string, error) { return "", "", context.DeadlineExceeded },
	}
	engine := newTestEngine(ledger, nil, nil, ff)

	result, err := engine.DebitAndFulfill(context.Background(), PurchaseRequest{
		UserID: 1, Type: models.TransactionTypeAirtime, Amount: 200,
		ServiceID: "glo", Recipient: "08050000000",
	})
	require.NoError(t, err)

	// no response is not proof of non-fulfillment
	assert.Equal(t, OutcomeIndeterminate, result.Outcome)
	assert.Equal(t, 1000.0, ledger.balance(1))
	assert.Equal(t, models.TransactionStatusPending, ledger.transaction(result.Reference).Status)
}

func TestDebitAndFulfillRequeryUpgradesProvisionalAnswer(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 1000})
	ff := &fakeFulfiller{
		purchaseFn: func(string) (string, string, error) { return "EXT1", "initiated", nil },
		requeryFn:  func(string) (string, string, error) { return "EXT2", "delivered", nil },
	}
	engine := newTestEngine(ledger, nil, nil, ff)

	result, err := engine.DebitAndFulfill(context.Background(), PurchaseRequest{
		UserID: 1, Type: models.TransactionTypeAirtime, Amount: 250,
		ServiceID: "airtel", Recipient: "08020000000",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSettled, result.Outcome)
	assert.Equal(t, "EXT2", result.ExternalReference)
	assert.Equal(t, 750.0, ledger.balance(1))
}

func TestDebitAndFulfillParksSettledOnStoreFailure(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 1000})
	ff := &fakeFulfiller{
		purchaseFn: func(string) (string, string, error) { return "EXT1", "delivered", nil },
	}
	engine := newTestEngine(ledger, nil, nil, ff)

	// the settled debit fails to commit; the engine parks the row as
	// pending so reconciliation can apply the provider-confirmed outcome
	ledger.mu.Lock()
	ledger.failNextApply = true
	ledger.mu.Unlock()

	result, err := engine.DebitAndFulfill(context.Background(), PurchaseRequest{
		UserID: 1, Type: models.TransactionTypeAirtime, Amount: 500,
		ServiceID: "mtn", Recipient: "08030000000",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeIndeterminate, result.Outcome)
	assert.Equal(t, 1000.0, ledger.balance(1))
	assert.Equal(t, models.TransactionStatusPending, ledger.transaction(result.Reference).Status)

	// reconciliation completes the settlement
	ff.mu.Lock()
	ff.requeryFn = func(string) (string, string, error) { return "EXT1", "delivered", nil }
	ff.mu.Unlock()

	rec, err := engine.ReconcilePending(context.Background(), result.Reference)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSettled, rec.Outcome)
	assert.Equal(t, 500.0, ledger.balance(1))
}

func TestCreditIsIdempotentByReference(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 100})
	engine := newTestEngine(ledger, nil, nil, nil)

	first, err := engine.Credit(context.Background(), 1, 200, models.TransactionTypeWalletFund, "REF-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 300.0, ledger.balance(1))

	second, err := engine.Credit(context.Background(), 1, 200, models.TransactionTypeWalletFund, "REF-1", nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "replay must return the original row")
	assert.Equal(t, 300.0, ledger.balance(1), "replay must not credit twice")
}

func TestCreditRejectsInvalidAmount(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 100})
	engine := newTestEngine(ledger, nil, nil, nil)

	_, err := engine.Credit(context.Background(), 1, 0, models.TransactionTypeWalletFund, "REF-0", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = engine.Credit(context.Background(), 1, -50, models.TransactionTypeWalletFund, "REF-N", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestCreditSettlesPendingRowWithStoredAmount(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 0})
	engine := newTestEngine(ledger, nil, nil, nil)

	// a pending row holds the amount the wallet is owed
	require.NoError(t, ledger.AtomicApply(context.Background(), 1, 0, &models.Transaction{
		UserID: 1, Type: models.TransactionTypeWalletFund, Amount: 4825,
		Reference: "FND-pending", Status: models.TransactionStatusPending,
	}))

	txn, err := engine.Credit(context.Background(), 1, 9999, models.TransactionTypeWalletFund, "FND-pending", nil)
	require.NoError(t, err)

	assert.Equal(t, 4825.0, txn.Amount, "stored amount wins over the caller's")
	assert.Equal(t, 4825.0, ledger.balance(1))
	assert.Equal(t, models.TransactionStatusSuccess, txn.Status)
}

func TestReconcilePendingConcurrentSettlesOnce(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 1000})
	ff := &fakeFulfiller{
		purchaseFn: func(string) (string, string, error) { return "EXT1", "pending", nil },
		requeryFn:  func(string) (string, string, error) { return "EXT1", "pending", nil },
	}
	engine := newTestEngine(ledger, nil, nil, ff)

	result, err := engine.DebitAndFulfill(context.Background(), PurchaseRequest{
		UserID: 1, Type: models.TransactionTypeAirtime, Amount: 400,
		ServiceID: "mtn", Recipient: "08030000000",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeIndeterminate, result.Outcome)

	ff.mu.Lock()
	ff.requeryFn = func(string) (string, string, error) { return "EXT1", "delivered", nil }
	ff.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.ReconcilePending(context.Background(), result.Reference)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 600.0, ledger.balance(1), "the deferred debit must apply exactly once")
	assert.Equal(t, models.TransactionStatusSuccess, ledger.transaction(result.Reference).Status)
}

func TestReconcilePendingRefusesOverdraw(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 100})
	ff := &fakeFulfiller{
		requeryFn: func(string) (string, string, error) { return "EXT1", "delivered", nil },
	}
	engine := newTestEngine(ledger, nil, nil, ff)

	// a pending debit larger than what the balance can now cover
	require.NoError(t, ledger.AtomicApply(context.Background(), 1, 0, &models.Transaction{
		UserID: 1, Type: models.TransactionTypeAirtime, Amount: 500,
		Reference: "AIR-stale", Status: models.TransactionStatusPending,
	}))

	_, err := engine.ReconcilePending(context.Background(), "AIR-stale")
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	assert.Equal(t, 100.0, ledger.balance(1), "the balance must never go negative")
	assert.Equal(t, models.TransactionStatusPending, ledger.transaction("AIR-stale").Status)
}

func TestReconcilePendingStaysPendingOnProviderError(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 1000})
	ff := &fakeFulfiller{
		requeryFn: func(string) (string, string, error) { return "", "", context.DeadlineExceeded },
	}
	engine := newTestEngine(ledger, nil, nil, ff)

	require.NoError(t, ledger.AtomicApply(context.Background(), 1, 0, &models.Transaction{
		UserID: 1, Type: models.TransactionTypeData, Amount: 300,
		Reference: "DAT-stale", Status: models.TransactionStatusPending,
	}))

	result, err := engine.ReconcilePending(context.Background(), "DAT-stale")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIndeterminate, result.Outcome)
	assert.Equal(t, models.TransactionStatusPending, ledger.transaction("DAT-stale").Status)
}

func TestReconcilePendingRejection(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 1000})
	ff := &fakeFulfiller{
		requeryFn: func(string) (string, string, error) { return "EXT9", "failed", nil },
	}
	engine := newTestEngine(ledger, nil, nil, ff)

	require.NoError(t, ledger.AtomicApply(context.Background(), 1, 0, &models.Transaction{
		UserID: 1, Type: models.TransactionTypeBill, Amount: 250,
		Reference: "BIL-stale", Status: models.TransactionStatusPending,
	}))

	result, err := engine.ReconcilePending(context.Background(), "BIL-stale")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, result.Outcome)
	assert.Equal(t, 1000.0, ledger.balance(1))
	assert.Equal(t, models.TransactionStatusFailed, ledger.transaction("BIL-stale").Status)
}

func TestReconcilePendingUnknownReference(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 1000})
	engine := newTestEngine(ledger, nil, nil, nil)

	_, err := engine.ReconcilePending(context.Background(), "no-such-ref")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

// the ledger invariant: balance == opening balance + signed sum of
// success rows, across a mix of settlements, rejections and credits.
func TestBalanceMatchesSignedSumOfSuccessRows(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 0})
	ff := &fakeFulfiller{
		purchaseFn: func(string) (string, string, error) { return "EXT", "delivered", nil },
	}
	engine := newTestEngine(ledger, nil, nil, ff)
	ctx := context.Background()

	_, err := engine.Credit(ctx, 1, 2000, models.TransactionTypeWalletFund, "FUND-1", nil)
	require.NoError(t, err)

	_, err = engine.DebitAndFulfill(ctx, PurchaseRequest{
		UserID: 1, Type: models.TransactionTypeAirtime, Amount: 500,
		ServiceID: "mtn", Recipient: "08030000000",
	})
	require.NoError(t, err)

	ff.mu.Lock()
	ff.purchaseFn = func(string) (string, string, error) { return "", "failed", nil }
	ff.mu.Unlock()
	_, err = engine.DebitAndFulfill(ctx, PurchaseRequest{
		UserID: 1, Type: models.TransactionTypeData, Amount: 300,
		ServiceID: "mtn-data", Recipient: "08030000000", VariationCode: "mtn-1gb",
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.signedSum(1), ledger.balance(1))
	assert.Equal(t, 1500.0, ledger.balance(1))
}

func TestGetBalance(t *testing.T) {
	ledger := newMemLedger(map[uint]float64{1: 750})
	engine := newTestEngine(ledger, nil, nil, nil)

	balance, err := engine.GetBalance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 750.0, balance)

	_, err = engine.GetBalance(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
