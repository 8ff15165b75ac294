package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kudipay/internal/models"
	"kudipay/internal/repositories"
	"kudipay/internal/services/settlement"

	"github.com/stretchr/testify/assert"
)

type stubLedger struct {
	repositories.LedgerRepository
	stale   []models.Transaction
	listErr error
}

func (s *stubLedger) ListStalePending(_ context.Context, _ []string, _ time.Time, _ int) ([]models.Transaction, error) {
	return s.stale, s.listErr
}

type stubEngine struct {
	settlement.Service
	mu        sync.Mutex
	outcomes  map[string]settlement.Outcome
	errs      map[string]error
	attempted []string
}

func (s *stubEngine) ReconcilePending(_ context.Context, reference string) (*settlement.PurchaseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempted = append(s.attempted, reference)
	if err := s.errs[reference]; err != nil {
		return nil, err
	}
	outcome, ok := s.outcomes[reference]
	if !ok {
		outcome = settlement.OutcomeIndeterminate
	}
	return &settlement.PurchaseResult{Reference: reference, Outcome: outcome}, nil
}

func TestReconcileJobSweepsEveryStaleReference(t *testing.T) {
	ledger := &stubLedger{stale: []models.Transaction{
		{Reference: "AIR-1", Type: models.TransactionTypeAirtime},
		{Reference: "DAT-2", Type: models.TransactionTypeData},
		{Reference: "FND-3", Type: models.TransactionTypeWalletFund},
	}}
	engine := &stubEngine{
		outcomes: map[string]settlement.Outcome{
			"AIR-1": settlement.OutcomeSettled,
			"DAT-2": settlement.OutcomeIndeterminate,
		},
		errs: map[string]error{"FND-3": errors.New("gateway down")},
	}

	NewReconcileJob(ledger, engine).Run()

	assert.ElementsMatch(t, []string{"AIR-1", "DAT-2", "FND-3"}, engine.attempted,
		"one reference failing must not block the rest of the batch")
}

func TestReconcileJobNoStaleRows(t *testing.T) {
	engine := &stubEngine{}
	NewReconcileJob(&stubLedger{}, engine).Run()
	assert.Empty(t, engine.attempted)
}

func TestReconcileJobListFailure(t *testing.T) {
	engine := &stubEngine{}
	NewReconcileJob(&stubLedger{listErr: errors.New("db down")}, engine).Run()
	assert.Empty(t, engine.attempted)
}
