package settlement

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	domain "kudipay/internal/errors"
	"kudipay/internal/models"
	"kudipay/internal/repositories"
	"kudipay/internal/utils"
)

type service struct {
	repo      repositories.LedgerRepository
	users     repositories.UserRepository
	gateway   Gateway
	fulfiller Fulfiller
	cache     BalanceCache
	config    Config
	metrics   MetricsCollector
}

// NewService creates the settlement engine. The cache is optional;
// metrics default to a no-op collector.
func NewService(
	repo repositories.LedgerRepository,
	users repositories.UserRepository,
	gateway Gateway,
	fulfiller Fulfiller,
	cache BalanceCache,
	config Config,
	metrics MetricsCollector,
) Service {
	if repo == nil {
		panic("ledger repository is required")
	}
	if users == nil {
		panic("user repository is required")
	}
	if gateway == nil {
		panic("gateway is required")
	}
	if fulfiller == nil {
		panic("fulfiller is required")
	}
	if config.FulfillmentTimeout == 0 {
		config.FulfillmentTimeout = DefaultFulfillmentTimeout
	}
	if config.Fees == (FeeSchedule{}) {
		config.Fees = DefaultFeeSchedule()
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	return &service{
		repo:      repo,
		users:     users,
		gateway:   gateway,
		fulfiller: fulfiller,
		cache:     cache,
		config:    config,
		metrics:   metrics,
	}
}

func (s *service) GetBalance(ctx context.Context, userID uint) (float64, error) {
	if s.cache != nil {
		var cached float64
		key := s.cache.GenerateKey("balance", "user", userID)
		if found, err := s.cache.Get(ctx, key, &cached); found && err == nil {
			return cached, nil
		}
	}

	balance, err := s.repo.ReadBalance(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		s.cache.SetWithTTL(ctx, s.cache.GenerateKey("balance", "user", userID), balance, BalanceCacheTTL)
	}
	return balance, nil
}

func (s *service) DebitAndFulfill(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	// checked before any external call; the locked write below re-checks
	// so a concurrent debit cannot slip through on this stale read
	balance, err := s.repo.ReadBalance(ctx, req.UserID)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if balance < req.Amount {
		return nil, domain.ErrInsufficientFunds
	}

	reference := utils.NewReference(referencePrefix(req.Type))
	externalRef, outcome := s.fulfill(ctx, reference, req)

	txn := &models.Transaction{
		UserID:            req.UserID,
		Type:              req.Type,
		Amount:            req.Amount,
		Reference:         reference,
		ExternalReference: externalRef,
		Details: models.NewJSON(map[string]interface{}{
			"service_id":     req.ServiceID,
			"recipient":      req.Recipient,
			"variation_code": req.VariationCode,
		}),
	}

	switch outcome {
	case OutcomeSettled:
		txn.Status = models.TransactionStatusSuccess
		if err := s.repo.AtomicApply(ctx, req.UserID, -req.Amount, txn); err != nil {
			// the provider confirmed fulfillment but the local debit did
			// not commit; park the row as pending so reconciliation can
			// resolve the provider-confirmed outcome later
			pending := *txn
			pending.Status = models.TransactionStatusPending
			if perr := s.repo.AtomicApply(ctx, req.UserID, 0, &pending); perr != nil {
				s.metrics.RecordError("debit_and_fulfill", "store")
				return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			return s.result(reference, OutcomeIndeterminate, models.TransactionStatusPending, req.Amount, externalRef), nil
		}
		s.invalidateBalance(ctx, req.UserID)
		s.metrics.RecordSettlement(req.Type, OutcomeSettled, req.Amount)
		return s.result(reference, OutcomeSettled, models.TransactionStatusSuccess, req.Amount, externalRef), nil

	case OutcomeIndeterminate:
		// never debit for an outcome the system cannot yet confirm
		txn.Status = models.TransactionStatusPending
		if err := s.repo.AtomicApply(ctx, req.UserID, 0, txn); err != nil {
			s.metrics.RecordError("debit_and_fulfill", "store")
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		s.metrics.RecordSettlement(req.Type, OutcomeIndeterminate, req.Amount)
		return s.result(reference, OutcomeIndeterminate, models.TransactionStatusPending, req.Amount, externalRef), nil

	default: // rejected
		txn.Status = models.TransactionStatusFailed
		if err := s.repo.AtomicApply(ctx, req.UserID, 0, txn); err != nil {
			s.metrics.RecordError("debit_and_fulfill", "store")
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		s.metrics.RecordSettlement(req.Type, OutcomeRejected, req.Amount)
		return s.result(reference, OutcomeRejected, models.TransactionStatusFailed, req.Amount, externalRef), nil
	}
}

// fulfill submits the purchase and immediately requeries when the
// provisional answer is inconclusive. Transport failures and timeouts are
// Indeterminate: no response is not proof of non-fulfillment.
func (s *service) fulfill(ctx context.Context, reference string, req PurchaseRequest) (string, Outcome) {
	pctx, cancel := context.WithTimeout(ctx, s.config.FulfillmentTimeout)
	defer cancel()

	externalRef, status, err := s.fulfiller.Purchase(pctx, reference, req.ServiceID, req.Amount, req.Recipient, req.VariationCode)
	if err != nil {
		s.metrics.RecordError("fulfill", "provider")
		return "", OutcomeIndeterminate
	}

	if classifyStatus(status) == OutcomeIndeterminate {
		rctx, rcancel := context.WithTimeout(ctx, s.config.FulfillmentTimeout)
		defer rcancel()
		if ref2, status2, err2 := s.fulfiller.Requery(rctx, reference); err2 == nil {
			if ref2 != "" {
				externalRef = ref2
			}
			status = status2
		}
	}
	return externalRef, classifyStatus(status)
}

func (s *service) Credit(ctx context.Context, userID uint, amount float64, txType, reference string, details models.JSON) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if reference == "" {
		return nil, fmt.Errorf("credit requires a reference")
	}

	existing, err := s.repo.FindTransactionByReference(ctx, reference)
	if err != nil && !stderrors.Is(err, domain.ErrTransactionNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if existing != nil {
		if existing.IsTerminal() {
			// idempotency hit: replay the existing result
			return existing, nil
		}
		// a pending row holds the stored amount to credit (funding flow)
		if _, err := s.repo.ResolvePending(ctx, reference, models.TransactionStatusSuccess, "", existing.Amount); err != nil {
			if isDomainError(err) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		s.invalidateBalance(ctx, existing.UserID)
		s.metrics.RecordSettlement(existing.Type, OutcomeSettled, existing.Amount)
		return s.repo.FindTransactionByReference(ctx, reference)
	}

	txn := &models.Transaction{
		UserID:    userID,
		Type:      txType,
		Amount:    amount,
		Reference: reference,
		Status:    models.TransactionStatusSuccess,
		Details:   details,
	}
	if err := s.repo.AtomicApply(ctx, userID, amount, txn); err != nil {
		if stderrors.Is(err, domain.ErrDuplicateReference) {
			// a concurrent caller committed the same reference first
			return s.repo.FindTransactionByReference(ctx, reference)
		}
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.invalidateBalance(ctx, userID)
	s.metrics.RecordSettlement(txType, OutcomeSettled, amount)
	return txn, nil
}

func (s *service) ReconcilePending(ctx context.Context, reference string) (*PurchaseResult, error) {
	txn, err := s.repo.FindTransactionByReference(ctx, reference)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if txn.IsTerminal() {
		return s.result(reference, outcomeForStatus(txn.Status), txn.Status, txn.Amount, txn.ExternalReference), nil
	}

	if txn.Type == models.TransactionTypeWalletFund {
		// funding pendings reconcile against the gateway instead
		fr, err := s.VerifyFunding(ctx, reference)
		if err != nil {
			return nil, err
		}
		return s.result(reference, outcomeForStatus(fr.Status), fr.Status, txn.Amount, txn.ExternalReference), nil
	}

	rctx, cancel := context.WithTimeout(ctx, s.config.FulfillmentTimeout)
	defer cancel()
	externalRef, status, err := s.fulfiller.Requery(rctx, reference)
	if err != nil {
		// outcome still unknown; stay pending
		s.metrics.RecordReconciliation("unresolved")
		return s.result(reference, OutcomeIndeterminate, models.TransactionStatusPending, txn.Amount, txn.ExternalReference), nil
	}

	switch classifyStatus(status) {
	case OutcomeSettled:
		// the debit deferred at purchase time is performed now; only the
		// first caller to observe the pending row applies it
		applied, err := s.repo.ResolvePending(ctx, reference, models.TransactionStatusSuccess, externalRef, -txn.Amount)
		if err != nil {
			if stderrors.Is(err, domain.ErrInvariantViolation) {
				s.metrics.RecordError("reconcile", "invariant")
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if applied {
			s.invalidateBalance(ctx, txn.UserID)
			s.metrics.RecordReconciliation("settled")
		}
		return s.result(reference, OutcomeSettled, models.TransactionStatusSuccess, txn.Amount, externalRef), nil

	case OutcomeRejected:
		if _, err := s.repo.ResolvePending(ctx, reference, models.TransactionStatusFailed, externalRef, 0); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		s.metrics.RecordReconciliation("rejected")
		return s.result(reference, OutcomeRejected, models.TransactionStatusFailed, txn.Amount, externalRef), nil

	default:
		s.metrics.RecordReconciliation("unresolved")
		return s.result(reference, OutcomeIndeterminate, models.TransactionStatusPending, txn.Amount, txn.ExternalReference), nil
	}
}

func (s *service) result(reference string, outcome Outcome, status string, amount float64, externalRef string) *PurchaseResult {
	return &PurchaseResult{
		Reference:         reference,
		Outcome:           outcome,
		Status:            status,
		Amount:            amount,
		ExternalReference: externalRef,
	}
}

func (s *service) invalidateBalance(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(ctx, s.cache.GenerateKey("balance", "user", userID))
}

// classifyStatus maps the provider's settlement signal onto the engine's
// outcome set: delivered means funds consumed, pending/initiated means
// unknown, anything else means guaranteed non-fulfillment.
func classifyStatus(status string) Outcome {
	switch strings.ToLower(status) {
	case "delivered":
		return OutcomeSettled
	case "pending", "initiated":
		return OutcomeIndeterminate
	default:
		return OutcomeRejected
	}
}

func outcomeForStatus(status string) Outcome {
	switch status {
	case models.TransactionStatusSuccess:
		return OutcomeSettled
	case models.TransactionStatusPending:
		return OutcomeIndeterminate
	default:
		return OutcomeRejected
	}
}

func referencePrefix(txType string) string {
	switch txType {
	case models.TransactionTypeAirtime:
		return prefixAirtime
	case models.TransactionTypeData:
		return prefixData
	case models.TransactionTypeBill:
		return prefixBill
	default:
		return "TXN"
	}
}

func isDomainError(err error) bool {
	var de *domain.DomainError
	return stderrors.As(err, &de)
}
