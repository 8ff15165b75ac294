package settlement

import (
	"context"
	stderrors "errors"
	"fmt"

	domain "kudipay/internal/errors"
	"kudipay/internal/models"
	"kudipay/internal/utils"
)

// Gateway verification statuses.
const (
	gatewayStatusSuccess   = "success"
	gatewayStatusFailed    = "failed"
	gatewayStatusAbandoned = "abandoned"
)

// InitiateFunding starts a hosted-checkout wallet funding. The pending
// transaction stores the net amount (gross minus the processor fee); the
// wallet is only ever credited with that stored net.
func (s *service) InitiateFunding(ctx context.Context, userID uint, gross float64) (*FundingInit, error) {
	if gross <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	fee := s.config.Fees.Fee(gross)
	net := utils.Round2(gross - fee)
	if net <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	reference := utils.NewReference(prefixFunding)
	txn := &models.Transaction{
		UserID:    userID,
		Type:      models.TransactionTypeWalletFund,
		Amount:    net,
		Reference: reference,
		Status:    models.TransactionStatusPending,
		Details: models.NewJSON(map[string]interface{}{
			"gross": gross,
			"fee":   fee,
		}),
	}
	if err := s.repo.AtomicApply(ctx, userID, 0, txn); err != nil {
		s.metrics.RecordError("initiate_funding", "store")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	gctx, cancel := context.WithTimeout(ctx, s.config.FulfillmentTimeout)
	defer cancel()
	authorizationURL, accessCode, err := s.gateway.Initialize(gctx, gross, user.Email, reference, s.config.CallbackURL)
	if err != nil {
		// the checkout never started; close the pending row
		_ = s.repo.UpdateTransactionStatus(ctx, reference, models.TransactionStatusFailed, "")
		s.metrics.RecordError("initiate_funding", "gateway")
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnreachable, err)
	}

	return &FundingInit{
		Reference:        reference,
		AuthorizationURL: authorizationURL,
		AccessCode:       accessCode,
		Gross:            gross,
		Fee:              fee,
		Net:              net,
	}, nil
}

// VerifyFunding queries the gateway for a funding reference's true state
// and settles it exactly once. The gateway webhook and the verify
// endpoint both land here; whichever arrives first wins and the other
// observes the already-terminal row.
func (s *service) VerifyFunding(ctx context.Context, reference string) (*FundingResult, error) {
	txn, err := s.repo.FindTransactionByReference(ctx, reference)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if txn.Type != models.TransactionTypeWalletFund {
		return nil, domain.ErrTransactionNotFound
	}
	if txn.IsTerminal() {
		credited := 0.0
		if txn.Status == models.TransactionStatusSuccess {
			credited = txn.Amount
		}
		return &FundingResult{Reference: reference, Status: txn.Status, Credited: credited}, nil
	}

	gctx, cancel := context.WithTimeout(ctx, s.config.FulfillmentTimeout)
	defer cancel()
	status, externalRef, _, err := s.gateway.Verify(gctx, reference)
	if err != nil {
		s.metrics.RecordError("verify_funding", "gateway")
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnreachable, err)
	}

	switch status {
	case gatewayStatusSuccess:
		applied, err := s.repo.ResolvePending(ctx, reference, models.TransactionStatusSuccess, externalRef, txn.Amount)
		if err != nil {
			if isDomainError(err) && !stderrors.Is(err, domain.ErrTransactionNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if applied {
			s.invalidateBalance(ctx, txn.UserID)
			s.metrics.RecordSettlement(models.TransactionTypeWalletFund, OutcomeSettled, txn.Amount)
		}
		return &FundingResult{Reference: reference, Status: models.TransactionStatusSuccess, Credited: txn.Amount}, nil

	case gatewayStatusFailed:
		if _, err := s.repo.ResolvePending(ctx, reference, models.TransactionStatusFailed, externalRef, 0); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return &FundingResult{Reference: reference, Status: models.TransactionStatusFailed}, nil

	case gatewayStatusAbandoned:
		if _, err := s.repo.ResolvePending(ctx, reference, models.TransactionStatusCancelled, externalRef, 0); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return &FundingResult{Reference: reference, Status: models.TransactionStatusCancelled}, nil

	default:
		// gateway still processing; leave the row pending
		return &FundingResult{Reference: reference, Status: models.TransactionStatusPending}, nil
	}
}
