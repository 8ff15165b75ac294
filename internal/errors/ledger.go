package errors

var (
	ErrInsufficientFunds = &DomainError{
		Code:    "INSUFFICIENT_FUNDS",
		Message: "insufficient wallet balance",
	}
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "invalid amount",
	}
	ErrUserNotFound = &DomainError{
		Code:    "USER_NOT_FOUND",
		Message: "user not found",
	}
	ErrRecipientNotFound = &DomainError{
		Code:    "RECIPIENT_NOT_FOUND",
		Message: "recipient not found",
	}
	ErrSelfTransfer = &DomainError{
		Code:    "SELF_TRANSFER",
		Message: "cannot transfer to self",
	}
	ErrTransactionNotFound = &DomainError{
		Code:    "TRANSACTION_NOT_FOUND",
		Message: "transaction not found",
	}
	ErrDuplicateReference = &DomainError{
		Code:    "DUPLICATE_REFERENCE",
		Message: "a transaction with this reference already exists",
	}
	ErrReferralNotFound = &DomainError{
		Code:    "REFERRAL_NOT_FOUND",
		Message: "no referral record for this user",
	}
	// ErrInvariantViolation means a balance mutation outside the checked
	// path would drive the balance negative. It is a bug, not a user
	// error: the atomic unit is rolled back and the request refused.
	ErrInvariantViolation = &DomainError{
		Code:    "INVARIANT_VIOLATION",
		Message: "ledger invariant violation",
	}
)
