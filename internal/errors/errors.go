// Package errors defines the domain error types shared across services.
package errors

import "fmt"

// DomainError is a typed, user-facing business error. Infrastructure
// failures are never modelled as DomainError; they surface as plain
// wrapped errors and are reported generically to callers.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
