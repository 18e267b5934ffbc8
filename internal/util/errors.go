// internal/util/errors.go
package util

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Common application-specific errors.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input provided")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrQuoteNotFound       = errors.New("quote not found")

	// Ledger errors.
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrWalletFrozen           = errors.New("wallet is frozen")
	ErrAlreadyReversed        = errors.New("transaction already reversed")
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// Workflow and quote errors.
	ErrInvalidStateTransition        = errors.New("invalid state transition")
	ErrForbidden                     = errors.New("actor is not allowed to perform this action")
	ErrApplicationNotAcceptingQuotes = errors.New("application is not accepting quotes")
	ErrQuoteExpired                  = errors.New("quote expired")
	ErrQuoteNotPending               = errors.New("quote is not pending")
	ErrAlreadyResolved               = errors.New("application already resolved")
)

// IsError reports whether err matches target anywhere in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// IsNotFound reports whether err is one of the not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrWalletNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrApplicationNotFound) ||
		errors.Is(err, ErrQuoteNotFound)
}

// InsufficientFundsError carries the balance shortfall of a rejected debit.
type InsufficientFundsError struct {
	WalletID  string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s, requested %s",
		e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// TransitionError describes a rejected status change.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}
