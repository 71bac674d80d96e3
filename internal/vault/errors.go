package vault

import "errors"

var (
	// Authorization.
	ErrNotOwner    = errors.New("caller is not a vault owner")
	ErrNotOperator = errors.New("caller is neither owner nor registered operator")

	// Not found.
	ErrTransactionNotFound  = errors.New("transaction id does not exist")
	ErrSubscriptionNotFound = errors.New("subscription id does not exist")
	ErrOwnerNotFound        = errors.New("account is not in the owner set")

	// State conflict.
	ErrAlreadyConfirmed            = errors.New("transaction already confirmed by caller")
	ErrNotConfirmed                = errors.New("transaction was not confirmed by caller")
	ErrAlreadyExecuted             = errors.New("transaction already executed")
	ErrConfirmationsBelowThreshold = errors.New("confirmation count below threshold")
	ErrExecutionInFlight           = errors.New("execution already in flight for this id")
	ErrNotYetDue                   = errors.New("withdrawal window is not open yet")
	ErrSubscriptionExpired         = errors.New("subscription has expired")
	ErrSubscriptionPaused          = errors.New("subscription is paused")
	ErrOwnerExists                 = errors.New("account already is a vault owner")

	// Validation.
	ErrInvalidRequirement = errors.New("owner count or threshold violates the owner set invariant")
	ErrInvalidAccountID   = errors.New("account id is empty or malformed")
	ErrInvalidValue       = errors.New("value must be positive")
	ErrInvalidPeriod      = errors.New("period must be positive")
	ErrBadMetadata        = errors.New("subscription metadata is malformed")
	ErrUnsupportedVariant = errors.New("unsupported settlement variant")
	ErrBadAdminCommand    = errors.New("vault admin command payload is malformed")
	ErrBadSnapshot        = errors.New("vault snapshot payload is invalid")

	// External call failure, non-fatal: paired with a failure event and
	// retryable by a fresh invocation.
	ErrExternalCallFailed = errors.New("outbound call failed")
)

type ErrorKind string

const (
	KindAuthorization ErrorKind = "authorization"
	KindNotFound      ErrorKind = "not_found"
	KindStateConflict ErrorKind = "state_conflict"
	KindValidation    ErrorKind = "validation"
	KindExternalCall  ErrorKind = "external_call"
	KindUnknown       ErrorKind = "unknown"
)

// Kind classifies an error into the taxonomy used by transports for code
// mapping.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrNotOperator):
		return KindAuthorization
	case errors.Is(err, ErrTransactionNotFound), errors.Is(err, ErrSubscriptionNotFound), errors.Is(err, ErrOwnerNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyConfirmed), errors.Is(err, ErrNotConfirmed), errors.Is(err, ErrAlreadyExecuted),
		errors.Is(err, ErrConfirmationsBelowThreshold), errors.Is(err, ErrExecutionInFlight),
		errors.Is(err, ErrNotYetDue), errors.Is(err, ErrSubscriptionExpired), errors.Is(err, ErrSubscriptionPaused),
		errors.Is(err, ErrOwnerExists):
		return KindStateConflict
	case errors.Is(err, ErrInvalidRequirement), errors.Is(err, ErrInvalidAccountID), errors.Is(err, ErrInvalidValue),
		errors.Is(err, ErrInvalidPeriod), errors.Is(err, ErrBadMetadata), errors.Is(err, ErrUnsupportedVariant),
		errors.Is(err, ErrBadAdminCommand), errors.Is(err, ErrBadSnapshot):
		return KindValidation
	case errors.Is(err, ErrExternalCallFailed):
		return KindExternalCall
	default:
		return KindUnknown
	}
}
