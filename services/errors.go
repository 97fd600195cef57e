package services

// ErrorKind classifies a domain error. Every precondition violation in the
// order lifecycle and the review workflow surfaces as one of these; the HTTP
// layer maps them to status codes, the services themselves stay
// transport-agnostic.
type ErrorKind string

const (
	ErrNotFound            ErrorKind = "NOT_FOUND"
	ErrForbidden           ErrorKind = "FORBIDDEN"
	ErrIllegalTransition   ErrorKind = "ILLEGAL_TRANSITION"
	ErrInvalidState        ErrorKind = "INVALID_STATE"
	ErrDuplicateReview     ErrorKind = "DUPLICATE_REVIEW"
	ErrAlreadyApproved     ErrorKind = "ALREADY_APPROVED"
	ErrRevisionLimit       ErrorKind = "REVISION_LIMIT_REACHED"
	ErrPendingRevision     ErrorKind = "PENDING_REVISION_EXISTS"
	ErrAlreadyCompleted    ErrorKind = "ALREADY_COMPLETED"
	ErrAuthFailed          ErrorKind = "AUTH_FAILED"
	ErrBalanceNotConfirmed ErrorKind = "BALANCE_NOT_CONFIRMED"
)

// DomainError is a typed, recoverable business error. Storage failures are
// not wrapped in it; they propagate as plain errors so callers can tell the
// two apart.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Details map[string]interface{} // optional extra payload, e.g. remaining revision count
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a DomainError with no details
func NewDomainError(kind ErrorKind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

// AsDomainError returns the error as a *DomainError if it is one
func AsDomainError(err error) (*DomainError, bool) {
	domainErr, ok := err.(*DomainError)
	return domainErr, ok
}
