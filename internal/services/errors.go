package services

import (
	"errors"
	"fmt"
)

// Kind classifies service failures so the transport layer can map them.
type Kind uint8

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindInvalidArgument
	KindNotFound
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error carries the failing operation, its kind and a stable reason code.
type Error struct {
	Op     string
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	code := fmt.Sprintf("%s.%s", e.Op, e.Reason)
	if e.Err == nil {
		return code
	}
	return fmt.Sprintf("%s: %v", code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns "<operation>.<reason>".
func (e *Error) Code() string {
	return fmt.Sprintf("%s.%s", e.Op, e.Reason)
}

func newError(op string, kind Kind, reason string, cause error) error {
	return &Error{Op: op, Kind: kind, Reason: reason, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// Message returns the innermost human readable cause for client responses.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Err != nil {
		return se.Err.Error()
	}
	if se != nil {
		return se.Reason
	}
	return err.Error()
}

var (
	errMissingDatabase    = errors.New("database handle is required")
	errMissingMedia       = errors.New("media repository is required")
	errMissingPrincipal   = errors.New("authenticated user is required")
	errTargetNotFound     = errors.New("target not found")
	errContentNotFound    = errors.New("content not found")
	errUserNotFound       = errors.New("user not found")
	errSelfFollow         = errors.New("cannot follow yourself")
	errRelationMismatch   = errors.New("relation does not accept this target")
	errKeyReused          = errors.New("idempotency key was already used for a different toggle")
	errKeyTooLong         = errors.New("idempotency key must be at most 64 characters")
	errEmptyComment       = errors.New("comment text is required")
	errCommentTooLong     = errors.New("comment text must be at most 500 characters")
	errNotOwner           = errors.New("only the owner can delete this content")
	errSelfNotification   = errors.New("notification receiver and sender must differ")
	errMediaNotFound      = errors.New("uploaded media not found")
	errMediaNotOwned      = errors.New("uploaded media belongs to another user")
	errInvalidDelta       = errors.New("counter delta must be -1 or +1")
	errUnknownCounter     = errors.New("unknown counter field")
	errMissingStorageID   = errors.New("storage id is required")
	errMissingMediaURL    = errors.New("media url is required")
	errMediaAlreadyExists = errors.New("media asset already registered")
)
