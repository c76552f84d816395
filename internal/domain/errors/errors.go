package errors

import "errors"

// Kinds. Every specific error below unwraps to exactly one of them so callers
// can branch on the kind with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("invalid state")
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("forbidden")
	ErrUnavailable        = errors.New("temporarily unavailable")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var (
	ErrOrderNotFound   = newKindError(ErrNotFound, "order not found")
	ErrPartnerNotFound = newKindError(ErrNotFound, "delivery partner not found")
	ErrUserNotFound    = newKindError(ErrNotFound, "user not found")

	ErrInvalidTransition    = newKindError(ErrInvalidState, "invalid status transition")
	ErrOrderNotInPrep       = newKindError(ErrInvalidState, "order can only be assigned while in PREP status")
	ErrOrderAlreadyAssigned = newKindError(ErrInvalidState, "order is already assigned to a delivery partner")
	ErrPartnerUnavailable   = newKindError(ErrInvalidState, "delivery partner is not available")
	ErrPartnerAtCapacity    = newKindError(ErrInvalidState, "delivery partner has reached maximum capacity")
	ErrDuplicateAssignment  = newKindError(ErrInvalidState, "order is already in partner's current orders")
	ErrInactiveUser         = newKindError(ErrForbidden, "user account is inactive")
	ErrManagerOnly          = newKindError(ErrForbidden, "only managers can perform this action")
	ErrDeliveryOnly         = newKindError(ErrForbidden, "only delivery partners can perform this action")
	ErrNotAssignedPartner   = newKindError(ErrForbidden, "order is not assigned to you")

	ErrEmptyItems         = newKindError(ErrValidation, "order must contain at least one item")
	ErrInvalidItemName    = newKindError(ErrValidation, "item name is required")
	ErrInvalidQuantity    = newKindError(ErrValidation, "item quantity must be at least 1")
	ErrInvalidPrice       = newKindError(ErrValidation, "item price must not be negative")
	ErrInvalidPrepTime    = newKindError(ErrValidation, "prep time must be between 1 and 120 minutes")
	ErrInvalidOrderCode   = newKindError(ErrValidation, "order id must be 3-32 letters, digits or dashes")
	ErrInvalidStatus      = newKindError(ErrValidation, "unknown order status")
	ErrMissingCoordinates = newKindError(ErrValidation, "both latitude and longitude are required")
	ErrInvalidCoordinates = newKindError(ErrValidation, "coordinates are out of range")
	ErrInvalidRole        = newKindError(ErrValidation, "role must be manager or delivery")
	ErrInvalidEmail       = newKindError(ErrValidation, "a valid email is required")
	ErrWeakPassword       = newKindError(ErrValidation, "password must be at least 6 characters")
	ErrInvalidName        = newKindError(ErrValidation, "name is required")
	ErrInvalidDeliveryAvg = newKindError(ErrValidation, "average delivery time must be at least 5 minutes")
)

// KindError is a specific, user-facing error that belongs to a broader kind.
type KindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) *KindError {
	return &KindError{kind: kind, msg: msg}
}

func (e *KindError) Error() string {
	return e.msg
}

func (e *KindError) Unwrap() error {
	return e.kind
}

// Kind returns the broad category of the error.
func (e *KindError) Kind() error {
	return e.kind
}

// WithDetail returns an error with an extended message that still matches
// both e and its kind through errors.Is.
func (e *KindError) WithDetail(detail string) error {
	return &detailError{base: e, msg: e.msg + ": " + detail}
}

type detailError struct {
	base *KindError
	msg  string
}

func (e *detailError) Error() string {
	return e.msg
}

func (e *detailError) Unwrap() error {
	return e.base
}

// KindOf reports which kind err belongs to, or nil when it is not a domain error.
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrInvalidState, ErrValidation, ErrForbidden, ErrUnavailable, ErrAlreadyExists, ErrInvalidCredentials} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
