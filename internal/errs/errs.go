// Package errs defines the domain error kinds shared by all modules.
// Handlers map these to HTTP status codes with errors.As instead of
// matching on message text.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// InvalidTransitionError reports an attempt to apply an action that is
// not legal from the entity's current state.
type InvalidTransitionError struct {
	Entity    string
	Current   string
	Attempted string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot apply %s to %s in state %s", e.Attempted, e.Entity, e.Current)
}

// ForbiddenError reports a role or ownership violation.
type ForbiddenError struct {
	Role   string
	Action string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("role %s is not allowed to %s", e.Role, e.Action)
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Ref)
}

// AlreadyExistsError reports a uniqueness violation surfaced as a
// domain error rather than a raw constraint failure.
type AlreadyExistsError struct {
	Entity string
	Ref    string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists for %s", e.Entity, e.Ref)
}

// ValidationError reports malformed input the caller can correct.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// OverPaymentError reports a payment that would push the paid total
// beyond the invoice total. The payment is rejected, never clamped.
type OverPaymentError struct {
	Attempted string
	Remaining string
}

func (e *OverPaymentError) Error() string {
	return fmt.Sprintf("payment of %s exceeds remaining balance of %s", e.Attempted, e.Remaining)
}

// IncompletePackingError reports a kitchen sheet completion attempt
// with items still unpacked.
type IncompletePackingError struct {
	Unpacked int
}

func (e *IncompletePackingError) Error() string {
	return fmt.Sprintf("%d items are still unpacked", e.Unpacked)
}

// NotDeliveredError reports an invoice generation attempt for an order
// whose delivery has not completed.
type NotDeliveredError struct {
	OrderID string
}

func (e *NotDeliveredError) Error() string {
	return fmt.Sprintf("order %s has no completed delivery", e.OrderID)
}

// HTTPStatus maps a domain error to the HTTP status a handler should
// respond with. Unknown errors are treated as infrastructure failures.
func HTTPStatus(err error) int {
	var (
		invalid    *InvalidTransitionError
		forbidden  *ForbiddenError
		notFound   *NotFoundError
		exists     *AlreadyExistsError
		validation *ValidationError
		overPay    *OverPaymentError
		packing    *IncompletePackingError
		notDeliv   *NotDeliveredError
	)
	switch {
	case errors.As(err, &invalid), errors.As(err, &packing), errors.As(err, &notDeliv):
		return http.StatusUnprocessableEntity
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &exists):
		return http.StatusConflict
	case errors.As(err, &validation), errors.As(err, &overPay):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAlreadyExists reports whether err is an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var ae *AlreadyExistsError
	return errors.As(err, &ae)
}
