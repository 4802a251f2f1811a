package errors

import "fmt"

// ErrNotFound indicates a resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates a failed authentication attempt
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrDuplicateOrder indicates an order is already reserved or processed.
// It is a control-flow outcome, not a failure: the webhook caller still
// receives a 200.
type ErrDuplicateOrder struct {
	OrderID int64
}

func (e *ErrDuplicateOrder) Error() string {
	return fmt.Sprintf("order %d already reserved or processed", e.OrderID)
}

// ErrCustomerResolution indicates the ERP customer could not be resolved or created
type ErrCustomerResolution struct {
	CustomerRef string
	Cause       error
}

func (e *ErrCustomerResolution) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to resolve customer %q: %v", e.CustomerRef, e.Cause)
	}
	return fmt.Sprintf("failed to resolve customer %q", e.CustomerRef)
}

func (e *ErrCustomerResolution) Unwrap() error {
	return e.Cause
}

// ErrNoOrderLines indicates every line item failed resolution. ERP orders
// are never submitted empty.
type ErrNoOrderLines struct {
	OrderNumber string
}

func (e *ErrNoOrderLines) Error() string {
	return fmt.Sprintf("no sales order lines could be composed for order %s", e.OrderNumber)
}

// ErrSubmissionFailed indicates the ERP rejected or failed to accept the
// composed sales order
type ErrSubmissionFailed struct {
	OrderNumber string
	Cause       error
}

func (e *ErrSubmissionFailed) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sales order submission failed for order %s: %v", e.OrderNumber, e.Cause)
	}
	return fmt.Sprintf("sales order submission failed for order %s", e.OrderNumber)
}

func (e *ErrSubmissionFailed) Unwrap() error {
	return e.Cause
}
