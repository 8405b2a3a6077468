package service

import "errors"

var (
	// ErrInvalidComponent is returned when the component name is empty.
	ErrInvalidComponent = errors.New("invalid component")

	// ErrInvalidPaymentArea is returned when the payment area is empty.
	ErrInvalidPaymentArea = errors.New("invalid payment area")

	// ErrInvalidItemID is returned when the item id is not positive.
	ErrInvalidItemID = errors.New("invalid item id")

	// ErrInvalidUserID is returned when the user id is not positive.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidTID is returned when the transaction id is empty.
	ErrInvalidTID = errors.New("invalid transaction id")

	// ErrTokenizerUnavailable is returned when the provider cannot hand out
	// a card tokenizer for a new checkout session.
	ErrTokenizerUnavailable = errors.New("tokenizer unavailable")
)

// User-visible reconciliation messages.
const (
	MsgPaymentSuccessful       = "payment successful"
	MsgPaymentAlreadyExists    = "payment already exists"
	MsgPaymentError            = "payment error"
	MsgInternalError           = "internal error"
	MsgCannotFetchOrderDetails = "cannot fetch order details"
)
