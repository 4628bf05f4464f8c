package orders

import "errors"

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrRefundNotFound     = errors.New("refund not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
	ErrEventNotFound      = errors.New("event not found")

	ErrInvalidQuantity     = errors.New("quantity is out of range")
	ErrLimitExceeded       = errors.New("per-person purchase limit exceeded")
	ErrSoldOut             = errors.New("ticket type is sold out")
	ErrInvalidOrderState   = errors.New("order is not in a valid state for this operation")
	ErrInvalidRefundState  = errors.New("refund is not in a valid state for this operation")
	ErrLateSettlement      = errors.New("settlement arrived after the payment deadline")
	ErrNotOrderOwner       = errors.New("order belongs to another buyer")
	ErrInvalidRefundReason = errors.New("invalid refund reason")
	ErrNoteTooLong         = errors.New("refund note exceeds the allowed length")
	ErrTicketUsed          = errors.New("ticket has already been used")
)
