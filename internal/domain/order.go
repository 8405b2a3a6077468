package domain

import "time"

// OrderStatus represents the lifecycle status of an open order.
// Values 0..2 are reserved pending states; only Pending is written today.
type OrderStatus int

const (
	OrderStatusPending  OrderStatus = 0
	OrderStatusComplete OrderStatus = 3
)

// OpenOrder represents an in-flight checkout attempt.
// At most one order exists per transaction id.
type OpenOrder struct {
	TID          string
	Component    string
	PaymentArea  string
	ItemID       int
	UserID       int
	Price        float64
	Status       OrderStatus
	TimeCreated  time.Time
	TimeModified time.Time
}
