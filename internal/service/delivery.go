package service

import (
	"context"
	"log"
)

// DeliveryService fulfills the purchased item after a completed payment.
// A false return means delivery failed; the payment itself stands either way.
type DeliveryService interface {
	Deliver(ctx context.Context, component, paymentArea string, itemID int, paymentID string, userID int) (bool, error)
}

// LogDeliveryService is a delivery implementation that only records the
// fulfillment request. Deployments wire the real fulfillment collaborator.
type LogDeliveryService struct{}

// NewLogDeliveryService creates a new LogDeliveryService.
func NewLogDeliveryService() *LogDeliveryService {
	return &LogDeliveryService{}
}

// Deliver logs the fulfillment request and reports success.
func (s *LogDeliveryService) Deliver(ctx context.Context, component, paymentArea string, itemID int, paymentID string, userID int) (bool, error) {
	log.Printf("[DELIVERY] Component=%s, Area=%s, ItemID=%d, PaymentID=%s, UserID=%d",
		component, paymentArea, itemID, paymentID, userID)

	return true, nil
}
