package orders

import (
	"fmt"
	"slices"
	"strings"

	"laundry/internal/apperr"
	"laundry/internal/models"
)

var orderTransitions = map[string][]string{
	string(models.OrderPending):    {string(models.OrderConfirmed), string(models.OrderCancelled)},
	string(models.OrderConfirmed):  {string(models.OrderReceived), string(models.OrderCancelled)},
	string(models.OrderReceived):   {string(models.OrderQueue), string(models.OrderCancelled)},
	string(models.OrderQueue):      {string(models.OrderProcessing), string(models.OrderCancelled)},
	string(models.OrderProcessing): {string(models.OrderFinished), string(models.OrderCancelled)},
}

// Self-service orders skip the pickup steps and may be collected straight
// from ready_for_delivery.
var deliveryTransitions = map[string][]string{
	string(models.DeliveryPending): {
		string(models.DeliveryPickupScheduled),
		string(models.DeliveryReadyForDelivery),
		string(models.DeliveryFailed),
	},
	string(models.DeliveryPickupScheduled): {string(models.DeliveryPickedUp), string(models.DeliveryFailed)},
	string(models.DeliveryPickedUp):        {string(models.DeliveryReadyForDelivery), string(models.DeliveryFailed)},
	string(models.DeliveryReadyForDelivery): {
		string(models.DeliveryOutForDelivery),
		string(models.DeliveryDelivered),
		string(models.DeliveryFailed),
	},
	string(models.DeliveryOutForDelivery): {string(models.DeliveryDelivered), string(models.DeliveryFailed)},
}

var gatewayPaymentTransitions = map[string][]string{
	string(models.PaymentPending): {
		string(models.PaymentSettlement),
		string(models.PaymentFailed),
		string(models.PaymentExpired),
	},
}

var codPaymentTransitions = map[string][]string{
	string(models.PaymentPending):    {string(models.PaymentSettlement)},
	string(models.PaymentSettlement): {string(models.PaymentPending)},
}

var knownStatuses = map[models.Track][]string{
	models.TrackPayment: {
		string(models.PaymentPending), string(models.PaymentSettlement),
		string(models.PaymentFailed), string(models.PaymentExpired),
	},
	models.TrackOrder: {
		string(models.OrderPending), string(models.OrderConfirmed), string(models.OrderReceived),
		string(models.OrderQueue), string(models.OrderProcessing), string(models.OrderFinished),
		string(models.OrderCancelled),
	},
	models.TrackDelivery: {
		string(models.DeliveryPending), string(models.DeliveryPickupScheduled), string(models.DeliveryPickedUp),
		string(models.DeliveryReadyForDelivery), string(models.DeliveryOutForDelivery),
		string(models.DeliveryDelivered), string(models.DeliveryFailed),
	},
}

// gatewayStatuses maps payment gateway vocabulary onto payment statuses.
var gatewayStatuses = map[string]models.PaymentStatus{
	"settlement": models.PaymentSettlement,
	"capture":    models.PaymentSettlement,
	"pending":    models.PaymentPending,
	"expire":     models.PaymentExpired,
	"cancel":     models.PaymentFailed,
	"deny":       models.PaymentFailed,
	"failure":    models.PaymentFailed,
}

func canTransition(table map[string][]string, current, target string) bool {
	next, ok := table[current]
	if !ok {
		return false
	}
	return slices.Contains(next, target)
}

func checkTransition(table map[string][]string, track models.Track, current, target string) error {
	if !slices.Contains(knownStatuses[track], target) {
		return fmt.Errorf("%w: unknown %s %q", apperr.ErrValidation, track, target)
	}
	if !canTransition(table, current, target) {
		return fmt.Errorf("%w: %s %s → %s", ErrInvalidTransition, track, current, target)
	}
	return nil
}

// MapGatewayStatus translates a gateway transaction status.
func MapGatewayStatus(status string) (models.PaymentStatus, error) {
	mapped, ok := gatewayStatuses[strings.ToLower(strings.TrimSpace(status))]
	if !ok {
		return "", fmt.Errorf("%w: unknown transaction status %q", apperr.ErrValidation, status)
	}
	return mapped, nil
}
