package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentSettlement PaymentStatus = "settlement"
	PaymentFailed     PaymentStatus = "failed"
	PaymentExpired    PaymentStatus = "expired"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderReceived   OrderStatus = "received"
	OrderQueue      OrderStatus = "queue"
	OrderProcessing OrderStatus = "processing"
	OrderFinished   OrderStatus = "finished"
	OrderCancelled  OrderStatus = "cancelled"
)

type DeliveryStatus string

const (
	DeliveryPending          DeliveryStatus = "pending"
	DeliveryPickupScheduled  DeliveryStatus = "pickup_scheduled"
	DeliveryPickedUp         DeliveryStatus = "picked_up"
	DeliveryReadyForDelivery DeliveryStatus = "ready_for_delivery"
	DeliveryOutForDelivery   DeliveryStatus = "out_for_delivery"
	DeliveryDelivered        DeliveryStatus = "delivered"
	DeliveryFailed           DeliveryStatus = "delivery_failed"
)

type DeliveryOption string

const (
	DeliveryPickupByLaundry DeliveryOption = "pickup_by_laundry"
	DeliverySelfService     DeliveryOption = "self_service"
)

func (d DeliveryOption) Valid() bool {
	return d == DeliveryPickupByLaundry || d == DeliverySelfService
}

const PaymentMethodCOD = "cod"

var paymentMethods = map[string]struct{}{
	"cod": {}, "credit_card": {}, "mandiri_clickpay": {}, "cimb_clicks": {},
	"bca_klikbca": {}, "bca_klikpay": {}, "bri_epay": {}, "echannel": {},
	"indosat_dompetku": {}, "gopay": {}, "shopeepay": {}, "indomaret": {},
	"alfamart": {}, "akulaku": {}, "bank_transfer": {}, "other": {},
}

// ValidPaymentMethod reports whether the gateway accepts the method.
func ValidPaymentMethod(method string) bool {
	_, ok := paymentMethods[method]
	return ok
}

// Track names the three independent status fields of an order. The value is
// the bson field name.
type Track string

const (
	TrackPayment  Track = "paymentStatus"
	TrackOrder    Track = "orderStatus"
	TrackDelivery Track = "deliveryStatus"
)

// LineItem is one ordered service.
type LineItem struct {
	ServiceID           primitive.ObjectID `bson:"serviceId" json:"serviceId"`
	Qty                 int                `bson:"qty" json:"qty"`
	BeforeWashingImages ImageList          `bson:"beforeWashingImages" json:"beforeWashingImages"`
	AfterWashingImages  ImageList          `bson:"afterWashingImages" json:"afterWashingImages"`
}

// Order is the persisted order document.
type Order struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderID             string              `bson:"orderId" json:"orderId"`
	User                primitive.ObjectID  `bson:"user" json:"user"`
	Address             string              `bson:"address,omitempty" json:"address,omitempty"`
	Phone               string              `bson:"phone" json:"phone"`
	Services            []LineItem          `bson:"services" json:"services"`
	Subtotal            float64             `bson:"subtotal" json:"subtotal"`
	Discount            float64             `bson:"discount" json:"discount"`
	ShippingCost        float64             `bson:"shippingCost" json:"shippingCost"`
	Total               float64             `bson:"total" json:"total"`
	VoucherApplied      *primitive.ObjectID `bson:"voucherApplied,omitempty" json:"voucherApplied,omitempty"`
	PaymentMethod       string              `bson:"paymentMethod" json:"paymentMethod"`
	DeliveryOption      DeliveryOption      `bson:"deliveryOption" json:"deliveryOption"`
	PaymentStatus       PaymentStatus       `bson:"paymentStatus" json:"paymentStatus"`
	OrderStatus         OrderStatus         `bson:"orderStatus" json:"orderStatus"`
	DeliveryStatus      DeliveryStatus      `bson:"deliveryStatus" json:"deliveryStatus"`
	PaymentReceipts     ImageList           `bson:"paymentReceipts" json:"paymentReceipts"`
	EstimatedFinishTime time.Time           `bson:"estimatedFinishTime" json:"estimatedFinishTime"`

	PaymentPendingTime *time.Time `bson:"paymentPendingTime,omitempty" json:"paymentPendingTime,omitempty"`
	SettlementTime     *time.Time `bson:"settlementTime,omitempty" json:"settlementTime,omitempty"`
	PaymentFailedTime  *time.Time `bson:"paymentFailedTime,omitempty" json:"paymentFailedTime,omitempty"`
	PaymentExpiredTime *time.Time `bson:"paymentExpiredTime,omitempty" json:"paymentExpiredTime,omitempty"`

	ConfirmedTime  *time.Time `bson:"confirmedTime,omitempty" json:"confirmedTime,omitempty"`
	ReceivedTime   *time.Time `bson:"receivedTime,omitempty" json:"receivedTime,omitempty"`
	QueueTime      *time.Time `bson:"queueTime,omitempty" json:"queueTime,omitempty"`
	ProcessingTime *time.Time `bson:"processingTime,omitempty" json:"processingTime,omitempty"`
	FinishTime     *time.Time `bson:"finishTime,omitempty" json:"finishTime,omitempty"`
	CancelledTime  *time.Time `bson:"cancelledTime,omitempty" json:"cancelledTime,omitempty"`

	PickupScheduledTime  *time.Time `bson:"pickupScheduledTime,omitempty" json:"pickupScheduledTime,omitempty"`
	PickedUpTime         *time.Time `bson:"pickedUpTime,omitempty" json:"pickedUpTime,omitempty"`
	ReadyForDeliveryTime *time.Time `bson:"readyForDeliveryTime,omitempty" json:"readyForDeliveryTime,omitempty"`
	OutForDeliveryTime   *time.Time `bson:"outForDeliveryTime,omitempty" json:"outForDeliveryTime,omitempty"`
	DeliveredTime        *time.Time `bson:"deliveredTime,omitempty" json:"deliveredTime,omitempty"`
	DeliveryFailedTime   *time.Time `bson:"deliveryFailedTime,omitempty" json:"deliveryFailedTime,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsCOD reports whether the order is paid cash on delivery.
func (o Order) IsCOD() bool {
	return o.PaymentMethod == PaymentMethodCOD
}

// ServiceIDs lists the services referenced by the line items, in order.
func (o Order) ServiceIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(o.Services))
	for _, item := range o.Services {
		ids = append(ids, item.ServiceID)
	}
	return ids
}

type stampSlot struct {
	field string
	ptr   func(o *Order) **time.Time
}

// stampSlots maps each stamped status to its bson field and struct field.
var stampSlots = map[Track]map[string]stampSlot{
	TrackPayment: {
		string(PaymentPending):    {"paymentPendingTime", func(o *Order) **time.Time { return &o.PaymentPendingTime }},
		string(PaymentSettlement): {"settlementTime", func(o *Order) **time.Time { return &o.SettlementTime }},
		string(PaymentFailed):     {"paymentFailedTime", func(o *Order) **time.Time { return &o.PaymentFailedTime }},
		string(PaymentExpired):    {"paymentExpiredTime", func(o *Order) **time.Time { return &o.PaymentExpiredTime }},
	},
	TrackOrder: {
		string(OrderConfirmed):  {"confirmedTime", func(o *Order) **time.Time { return &o.ConfirmedTime }},
		string(OrderReceived):   {"receivedTime", func(o *Order) **time.Time { return &o.ReceivedTime }},
		string(OrderQueue):      {"queueTime", func(o *Order) **time.Time { return &o.QueueTime }},
		string(OrderProcessing): {"processingTime", func(o *Order) **time.Time { return &o.ProcessingTime }},
		string(OrderFinished):   {"finishTime", func(o *Order) **time.Time { return &o.FinishTime }},
		string(OrderCancelled):  {"cancelledTime", func(o *Order) **time.Time { return &o.CancelledTime }},
	},
	TrackDelivery: {
		string(DeliveryPickupScheduled):  {"pickupScheduledTime", func(o *Order) **time.Time { return &o.PickupScheduledTime }},
		string(DeliveryPickedUp):         {"pickedUpTime", func(o *Order) **time.Time { return &o.PickedUpTime }},
		string(DeliveryReadyForDelivery): {"readyForDeliveryTime", func(o *Order) **time.Time { return &o.ReadyForDeliveryTime }},
		string(DeliveryOutForDelivery):   {"outForDeliveryTime", func(o *Order) **time.Time { return &o.OutForDeliveryTime }},
		string(DeliveryDelivered):        {"deliveredTime", func(o *Order) **time.Time { return &o.DeliveredTime }},
		string(DeliveryFailed):           {"deliveryFailedTime", func(o *Order) **time.Time { return &o.DeliveryFailedTime }},
	},
}

// Stamp records when a track entered a status. Statuses without a timestamp
// field are ignored.
func (o *Order) Stamp(track Track, status string, at time.Time) {
	slot, ok := stampSlots[track][status]
	if !ok {
		return
	}
	t := at
	*slot.ptr(o) = &t
}

// StampField is the bson field Stamp writes for a status, or "" when none.
func StampField(track Track, status string) string {
	return stampSlots[track][status].field
}
