package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationNewOrder        = "new_order"
	NotificationOrderStatus     = "order_status"
	NotificationPaymentStatus   = "payment_status_update"
	NotificationDeliveryStatus  = "delivery_status"
	NotificationOrderDeleted    = "order_deleted"
	NotificationReceiptUploaded = "payment_receipt_uploaded"
	NotificationNewVoucher      = "new_voucher"
	NotificationVoucherUpdated  = "voucher_updated"
)

// Recipient holds the per-user state of a shared notification.
type Recipient struct {
	User      primitive.ObjectID `bson:"user" json:"user"`
	IsRead    bool               `bson:"isRead" json:"isRead"`
	IsDeleted bool               `bson:"isDeleted" json:"isDeleted"`
}

// Notification is one message fanned out to many recipients.
type Notification struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Type           string              `bson:"type" json:"type"`
	Message        string              `bson:"message" json:"message"`
	ForRole        string              `bson:"forRole,omitempty" json:"forRole,omitempty"`
	Recipients     []Recipient         `bson:"recipients" json:"recipients"`
	RelatedOrder   *primitive.ObjectID `bson:"relatedOrder,omitempty" json:"relatedOrder,omitempty"`
	RelatedVoucher *primitive.ObjectID `bson:"relatedVoucher,omitempty" json:"relatedVoucher,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
}

// RecipientState returns the entry for a user, if present.
func (n Notification) RecipientState(userID primitive.ObjectID) (Recipient, bool) {
	for _, r := range n.Recipients {
		if r.User == userID {
			return r, true
		}
	}
	return Recipient{}, false
}
