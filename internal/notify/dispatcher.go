package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"laundry/internal/apperr"
	"laundry/internal/logging"
	"laundry/internal/metrics"
	"laundry/internal/models"
)

var ErrNotificationNotFound = apperr.New(apperr.ErrNotFound, "notification not found")

type Store interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
	ListForRecipient(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) error
	SoftDelete(ctx context.Context, id, userID primitive.ObjectID) error
}

type Directory interface {
	FindUsersByRole(ctx context.Context, role string) ([]models.User, error)
}

// Message is one event to fan out.
type Message struct {
	Type           string
	Text           string
	ForRole        string
	Recipients     []primitive.ObjectID
	RelatedOrder   *primitive.ObjectID
	RelatedVoucher *primitive.ObjectID
}

// InboxItem is a notification as seen by a single recipient.
type InboxItem struct {
	ID             primitive.ObjectID  `json:"id"`
	Type           string              `json:"type"`
	Message        string              `json:"message"`
	RelatedOrder   *primitive.ObjectID `json:"relatedOrder,omitempty"`
	RelatedVoucher *primitive.ObjectID `json:"relatedVoucher,omitempty"`
	IsRead         bool                `json:"isRead"`
	CreatedAt      time.Time           `json:"createdAt"`
}

type Dispatcher struct {
	store   Store
	users   Directory
	clock   func() time.Time
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewDispatcher(store Store, users Directory, clock func() time.Time, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{store: store, users: users, clock: clock, metrics: m, logger: logger}
}

// Notify writes one record shared by every recipient. Duplicate recipients are
// collapsed and an empty recipient list writes nothing.
func (d *Dispatcher) Notify(ctx context.Context, msg Message) error {
	seen := make(map[primitive.ObjectID]struct{}, len(msg.Recipients))
	recipients := make([]models.Recipient, 0, len(msg.Recipients))
	for _, id := range msg.Recipients {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		recipients = append(recipients, models.Recipient{User: id})
	}
	if len(recipients) == 0 {
		logging.Debug(ctx, d.logger, "notification skipped, no recipients", zap.String("type", msg.Type))
		return nil
	}

	n := &models.Notification{
		Type:           msg.Type,
		Message:        msg.Text,
		ForRole:        msg.ForRole,
		Recipients:     recipients,
		RelatedOrder:   msg.RelatedOrder,
		RelatedVoucher: msg.RelatedVoucher,
		CreatedAt:      d.clock().UTC(),
	}
	if err := d.store.InsertNotification(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	d.metrics.NotificationCreated(msg.Type)
	return nil
}

// NotifyAdmins addresses msg to every user currently holding the admin role.
func (d *Dispatcher) NotifyAdmins(ctx context.Context, msg Message) error {
	admins, err := d.users.FindUsersByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("find admins: %w", err)
	}
	msg.Recipients = make([]primitive.ObjectID, 0, len(admins))
	for _, a := range admins {
		msg.Recipients = append(msg.Recipients, a.ID)
	}
	msg.ForRole = models.RoleAdmin
	return d.Notify(ctx, msg)
}

// Inbox lists the notifications a user has not deleted, newest first.
func (d *Dispatcher) Inbox(ctx context.Context, userID primitive.ObjectID) ([]InboxItem, error) {
	list, err := d.store.ListForRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]InboxItem, 0, len(list))
	for _, n := range list {
		state, ok := n.RecipientState(userID)
		if !ok || state.IsDeleted {
			continue
		}
		items = append(items, InboxItem{
			ID:             n.ID,
			Type:           n.Type,
			Message:        n.Message,
			RelatedOrder:   n.RelatedOrder,
			RelatedVoucher: n.RelatedVoucher,
			IsRead:         state.IsRead,
			CreatedAt:      n.CreatedAt,
		})
	}
	return items, nil
}

func (d *Dispatcher) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	return notFound(d.store.MarkRead(ctx, id, userID), id)
}

func (d *Dispatcher) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	return notFound(d.store.SoftDelete(ctx, id, userID), id)
}

func notFound(err error, id primitive.ObjectID) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotificationNotFound, id.Hex())
	}
	return err
}
