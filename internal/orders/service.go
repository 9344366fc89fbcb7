package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"laundry/internal/apperr"
	"laundry/internal/lock"
	"laundry/internal/metrics"
	"laundry/internal/models"
	"laundry/internal/notify"
	"laundry/internal/pricing"
)

// TrackChange is a compare-and-set on one status track. Stores apply it only
// while the track still holds From and stamp the matching time field with At.
type TrackChange struct {
	Track models.Track
	From  string
	To    string
	At    time.Time
}

// ListFilter narrows order listings. A nil User lists every order.
type ListFilter struct {
	User  *primitive.ObjectID
	Skip  int64
	Limit int64
}

type OrderStore interface {
	InsertOrder(ctx context.Context, o *models.Order) error
	FindOrderByOrderID(ctx context.Context, orderID string) (models.Order, error)
	ListOrders(ctx context.Context, f ListFilter) ([]models.Order, int64, error)
	DeleteOrder(ctx context.Context, orderID string) (models.Order, error)
	UpdateTrack(ctx context.Context, orderID string, ch TrackChange) (models.Order, error)
	SetLineItemImages(ctx context.Context, orderID string, serviceID primitive.ObjectID, phase models.ImagePhase, images models.ImageList, at time.Time) (models.Order, error)
	AddPaymentReceipts(ctx context.Context, orderID string, receipts models.ImageList, at time.Time) (models.Order, error)
}

type VoucherStore interface {
	FindVoucherByCode(ctx context.Context, code string) (models.Voucher, error)
	RedeemVoucher(ctx context.Context, id primitive.ObjectID, now time.Time) error
}

type CartStore interface {
	GetCart(ctx context.Context, userID primitive.ObjectID) (models.Cart, bool, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
}

type Notifier interface {
	Notify(ctx context.Context, msg notify.Message) error
	NotifyAdmins(ctx context.Context, msg notify.Message) error
}

// Deps bundles the collaborators of the lifecycle service.
type Deps struct {
	Orders      OrderStore
	Vouchers    VoucherStore
	Carts       CartStore
	Catalog     pricing.Catalog
	Notifier    Notifier
	Locker      lock.Locker
	Window      Window
	Clock       func() time.Time
	IDGenerator func() string
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	Tracer      trace.Tracer
}

// Service is the only writer of order state.
type Service struct {
	orders     OrderStore
	vouchers   VoucherStore
	carts      CartStore
	calculator *pricing.Calculator
	notifier   Notifier
	locker     lock.Locker
	window     Window
	clock      func() time.Time
	newID      func() string
	metrics    *metrics.Metrics
	logger     *zap.Logger
	tracer     trace.Tracer
}

func New(deps Deps) (*Service, error) {
	if deps.Orders == nil {
		return nil, errors.New("orders: order store is required")
	}
	if deps.Vouchers == nil {
		return nil, errors.New("orders: voucher store is required")
	}
	if deps.Carts == nil {
		return nil, errors.New("orders: cart store is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("orders: catalog is required")
	}
	if deps.Notifier == nil {
		return nil, errors.New("orders: notifier is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	locker := deps.Locker
	if locker == nil {
		locker = lock.NewLocal()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer("orders")
	}
	window := deps.Window
	if window == (Window{}) {
		window = DefaultWindow(7 * time.Hour)
	}

	return &Service{
		orders:     deps.Orders,
		vouchers:   deps.Vouchers,
		carts:      deps.Carts,
		calculator: pricing.NewCalculator(deps.Catalog),
		notifier:   deps.Notifier,
		locker:     locker,
		window:     window,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:   idGen,
		metrics: deps.Metrics,
		logger:  logger.Named("orders"),
		tracer:  tracer,
	}, nil
}

func (s *Service) start(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "orders."+name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) load(ctx context.Context, orderID string) (models.Order, error) {
	o, err := s.orders.FindOrderByOrderID(ctx, orderID)
	if err != nil {
		return models.Order{}, mapStoreError(err, orderID)
	}
	return o, nil
}

func mapStoreError(err error, orderID string) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return err
}
