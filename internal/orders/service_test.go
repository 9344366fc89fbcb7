package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"laundry/internal/apperr"
	"laundry/internal/metrics"
	"laundry/internal/models"
	"laundry/internal/notify"
	"laundry/internal/voucher"
)

// Monday 2 March 2026, 10:00 at UTC+7.
var openTime = time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)

type fixture struct {
	svc           *Service
	now           time.Time
	orders        *memOrders
	vouchers      *memVouchers
	carts         *memCarts
	notifications *memNotifications
	metrics       *metrics.Metrics
	logs          *observer.ObservedLogs
	user          models.Actor
	admins        []models.User
	wash          models.Service
	iron          models.Service
	dry           models.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		now:           openTime,
		orders:        newMemOrders(),
		vouchers:      &memVouchers{byCode: map[string]*models.Voucher{}},
		carts:         &memCarts{byUser: map[primitive.ObjectID]models.Cart{}},
		notifications: &memNotifications{},
		metrics:       metrics.New(prometheus.NewRegistry()),
		user:          models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleUser},
		admins: []models.User{
			{ID: primitive.NewObjectID(), Role: models.RoleAdmin},
			{ID: primitive.NewObjectID(), Role: models.RoleAdmin},
		},
		wash: models.Service{ID: primitive.NewObjectID(), Name: "Cuci", Price: 25000, EstimatedDuration: models.Duration{Days: 1}},
		iron: models.Service{ID: primitive.NewObjectID(), Name: "Setrika", Price: 15000, EstimatedDuration: models.Duration{Hours: 12}},
		dry:  models.Service{ID: primitive.NewObjectID(), Name: "Dry clean", Price: 40000, EstimatedDuration: models.Duration{Days: 2, Hours: 6}},
	}

	core, logs := observer.New(zapcore.DebugLevel)
	f.logs = logs
	clock := func() time.Time { return f.now }

	users := memUsers{users: append([]models.User{{ID: f.user.UserID, Role: models.RoleUser}}, f.admins...)}
	dispatcher := notify.NewDispatcher(f.notifications, users, clock, f.metrics, nil)

	seq := 0
	svc, err := New(Deps{
		Orders:   f.orders,
		Vouchers: f.vouchers,
		Carts:    f.carts,
		Catalog: memCatalog{services: map[primitive.ObjectID]models.Service{
			f.wash.ID: f.wash, f.iron.ID: f.iron, f.dry.ID: f.dry,
		}},
		Notifier: dispatcher,
		Window:   DefaultWindow(7 * time.Hour),
		Clock:    clock,
		IDGenerator: func() string {
			seq++
			return fmt.Sprintf("ORD-%03d", seq)
		},
		Metrics: f.metrics,
		Logger:  zap.New(core),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func ptr[T any](v T) *T { return &v }

func pickupDetails() Details {
	return Details{
		Address:        "Jl. Merdeka 1",
		Phone:          "08123456789",
		PaymentMethod:  "gopay",
		DeliveryOption: models.DeliveryPickupByLaundry,
		ShippingCost:   ptr(10000.0),
	}
}

func (f *fixture) placeDirect(t *testing.T, details Details) models.Order {
	t.Helper()
	order, err := f.svc.CreateDirect(context.Background(), f.user, details, []models.CartItem{
		{ServiceID: f.wash.ID, Qty: 2},
		{ServiceID: f.iron.ID, Qty: 1},
	})
	require.NoError(t, err)
	return order
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestWindowCheck(t *testing.T) {
	w := DefaultWindow(7 * time.Hour)
	local := func(day, hour, minute int) time.Time {
		return time.Date(2026, 3, day, hour, minute, 0, 0, time.FixedZone("wib", 7*3600))
	}

	cases := []struct {
		name string
		at   time.Time
		want error
	}{
		{"opening", local(2, 9, 0), nil},
		{"midday", local(3, 13, 30), nil},
		{"closing minute", local(7, 17, 0), nil},
		{"before opening", local(2, 8, 59), ErrOutsideOperatingHours},
		{"after closing", local(2, 17, 1), ErrOutsideOperatingHours},
		{"evening", local(2, 18, 0), ErrOutsideOperatingHours},
		{"sunday", local(1, 10, 0), ErrRestDay},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := w.Check(tc.at.UTC())
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, apperr.ErrBusinessRule)
		})
	}
}

func TestCreateDirectPricesAndNotifiesEveryAdmin(t *testing.T) {
	f := newFixture(t)
	order := f.placeDirect(t, pickupDetails())

	assert.Equal(t, "ORD-001", order.OrderID)
	assert.Equal(t, 65000.0, order.Subtotal)
	assert.Equal(t, 0.0, order.Discount)
	assert.Equal(t, 10000.0, order.ShippingCost)
	assert.Equal(t, 75000.0, order.Total)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, models.OrderPending, order.OrderStatus)
	assert.Equal(t, models.DeliveryPending, order.DeliveryStatus)
	assert.Equal(t, openTime.Add(24*time.Hour), order.EstimatedFinishTime)
	require.Len(t, order.Services, 2)
	assert.Equal(t, 2, order.Services[0].Qty)

	created := f.notifications.ofType(models.NotificationNewOrder)
	require.Len(t, created, 1)
	assert.Equal(t, "New order received: ORD-001", created[0].Message)
	require.Len(t, created[0].Recipients, len(f.admins))
	for _, admin := range f.admins {
		_, ok := created[0].RecipientState(admin.ID)
		assert.True(t, ok)
	}
	assert.Equal(t, &order.ID, created[0].RelatedOrder)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrdersCreated.WithLabelValues("direct")))
}

func TestCreateSelfServiceIgnoresShippingCost(t *testing.T) {
	f := newFixture(t)
	details := pickupDetails()
	details.DeliveryOption = models.DeliverySelfService
	details.Address = ""
	details.OrderID = "CLIENT-42"

	order := f.placeDirect(t, details)
	assert.Equal(t, "CLIENT-42", order.OrderID)
	assert.Equal(t, 0.0, order.ShippingCost)
	assert.Equal(t, 65000.0, order.Total)

	_, err := f.svc.CreateDirect(context.Background(), f.user, details, []models.CartItem{{ServiceID: f.wash.ID, Qty: 1}})
	assert.ErrorIs(t, err, ErrDuplicateOrderID)
}

func TestCreateRejectedOutsideOperatingHours(t *testing.T) {
	f := newFixture(t)
	f.now = time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC) // 18:00 local

	_, err := f.svc.CreateDirect(context.Background(), f.user, pickupDetails(), []models.CartItem{{ServiceID: f.wash.ID, Qty: 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutsideOperatingHours)
	assert.Equal(t, 422, apperr.HTTPStatus(err))

	orders, _, _ := f.orders.ListOrders(context.Background(), ListFilter{})
	assert.Empty(t, orders)
	assert.Empty(t, f.notifications.saved)
}

func TestCreateDirectValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	noAddress := pickupDetails()
	noAddress.Address = " "
	noShipping := pickupDetails()
	noShipping.ShippingCost = nil
	badMethod := pickupDetails()
	badMethod.PaymentMethod = "barter"

	cases := []struct {
		name    string
		details Details
		items   []models.CartItem
	}{
		{"no items", pickupDetails(), nil},
		{"zero qty", pickupDetails(), []models.CartItem{{ServiceID: f.wash.ID, Qty: 0}}},
		{"duplicate service", pickupDetails(), []models.CartItem{{ServiceID: f.wash.ID, Qty: 1}, {ServiceID: f.wash.ID, Qty: 2}}},
		{"pickup without address", noAddress, []models.CartItem{{ServiceID: f.wash.ID, Qty: 1}}},
		{"pickup without shipping", noShipping, []models.CartItem{{ServiceID: f.wash.ID, Qty: 1}}},
		{"unknown payment method", badMethod, []models.CartItem{{ServiceID: f.wash.ID, Qty: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateDirect(ctx, f.user, tc.details, tc.items)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Empty(t, f.orders.byID)
}

func TestCreateDirectUnknownServiceFailsWithoutWrites(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateDirect(context.Background(), f.user, pickupDetails(), []models.CartItem{
		{ServiceID: f.wash.ID, Qty: 1},
		{ServiceID: primitive.NewObjectID(), Qty: 1},
	})
	assert.Equal(t, 404, apperr.HTTPStatus(err))
	assert.Empty(t, f.orders.byID)
	assert.Empty(t, f.notifications.saved)
}

func TestCreateWithVoucherRedeemsOnce(t *testing.T) {
	f := newFixture(t)
	v := &models.Voucher{
		ID:            primitive.NewObjectID(),
		Code:          "HEMAT",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		MaxDiscount:   ptr(5000.0),
		StartDate:     openTime.Add(-time.Hour),
		EndDate:       openTime.Add(time.Hour),
		UsageLimit:    ptr(5),
		IsActive:      true,
	}
	f.vouchers.byCode[v.Code] = v

	details := pickupDetails()
	details.VoucherCode = " hemat "
	order := f.placeDirect(t, details)

	assert.Equal(t, 5000.0, order.Discount)
	assert.Equal(t, 70000.0, order.Total)
	require.NotNil(t, order.VoucherApplied)
	assert.Equal(t, v.ID, *order.VoucherApplied)
	assert.Equal(t, 1, v.UsageCount)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.VoucherRedemptions.WithLabelValues("ok")))
}

func TestCreateWithRejectedVoucherWritesNothing(t *testing.T) {
	f := newFixture(t)
	v := &models.Voucher{
		ID:               primitive.NewObjectID(),
		Code:             "NOIRON",
		DiscountType:     models.DiscountFixed,
		DiscountValue:    1000,
		StartDate:        openTime.Add(-time.Hour),
		EndDate:          openTime.Add(time.Hour),
		IsActive:         true,
		ExcludedServices: []primitive.ObjectID{f.iron.ID},
	}
	f.vouchers.byCode[v.Code] = v

	details := pickupDetails()
	details.VoucherCode = "NOIRON"
	_, err := f.svc.CreateDirect(context.Background(), f.user, details, []models.CartItem{
		{ServiceID: f.wash.ID, Qty: 1},
		{ServiceID: f.iron.ID, Qty: 1},
	})
	assert.ErrorIs(t, err, voucher.ErrVoucherInapplicable)
	assert.Equal(t, 0, v.UsageCount)
	assert.Empty(t, f.orders.byID)

	details.VoucherCode = "MISSING"
	_, err = f.svc.CreateDirect(context.Background(), f.user, details, []models.CartItem{{ServiceID: f.wash.ID, Qty: 1}})
	assert.ErrorIs(t, err, voucher.ErrVoucherNotFound)
}

func TestInsertFailureAfterRedemptionIsLogged(t *testing.T) {
	f := newFixture(t)
	v := &models.Voucher{
		ID:            primitive.NewObjectID(),
		Code:          "ONCE",
		DiscountType:  models.DiscountFixed,
		DiscountValue: 1000,
		StartDate:     openTime.Add(-time.Hour),
		EndDate:       openTime.Add(time.Hour),
		IsActive:      true,
	}
	f.vouchers.byCode[v.Code] = v
	f.orders.insertErr = errors.New("write concern timeout")

	details := pickupDetails()
	details.VoucherCode = "ONCE"
	_, err := f.svc.CreateDirect(context.Background(), f.user, details, []models.CartItem{{ServiceID: f.wash.ID, Qty: 1}})
	require.Error(t, err)

	assert.Equal(t, 1, v.UsageCount)
	entries := f.logs.FilterMessage("voucher redeemed but order not persisted").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "ONCE", entries[0].ContextMap()["voucher_code"])
	assert.Empty(t, f.notifications.saved)
}

func TestCreateFromCartConsumesOnlySelectedItems(t *testing.T) {
	f := newFixture(t)
	f.carts.byUser[f.user.UserID] = models.Cart{
		User: f.user.UserID,
		Services: []models.CartItem{
			{ServiceID: f.wash.ID, Qty: 3},
			{ServiceID: f.iron.ID, Qty: 1},
			{ServiceID: f.dry.ID, Qty: 2},
		},
	}

	order, err := f.svc.CreateFromCart(context.Background(), f.user, pickupDetails(),
		[]primitive.ObjectID{f.wash.ID, f.dry.ID})
	require.NoError(t, err)

	require.Len(t, order.Services, 2)
	assert.Equal(t, f.wash.ID, order.Services[0].ServiceID)
	assert.Equal(t, 3, order.Services[0].Qty)
	assert.Equal(t, f.dry.ID, order.Services[1].ServiceID)
	assert.Equal(t, 2, order.Services[1].Qty)
	assert.Equal(t, 155000.0, order.Subtotal)
	assert.Equal(t, openTime.Add(54*time.Hour), order.EstimatedFinishTime)

	cart := f.carts.byUser[f.user.UserID]
	require.Len(t, cart.Services, 1)
	assert.Equal(t, f.iron.ID, cart.Services[0].ServiceID)
	assert.Len(t, f.notifications.ofType(models.NotificationNewOrder), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrdersCreated.WithLabelValues("cart")))
}

func TestCreateFromCartFailuresKeepCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateFromCart(ctx, f.user, pickupDetails(), []primitive.ObjectID{f.wash.ID})
	assert.ErrorIs(t, err, ErrCartEmpty)

	_, err = f.svc.CreateFromCart(ctx, f.user, pickupDetails(), nil)
	assert.ErrorIs(t, err, ErrNoServicesSelected)

	f.carts.byUser[f.user.UserID] = models.Cart{User: f.user.UserID, Services: []models.CartItem{{ServiceID: f.wash.ID, Qty: 1}}}
	_, err = f.svc.CreateFromCart(ctx, f.user, pickupDetails(), []primitive.ObjectID{f.dry.ID})
	assert.ErrorIs(t, err, ErrNoServicesSelected)

	f.now = time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC) // Sunday
	_, err = f.svc.CreateFromCart(ctx, f.user, pickupDetails(), []primitive.ObjectID{f.wash.ID})
	assert.ErrorIs(t, err, ErrRestDay)

	assert.Len(t, f.carts.byUser[f.user.UserID].Services, 1)
	assert.Empty(t, f.orders.byID)
}
