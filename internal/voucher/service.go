package voucher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"laundry/internal/apperr"
	"laundry/internal/logging"
	"laundry/internal/models"
	"laundry/internal/notify"
	"laundry/internal/pricing"
)

var ErrDuplicateCode = apperr.New(apperr.ErrConflict, "voucher code already exists")

type Store interface {
	InsertVoucher(ctx context.Context, v *models.Voucher) error
	ReplaceVoucher(ctx context.Context, v *models.Voucher) error
	DeleteVoucher(ctx context.Context, id primitive.ObjectID) (models.Voucher, error)
	FindVoucherByID(ctx context.Context, id primitive.ObjectID) (models.Voucher, error)
	FindVoucherByCode(ctx context.Context, code string) (models.Voucher, error)
	ListVouchers(ctx context.Context) ([]models.Voucher, error)
}

type UserDirectory interface {
	FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg notify.Message) error
}

// Draft is a complete voucher definition supplied by an admin.
type Draft struct {
	Code               string
	Description        string
	DiscountType       models.DiscountType
	DiscountValue      float64
	MaxDiscount        *float64
	MinPurchase        float64
	StartDate          time.Time
	EndDate            time.Time
	UsageLimit         *int
	IsActive           *bool
	ApplicableServices []primitive.ObjectID
	ExcludedServices   []primitive.ObjectID
	Users              []primitive.ObjectID
}

// Patch carries the fields an update changes. Nil fields are kept; the Clear
// flags drop the optional cap and limit, and win over a value set alongside.
type Patch struct {
	Code               *string
	Description        *string
	DiscountType       *models.DiscountType
	DiscountValue      *float64
	MaxDiscount        *float64
	MinPurchase        *float64
	StartDate          *time.Time
	EndDate            *time.Time
	UsageLimit         *int
	IsActive           *bool
	ApplicableServices *[]primitive.ObjectID
	ExcludedServices   *[]primitive.ObjectID
	Users              *[]primitive.ObjectID

	ClearMaxDiscount bool
	ClearUsageLimit  bool
}

// Preview is the priced result of checking a voucher against line items.
type Preview struct {
	VoucherID primitive.ObjectID `json:"voucherId"`
	Subtotal  float64            `json:"subtotal"`
	Discount  float64            `json:"discount"`
	Total     float64            `json:"total"`
}

type Service struct {
	store      Store
	users      UserDirectory
	catalog    pricing.Catalog
	calculator *pricing.Calculator
	notifier   Notifier
	clock      func() time.Time
	logger     *zap.Logger
}

func NewService(store Store, users UserDirectory, catalog pricing.Catalog, notifier Notifier, clock func() time.Time, logger *zap.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		users:      users,
		catalog:    catalog,
		calculator: pricing.NewCalculator(catalog),
		notifier:   notifier,
		clock:      func() time.Time { return clock().UTC() },
		logger:     logger.Named("vouchers"),
	}
}

func (s *Service) Create(ctx context.Context, d Draft) (models.Voucher, error) {
	now := s.clock()
	v := models.Voucher{
		Code:               NormalizeCode(d.Code),
		Description:        strings.TrimSpace(d.Description),
		DiscountType:       d.DiscountType,
		DiscountValue:      d.DiscountValue,
		MaxDiscount:        d.MaxDiscount,
		MinPurchase:        d.MinPurchase,
		StartDate:          d.StartDate.UTC(),
		EndDate:            d.EndDate.UTC(),
		UsageLimit:         d.UsageLimit,
		IsActive:           true,
		ApplicableServices: orEmpty(d.ApplicableServices),
		ExcludedServices:   orEmpty(d.ExcludedServices),
		Users:              orEmpty(d.Users),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if d.IsActive != nil {
		v.IsActive = *d.IsActive
	}

	if err := s.check(ctx, v); err != nil {
		return models.Voucher{}, err
	}
	EnforceExpiry(&v, now)

	if err := s.store.InsertVoucher(ctx, &v); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return models.Voucher{}, fmt.Errorf("%w: %s", ErrDuplicateCode, v.Code)
		}
		return models.Voucher{}, err
	}

	s.announce(ctx, v, models.NotificationNewVoucher, fmt.Sprintf("New voucher available: %s", v.Code))
	return v, nil
}

func (s *Service) Update(ctx context.Context, id primitive.ObjectID, p Patch) (models.Voucher, error) {
	v, err := s.store.FindVoucherByID(ctx, id)
	if err != nil {
		return models.Voucher{}, notFound(err, id.Hex())
	}

	if p.Code != nil {
		v.Code = NormalizeCode(*p.Code)
	}
	if p.Description != nil {
		v.Description = strings.TrimSpace(*p.Description)
	}
	if p.DiscountType != nil {
		v.DiscountType = *p.DiscountType
	}
	if p.DiscountValue != nil {
		v.DiscountValue = *p.DiscountValue
	}
	if p.MaxDiscount != nil {
		v.MaxDiscount = p.MaxDiscount
	}
	if p.ClearMaxDiscount {
		v.MaxDiscount = nil
	}
	if p.MinPurchase != nil {
		v.MinPurchase = *p.MinPurchase
	}
	if p.StartDate != nil {
		v.StartDate = p.StartDate.UTC()
	}
	if p.EndDate != nil {
		v.EndDate = p.EndDate.UTC()
	}
	if p.UsageLimit != nil {
		v.UsageLimit = p.UsageLimit
	}
	if p.ClearUsageLimit {
		v.UsageLimit = nil
	}
	if p.IsActive != nil {
		v.IsActive = *p.IsActive
	}
	if p.ApplicableServices != nil {
		v.ApplicableServices = orEmpty(*p.ApplicableServices)
	}
	if p.ExcludedServices != nil {
		v.ExcludedServices = orEmpty(*p.ExcludedServices)
	}
	if p.Users != nil {
		v.Users = orEmpty(*p.Users)
	}

	if err := s.check(ctx, v); err != nil {
		return models.Voucher{}, err
	}
	now := s.clock()
	v.UpdatedAt = now
	EnforceExpiry(&v, now)

	if err := s.store.ReplaceVoucher(ctx, &v); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return models.Voucher{}, fmt.Errorf("%w: %s", ErrDuplicateCode, v.Code)
		}
		return models.Voucher{}, notFound(err, id.Hex())
	}

	s.announce(ctx, v, models.NotificationVoucherUpdated, fmt.Sprintf("Voucher updated: %s", v.Code))
	return v, nil
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	v, err := s.store.DeleteVoucher(ctx, id)
	if err != nil {
		return notFound(err, id.Hex())
	}
	logging.Info(ctx, s.logger, "voucher deleted", zap.String("code", v.Code))
	return nil
}

func (s *Service) List(ctx context.Context) ([]models.Voucher, error) {
	return s.store.ListVouchers(ctx)
}

func (s *Service) GetByCode(ctx context.Context, code string) (models.Voucher, error) {
	code = NormalizeCode(code)
	v, err := s.store.FindVoucherByCode(ctx, code)
	if err != nil {
		return models.Voucher{}, notFound(err, code)
	}
	return v, nil
}

// PreviewFor prices line items with a voucher without redeeming it.
func (s *Service) PreviewFor(ctx context.Context, actor models.Actor, code string, items []models.CartItem) (Preview, error) {
	if len(items) == 0 {
		return Preview{}, fmt.Errorf("%w: at least one service is required", apperr.ErrValidation)
	}
	lineItems := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		if item.Qty < 1 {
			return Preview{}, fmt.Errorf("%w: qty must be at least 1", apperr.ErrValidation)
		}
		lineItems = append(lineItems, models.LineItem{ServiceID: item.ServiceID, Qty: item.Qty})
	}

	v, err := s.GetByCode(ctx, code)
	if err != nil {
		return Preview{}, err
	}
	user := actor.UserID
	if !IsValid(v, &user, s.clock()) {
		return Preview{}, fmt.Errorf("%w: %s", ErrVoucherInvalid, v.Code)
	}

	quote, err := s.calculator.Quote(ctx, lineItems)
	if err != nil {
		return Preview{}, err
	}
	if quote.Subtotal < v.MinPurchase {
		return Preview{}, fmt.Errorf("%w: minimum purchase of %.0f required", ErrMinPurchaseNotMet, v.MinPurchase)
	}

	ids := make([]primitive.ObjectID, 0, len(lineItems))
	for _, item := range lineItems {
		ids = append(ids, item.ServiceID)
	}
	if !IsApplicableToServices(v, ids) || IsExcludedFromServices(v, ids) {
		return Preview{}, fmt.Errorf("%w: %s", ErrVoucherInapplicable, v.Code)
	}

	discount := pricing.ApplyDiscount(v, quote.Subtotal)
	return Preview{
		VoucherID: v.ID,
		Subtotal:  quote.Subtotal,
		Discount:  discount,
		Total:     pricing.Total(quote.Subtotal, discount, 0),
	}, nil
}

func (s *Service) check(ctx context.Context, v models.Voucher) error {
	switch {
	case v.Code == "":
		return fmt.Errorf("%w: code is required", apperr.ErrValidation)
	case v.Description == "":
		return fmt.Errorf("%w: description is required", apperr.ErrValidation)
	case !v.DiscountType.Valid():
		return fmt.Errorf("%w: invalid discount type %q", apperr.ErrValidation, v.DiscountType)
	case v.DiscountValue <= 0:
		return fmt.Errorf("%w: discount value must be positive", apperr.ErrValidation)
	case v.DiscountType == models.DiscountPercentage && v.DiscountValue > 100:
		return fmt.Errorf("%w: percentage discount cannot exceed 100", apperr.ErrValidation)
	case v.MaxDiscount != nil && *v.MaxDiscount < 0:
		return fmt.Errorf("%w: max discount cannot be negative", apperr.ErrValidation)
	case v.MinPurchase < 0:
		return fmt.Errorf("%w: min purchase cannot be negative", apperr.ErrValidation)
	case v.UsageLimit != nil && *v.UsageLimit < 1:
		return fmt.Errorf("%w: usage limit must be at least 1", apperr.ErrValidation)
	case v.StartDate.IsZero() || v.EndDate.IsZero():
		return fmt.Errorf("%w: start and end date are required", apperr.ErrValidation)
	case !v.EndDate.After(v.StartDate):
		return fmt.Errorf("%w: end date must be after start date", apperr.ErrValidation)
	}

	if overlap := intersect(v.ApplicableServices, v.ExcludedServices); len(overlap) > 0 {
		return fmt.Errorf("%w: services cannot be both applicable and excluded: %s", apperr.ErrValidation, joinHex(overlap))
	}
	if err := s.checkServices(ctx, "applicable", v.ApplicableServices); err != nil {
		return err
	}
	if err := s.checkServices(ctx, "excluded", v.ExcludedServices); err != nil {
		return err
	}
	if len(v.Users) > 0 {
		found, err := s.users.FindUsersByIDs(ctx, v.Users)
		if err != nil {
			return err
		}
		ids := make([]primitive.ObjectID, 0, len(found))
		for _, u := range found {
			ids = append(ids, u.ID)
		}
		if missing := difference(v.Users, ids); len(missing) > 0 {
			return fmt.Errorf("%w: invalid users: %s", apperr.ErrValidation, joinHex(missing))
		}
	}
	return nil
}

func (s *Service) checkServices(ctx context.Context, kind string, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.catalog.FindServicesByIDs(ctx, ids)
	if err != nil {
		return err
	}
	have := make([]primitive.ObjectID, 0, len(found))
	for _, svc := range found {
		have = append(have, svc.ID)
	}
	if missing := difference(ids, have); len(missing) > 0 {
		return fmt.Errorf("%w: invalid %s services: %s", apperr.ErrValidation, kind, joinHex(missing))
	}
	return nil
}

func (s *Service) announce(ctx context.Context, v models.Voucher, kind, text string) {
	ref := v.ID
	err := s.notifier.Notify(ctx, notify.Message{
		Type:           kind,
		Text:           text,
		ForRole:        models.RoleUser,
		Recipients:     v.Users,
		RelatedVoucher: &ref,
	})
	if err != nil {
		logging.Error(ctx, s.logger, "voucher notification failed",
			zap.String("code", v.Code), zap.String("type", kind), zap.Error(err))
	}
}

func notFound(err error, key string) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrVoucherNotFound, key)
	}
	return err
}

func orEmpty(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return []primitive.ObjectID{}
	}
	return ids
}

func intersect(a, b []primitive.ObjectID) []primitive.ObjectID {
	var out []primitive.ObjectID
	for _, id := range a {
		if containsAny(b, []primitive.ObjectID{id}) {
			out = append(out, id)
		}
	}
	return out
}

func difference(want, have []primitive.ObjectID) []primitive.ObjectID {
	var out []primitive.ObjectID
	for _, id := range want {
		if !containsAny(have, []primitive.ObjectID{id}) {
			out = append(out, id)
		}
	}
	return out
}

func joinHex(ids []primitive.ObjectID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.Hex())
	}
	return strings.Join(parts, ", ")
}
