package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"laundry/internal/apperr"
	"laundry/internal/models"
)

var ErrServiceNotFound = apperr.New(apperr.ErrNotFound, "service not found")

var hundred = decimal.NewFromInt(100)

// Catalog resolves catalog entries by id.
type Catalog interface {
	FindServicesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Service, error)
}

// Quote is the priced view of a set of line items.
type Quote struct {
	Subtotal float64
	Services []models.Service
}

// Calculator prices line items against the current catalog. It never writes.
type Calculator struct {
	catalog Catalog
}

func NewCalculator(catalog Catalog) *Calculator {
	return &Calculator{catalog: catalog}
}

// Quote loads every referenced service and sums price × qty. A single missing
// service fails the whole computation.
func (c *Calculator) Quote(ctx context.Context, items []models.LineItem) (Quote, error) {
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ServiceID)
	}

	found, err := c.catalog.FindServicesByIDs(ctx, ids)
	if err != nil {
		return Quote{}, err
	}

	byID := make(map[primitive.ObjectID]models.Service, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}

	subtotal, err := Subtotal(items, byID)
	if err != nil {
		return Quote{}, err
	}

	services := make([]models.Service, 0, len(items))
	for _, item := range items {
		services = append(services, byID[item.ServiceID])
	}
	return Quote{Subtotal: subtotal, Services: services}, nil
}

// Subtotal returns Σ(price × qty) over the line items.
func Subtotal(items []models.LineItem, services map[primitive.ObjectID]models.Service) (float64, error) {
	total := decimal.Zero
	for _, item := range items {
		service, ok := services[item.ServiceID]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrServiceNotFound, item.ServiceID.Hex())
		}
		line := decimal.NewFromFloat(service.Price).Mul(decimal.NewFromInt(int64(item.Qty)))
		total = total.Add(line)
	}
	return total.InexactFloat64(), nil
}

// ApplyDiscount computes the discount a voucher grants on a subtotal.
//
// An unset or zero maxDiscount caps the discount at discountValue itself, so a
// 10% voucher without maxDiscount yields at most 10. This mirrors the stored
// voucher semantics and is kept until product decides otherwise.
func ApplyDiscount(v models.Voucher, subtotal float64) float64 {
	sub := decimal.NewFromFloat(subtotal)
	if sub.LessThan(decimal.NewFromFloat(v.MinPurchase)) {
		return 0
	}

	value := decimal.NewFromFloat(v.DiscountValue)
	raw := value
	if v.DiscountType == models.DiscountPercentage {
		raw = sub.Mul(value).Div(hundred)
	}

	limit := value
	if v.MaxDiscount != nil && *v.MaxDiscount != 0 {
		limit = decimal.NewFromFloat(*v.MaxDiscount)
	}

	discount := decimal.Min(raw, limit, sub)
	if discount.IsNegative() {
		return 0
	}
	return discount.InexactFloat64()
}

// Total is subtotal − discount + shippingCost.
func Total(subtotal, discount, shippingCost float64) float64 {
	return decimal.NewFromFloat(subtotal).
		Sub(decimal.NewFromFloat(discount)).
		Add(decimal.NewFromFloat(shippingCost)).
		InexactFloat64()
}
