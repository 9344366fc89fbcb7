package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"laundry/internal/models"
	"laundry/internal/voucher"
)

/* =========================
   REQUEST DTOs
========================= */

type createVoucherRequest struct {
	Code               string   `json:"code" binding:"required"`
	Description        string   `json:"description"`
	DiscountType       string   `json:"discountType" binding:"required,oneof=percentage fixed"`
	DiscountValue      float64  `json:"discountValue" binding:"required,gt=0"`
	MaxDiscount        *float64 `json:"maxDiscount" binding:"omitempty,gte=0"`
	MinPurchase        float64  `json:"minPurchase" binding:"gte=0"`
	StartDate          string   `json:"startDate" binding:"required"`
	EndDate            string   `json:"endDate" binding:"required"`
	UsageLimit         *int     `json:"usageLimit"`
	IsActive           *bool    `json:"isActive"`
	ApplicableServices []string `json:"applicableServices"`
	ExcludedServices   []string `json:"excludedServices"`
	Users              []string `json:"users"`
}

// maxDiscount and usageLimit accept null to remove the cap or the limit.
type updateVoucherRequest struct {
	Code               *string           `json:"code"`
	Description        *string           `json:"description"`
	DiscountType       *string           `json:"discountType" binding:"omitempty,oneof=percentage fixed"`
	DiscountValue      *float64          `json:"discountValue" binding:"omitempty,gt=0"`
	MaxDiscount        nullable[float64] `json:"maxDiscount"`
	MinPurchase        *float64          `json:"minPurchase" binding:"omitempty,gte=0"`
	StartDate          *string           `json:"startDate"`
	EndDate            *string           `json:"endDate"`
	UsageLimit         nullable[int]     `json:"usageLimit"`
	IsActive           *bool             `json:"isActive"`
	ApplicableServices *[]string         `json:"applicableServices"`
	ExcludedServices   *[]string         `json:"excludedServices"`
	Users              *[]string         `json:"users"`
}

type validateVoucherRequest struct {
	Code     string             `json:"code" binding:"required"`
	Services []orderItemRequest `json:"services" binding:"required,min=1,dive"`
}

// nullable tells an absent field apart from an explicit null.
type nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// Voucher dates without an offset are wall-clock times in the business zone.
var localDateLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

func parseBusinessDate(raw, field string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range localDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s %q: use YYYY-MM-DD or an RFC 3339 timestamp", field, raw)
}

func (r createVoucherRequest) draft(loc *time.Location) (voucher.Draft, error) {
	start, err := parseBusinessDate(r.StartDate, "startDate", loc)
	if err != nil {
		return voucher.Draft{}, err
	}
	end, err := parseBusinessDate(r.EndDate, "endDate", loc)
	if err != nil {
		return voucher.Draft{}, err
	}
	applicable, err := parseObjectIDs(r.ApplicableServices, "applicableServices")
	if err != nil {
		return voucher.Draft{}, err
	}
	excluded, err := parseObjectIDs(r.ExcludedServices, "excludedServices")
	if err != nil {
		return voucher.Draft{}, err
	}
	users, err := parseObjectIDs(r.Users, "users")
	if err != nil {
		return voucher.Draft{}, err
	}

	return voucher.Draft{
		Code:               r.Code,
		Description:        r.Description,
		DiscountType:       models.DiscountType(r.DiscountType),
		DiscountValue:      r.DiscountValue,
		MaxDiscount:        r.MaxDiscount,
		MinPurchase:        r.MinPurchase,
		StartDate:          start,
		EndDate:            end,
		UsageLimit:         r.UsageLimit,
		IsActive:           r.IsActive,
		ApplicableServices: applicable,
		ExcludedServices:   excluded,
		Users:              users,
	}, nil
}

func (r updateVoucherRequest) patch(loc *time.Location) (voucher.Patch, error) {
	p := voucher.Patch{
		Code:             r.Code,
		Description:      r.Description,
		DiscountValue:    r.DiscountValue,
		MaxDiscount:      r.MaxDiscount.Value,
		ClearMaxDiscount: r.MaxDiscount.Set && r.MaxDiscount.Value == nil,
		MinPurchase:      r.MinPurchase,
		UsageLimit:       r.UsageLimit.Value,
		ClearUsageLimit:  r.UsageLimit.Set && r.UsageLimit.Value == nil,
		IsActive:         r.IsActive,
	}
	if r.DiscountType != nil {
		dt := models.DiscountType(*r.DiscountType)
		p.DiscountType = &dt
	}

	dates := []struct {
		field string
		in    *string
		out   **time.Time
	}{
		{"startDate", r.StartDate, &p.StartDate},
		{"endDate", r.EndDate, &p.EndDate},
	}
	for _, d := range dates {
		if d.in == nil {
			continue
		}
		t, err := parseBusinessDate(*d.in, d.field, loc)
		if err != nil {
			return voucher.Patch{}, err
		}
		*d.out = &t
	}

	lists := []struct {
		field string
		in    *[]string
		out   **[]primitive.ObjectID
	}{
		{"applicableServices", r.ApplicableServices, &p.ApplicableServices},
		{"excludedServices", r.ExcludedServices, &p.ExcludedServices},
		{"users", r.Users, &p.Users},
	}
	for _, l := range lists {
		if l.in == nil {
			continue
		}
		ids, err := parseObjectIDs(*l.in, l.field)
		if err != nil {
			return voucher.Patch{}, err
		}
		*l.out = &ids
	}
	return p, nil
}

/* =========================
   ADMIN
========================= */

// CreateVoucher reads offset-less dates in loc.
func CreateVoucher(svc VoucherService, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /vouchers"
		defer handlePanic(c, route)

		var req createVoucherRequest
		if !bindJSON(c, route, &req) {
			return
		}

		draft, err := req.draft(loc)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		v, err := svc.Create(c.Request.Context(), draft)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "voucher created", "voucher": v})
	}
}

func UpdateVoucher(svc VoucherService, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /vouchers/:id"
		defer handlePanic(c, route)

		id, ok := objectIDParam(c, route, "id")
		if !ok {
			return
		}

		var req updateVoucherRequest
		if !bindJSON(c, route, &req) {
			return
		}

		patch, err := req.patch(loc)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		v, err := svc.Update(c.Request.Context(), id, patch)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "voucher updated", "voucher": v})
	}
}

func DeleteVoucher(svc VoucherService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /vouchers/:id"
		defer handlePanic(c, route)

		id, ok := objectIDParam(c, route, "id")
		if !ok {
			return
		}

		if err := svc.Delete(c.Request.Context(), id); err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "voucher deleted"})
	}
}

func GetVouchers(svc VoucherService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /vouchers"
		defer handlePanic(c, route)

		list, err := svc.List(c.Request.Context())
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": list})
	}
}

/* =========================
   PUBLIC
========================= */

func GetVoucherByCode(svc VoucherService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /vouchers/:code"
		defer handlePanic(c, route)

		v, err := svc.GetByCode(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, v)
	}
}

func ValidateVoucher(svc VoucherService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /vouchers/validate"
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}

		var req validateVoucherRequest
		if !bindJSON(c, route, &req) {
			return
		}

		items, err := toCartItems(req.Services)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		preview, err := svc.PreviewFor(c.Request.Context(), actor, req.Code, items)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, preview)
	}
}
