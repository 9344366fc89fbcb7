package voucher

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"laundry/internal/apperr"
	"laundry/internal/models"
)

var (
	ErrVoucherNotFound     = apperr.New(apperr.ErrNotFound, "voucher not found")
	ErrVoucherInvalid      = apperr.New(apperr.ErrBusinessRule, "voucher is not valid or has expired")
	ErrVoucherInapplicable = apperr.New(apperr.ErrBusinessRule, "voucher is not applicable for the selected services")
	ErrVoucherExhausted    = apperr.New(apperr.ErrBusinessRule, "voucher usage limit reached")
	ErrMinPurchaseNotMet   = apperr.New(apperr.ErrBusinessRule, "minimum purchase not met")
)

// NormalizeCode trims and upper-cases a voucher code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValid checks the active flag, the date window, the usage limit and user
// eligibility. Dates are instants, so no offset arithmetic is needed here.
func IsValid(v models.Voucher, user *primitive.ObjectID, now time.Time) bool {
	if !v.IsActive {
		return false
	}
	if now.Before(v.StartDate) || now.After(v.EndDate) {
		return false
	}
	if v.UsageLimit != nil && v.UsageCount >= *v.UsageLimit {
		return false
	}
	return IsApplicableToUser(v, user)
}

// IsApplicableToUser is true for vouchers without an eligibility list, or when
// the user is on it. An anonymous caller never qualifies.
func IsApplicableToUser(v models.Voucher, user *primitive.ObjectID) bool {
	if user == nil {
		return false
	}
	if len(v.Users) == 0 {
		return true
	}
	return containsAny(v.Users, []primitive.ObjectID{*user})
}

// IsApplicableToServices is true for an empty allow-list or when at least one
// requested service is on it.
func IsApplicableToServices(v models.Voucher, serviceIDs []primitive.ObjectID) bool {
	if len(v.ApplicableServices) == 0 {
		return true
	}
	return containsAny(v.ApplicableServices, serviceIDs)
}

// IsExcludedFromServices is true when any requested service is on the deny-list.
func IsExcludedFromServices(v models.Voucher, serviceIDs []primitive.ObjectID) bool {
	if len(v.ExcludedServices) == 0 {
		return false
	}
	return containsAny(v.ExcludedServices, serviceIDs)
}

// CheckRedeemable accepts a redemption only when the voucher is valid for the
// user, applicable to the services and not excluded from any of them.
func CheckRedeemable(v models.Voucher, user primitive.ObjectID, serviceIDs []primitive.ObjectID, now time.Time) error {
	if !IsValid(v, &user, now) {
		if v.UsageLimit != nil && v.UsageCount >= *v.UsageLimit {
			return fmt.Errorf("%w: %s", ErrVoucherExhausted, v.Code)
		}
		return fmt.Errorf("%w: %s", ErrVoucherInvalid, v.Code)
	}
	if !IsApplicableToServices(v, serviceIDs) || IsExcludedFromServices(v, serviceIDs) {
		return fmt.Errorf("%w: %s", ErrVoucherInapplicable, v.Code)
	}
	return nil
}

// EnforceExpiry deactivates a voucher whose end date has passed. Stores call it
// before every write of a voucher document.
func EnforceExpiry(v *models.Voucher, now time.Time) {
	if v.EndDate.Before(now) {
		v.IsActive = false
	}
}

func containsAny(set, candidates []primitive.ObjectID) bool {
	lookup := make(map[primitive.ObjectID]struct{}, len(set))
	for _, id := range set {
		lookup[id] = struct{}{}
	}
	for _, id := range candidates {
		if _, ok := lookup[id]; ok {
			return true
		}
	}
	return false
}
