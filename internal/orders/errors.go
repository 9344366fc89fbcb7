package orders

import "laundry/internal/apperr"

var (
	ErrOrderNotFound         = apperr.New(apperr.ErrNotFound, "order not found")
	ErrDuplicateOrderID      = apperr.New(apperr.ErrConflict, "order id already exists")
	ErrRestDay               = apperr.New(apperr.ErrBusinessRule, "orders cannot be placed on Sundays")
	ErrOutsideOperatingHours = apperr.New(apperr.ErrBusinessRule, "orders can only be placed between 09:00 and 17:00")
	ErrInvalidTransition     = apperr.New(apperr.ErrBusinessRule, "invalid status transition")
	ErrNotCOD                = apperr.New(apperr.ErrBusinessRule, "payment status can only be updated for COD orders")
	ErrServiceNotInOrder     = apperr.New(apperr.ErrNotFound, "service not found in this order")
	ErrCartEmpty             = apperr.New(apperr.ErrValidation, "cart is empty")
	ErrNoServicesSelected    = apperr.New(apperr.ErrValidation, "no services selected for order")
	ErrNotOrderOwner         = apperr.New(apperr.ErrForbidden, "not authorized for this order")
)
