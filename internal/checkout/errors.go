package checkout

import "errors"

// ErrValidation wraps every failure found before any network call.
var ErrValidation = errors.New("checkout validation failed")

var (
	ErrNoCustomer           = errors.New("no customer")
	ErrNoAddress            = errors.New("no shipping address selected")
	ErrEmptyCart            = errors.New("no cart lines to order")
	ErrMissingProductDetail = errors.New("cart line has no product detail")
	ErrInvalidQuantity      = errors.New("cart line quantity must be positive")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
)
