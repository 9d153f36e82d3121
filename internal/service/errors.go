package service

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrUnauthorizedOrder = errors.New("order does not belong to the requesting user")
	ErrPaymentProvider   = errors.New("payment provider failed to create a checkout session")
	ErrCartNotCleared    = errors.New("order was placed but the cart could not be cleared")
)
