package service

import (
	"errors"
	"fmt"

	"github.com/amanshu0143/backend/internal/pricing"
	"github.com/amanshu0143/backend/internal/repository"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrIntegrity         = errors.New("order hash does not match its contents")
	ErrStorage           = errors.New("storage failure")
	ErrEmptyCart         = pricing.ErrEmptyCart
	ErrProductLookup     = pricing.ErrProductLookup
	ErrProductNotFound   = repository.ErrProductNotFound
	ErrAlreadySubscribed = repository.ErrAlreadySubscribed
)

// Validation failures. Each one is also an ErrInvalidRequest.
var (
	ErrCartRequired    = fmt.Errorf("%w: cart items are required", ErrInvalidRequest)
	ErrAddressRequired = fmt.Errorf("%w: address details are required", ErrInvalidRequest)
	ErrEmailRequired   = fmt.Errorf("%w: email is required", ErrInvalidRequest)
	ErrEmailInvalid    = fmt.Errorf("%w: email is not valid", ErrInvalidRequest)
	ErrProductRequired = fmt.Errorf("%w: product code and size are required", ErrInvalidRequest)
)
