package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrInternal        = errors.New("internal server error")
	ErrUnknownRoute    = errors.New("unknown event route")
	ErrMessageParse    = errors.New("message parse error")
	ErrHandler         = errors.New("handler error")
	ErrChannelNotReady = errors.New("broker channel not ready")

	// ErrBrokerUnavailable is returned once every connect attempt has failed.
	ErrBrokerUnavailable = errors.New("broker unavailable")

	// ErrTopologyMismatch means a queue or exchange already exists with
	// different properties. Retrying cannot fix it.
	ErrTopologyMismatch = errors.New("broker topology mismatch")

	ErrStockInsufficient = fmt.Errorf("%w: insufficient stock", ErrValidation)
)
