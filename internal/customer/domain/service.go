package domain

import (
	"context"
	"errors"
)

type GetCustomerRequest struct {
	ID string
}

type Service interface {
	List(ctx context.Context) ([]Customer, error)
	GetByID(ctx context.Context, req GetCustomerRequest) (Customer, error)
}

var (
	ErrInvalidID = errors.New("invalid_id")
	ErrNotFound  = errors.New("not_found")
)
