package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billrun/internal/clock"
	"github.com/smallbiznis/billrun/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Invoice, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return dereference(items), nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetInvoiceRequest) (domain.Invoice, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.Invoice{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if item == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) FetchPending(ctx context.Context) ([]domain.Invoice, error) {
	items, err := s.repo.FetchPending(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return dereference(items), nil
}

func (s *Service) MarkPaid(ctx context.Context, id snowflake.ID) error {
	updated, err := s.repo.UpdateStatus(ctx, s.db, id, domain.InvoiceStatusPending, domain.InvoiceStatusPaid, s.clock.Now())
	if err != nil {
		return err
	}
	if !updated {
		// Already PAID, or the invoice vanished. Either way the one-way
		// transition rule holds and the write is not repeated.
		s.log.Debug("invoice status write skipped", zap.String("invoice_id", id.String()))
		return domain.ErrAlreadySettled
	}
	return nil
}

func dereference(items []*domain.Invoice) []domain.Invoice {
	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}
	return invoices
}
