package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billrun/internal/clock"
	"github.com/smallbiznis/billrun/internal/invoice/domain"
	"github.com/smallbiznis/billrun/internal/invoice/repository"
	"github.com/smallbiznis/billrun/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupInvoiceService(t *testing.T, now time.Time) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Invoice{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(now),
		Repo:  repository.Provide(),
	})
	return svc, conn, node
}

func insertInvoice(t *testing.T, conn *gorm.DB, node *snowflake.Node, status domain.InvoiceStatus) domain.Invoice {
	t.Helper()
	now := time.Now().UTC()
	invoice := domain.Invoice{
		ID:          node.Generate(),
		CustomerID:  node.Generate(),
		AmountMinor: 1500,
		Currency:    "EUR",
		Status:      status,
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, repository.Provide().Insert(context.Background(), conn, &invoice))
	return invoice
}

func TestMarkPaidTransitionsPendingInvoice(t *testing.T) {
	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	svc, conn, node := setupInvoiceService(t, now)

	invoice := insertInvoice(t, conn, node, domain.InvoiceStatusPending)

	require.NoError(t, svc.MarkPaid(context.Background(), invoice.ID))

	item, err := repository.Provide().FindByID(context.Background(), conn, invoice.ID)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, domain.InvoiceStatusPaid, item.Status)
}

func TestMarkPaidIsOneWay(t *testing.T) {
	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	svc, conn, node := setupInvoiceService(t, now)

	invoice := insertInvoice(t, conn, node, domain.InvoiceStatusPending)

	require.NoError(t, svc.MarkPaid(context.Background(), invoice.ID))
	err := svc.MarkPaid(context.Background(), invoice.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)
}

func TestMarkPaidUnknownInvoice(t *testing.T) {
	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	svc, _, node := setupInvoiceService(t, now)

	err := svc.MarkPaid(context.Background(), node.Generate())
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)
}

func TestFetchPendingFiltersPaidInvoices(t *testing.T) {
	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	svc, conn, node := setupInvoiceService(t, now)

	pending := insertInvoice(t, conn, node, domain.InvoiceStatusPending)
	insertInvoice(t, conn, node, domain.InvoiceStatusPaid)

	items, err := svc.FetchPending(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, pending.ID, items[0].ID)
}

func TestGetByIDInvalidID(t *testing.T) {
	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _ := setupInvoiceService(t, now)

	_, err := svc.GetByID(context.Background(), domain.GetInvoiceRequest{ID: "not-a-number"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestGetByIDUnknownInvoice(t *testing.T) {
	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	svc, _, node := setupInvoiceService(t, now)

	_, err := svc.GetByID(context.Background(), domain.GetInvoiceRequest{ID: node.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
