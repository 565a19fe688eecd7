package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/billrun/internal/billingcycle/domain"
	"github.com/smallbiznis/billrun/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FetchCurrent(ctx context.Context, conn *gorm.DB, now time.Time) (*domain.BillingCycle, error) {
	// Prefer the most recent overdue unfulfilled cycle; a missed cycle
	// stays current until it is processed, even across restarts.
	var cycle domain.BillingCycle
	err := conn.WithContext(ctx).Raw(
		`SELECT id, scheduled_on, scheduled_for, fulfilled_on
		 FROM billing_cycles
		 WHERE fulfilled_on IS NULL AND scheduled_for <= ?
		 ORDER BY scheduled_for DESC
		 LIMIT 1`,
		now,
	).Scan(&cycle).Error
	if err != nil {
		return nil, err
	}
	if cycle.ID != 0 {
		return &cycle, nil
	}

	err = conn.WithContext(ctx).Raw(
		`SELECT id, scheduled_on, scheduled_for, fulfilled_on
		 FROM billing_cycles
		 WHERE fulfilled_on IS NULL AND scheduled_for > ?
		 ORDER BY scheduled_for ASC
		 LIMIT 1`,
		now,
	).Scan(&cycle).Error
	if err != nil {
		return nil, err
	}
	if cycle.ID == 0 {
		return nil, nil
	}
	return &cycle, nil
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, cycle *domain.BillingCycle) error {
	err := conn.WithContext(ctx).Exec(
		`INSERT INTO billing_cycles (id, scheduled_on, scheduled_for, fulfilled_on)
		 VALUES (?, ?, ?, NULL)`,
		cycle.ID,
		cycle.ScheduledOn,
		cycle.ScheduledFor,
	).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrCycleExists
	}
	return err
}

func (r *repo) FinalizeForDate(ctx context.Context, conn *gorm.DB, scheduledFor, fulfilledOn time.Time) (bool, error) {
	res := conn.WithContext(ctx).Exec(
		`UPDATE billing_cycles SET fulfilled_on = ?
		 WHERE scheduled_for = ? AND fulfilled_on IS NULL`,
		fulfilledOn,
		scheduledFor,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FetchLatest(ctx context.Context, conn *gorm.DB) (*domain.BillingCycle, error) {
	var cycle domain.BillingCycle
	err := conn.WithContext(ctx).Raw(
		`SELECT id, scheduled_on, scheduled_for, fulfilled_on
		 FROM billing_cycles
		 ORDER BY scheduled_for DESC
		 LIMIT 1`,
	).Scan(&cycle).Error
	if err != nil {
		return nil, err
	}
	if cycle.ID == 0 {
		return nil, nil
	}
	return &cycle, nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB) ([]*domain.BillingCycle, error) {
	var cycles []*domain.BillingCycle
	err := conn.WithContext(ctx).
		Model(&domain.BillingCycle{}).
		Order("scheduled_for asc").
		Find(&cycles).Error
	if err != nil {
		return nil, err
	}
	return cycles, nil
}
