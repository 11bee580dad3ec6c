package service

import (
	"context"
	"strconv"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/repository"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultDecimalPrecision applies when a business has no
// decimal_precision config row.
const DefaultDecimalPrecision = 2

// ReferenceContext is the read-only configuration snapshot passed into cost
// and reconciliation operations. It is rebuilt per request; nothing in the
// domain services reads configuration through a global.
type ReferenceContext struct {
	BusinessID       uuid.UUID
	DecimalPrecision int32
	CostCurrency     string
	ExchangeRates    map[string]decimal.Decimal
	ActiveCycleID    *uuid.UUID
}

// Rate returns the exchange rate for a currency code, 1 for the cost
// currency or unknown codes.
func (rc ReferenceContext) Rate(code string) decimal.Decimal {
	if code == "" || code == rc.CostCurrency {
		return decimal.NewFromInt(1)
	}
	if rate, ok := rc.ExchangeRates[code]; ok {
		return rate
	}
	return decimal.NewFromInt(1)
}

// ReferenceService builds ReferenceContext snapshots from the business
// configuration store.
type ReferenceService interface {
	BuildContext(ctx context.Context, businessID uuid.UUID) (ReferenceContext, error)
}

type referenceService struct {
	referenceRepo repository.ReferenceRepository
}

func NewReferenceService(referenceRepo repository.ReferenceRepository) ReferenceService {
	return &referenceService{referenceRepo: referenceRepo}
}

func (s *referenceService) BuildContext(ctx context.Context, businessID uuid.UUID) (ReferenceContext, error) {
	rc := ReferenceContext{
		BusinessID:       businessID,
		DecimalPrecision: DefaultDecimalPrecision,
		ExchangeRates:    map[string]decimal.Decimal{},
	}

	configs, err := s.referenceRepo.ListConfigs(ctx, businessID)
	if err != nil {
		return ReferenceContext{}, apperror.Internal("failed to load business configuration", err)
	}
	for _, cfg := range configs {
		switch cfg.Key {
		case model.ConfigDecimalPrecision:
			if p, convErr := strconv.Atoi(cfg.Value); convErr == nil && p >= 0 && p <= 8 {
				rc.DecimalPrecision = int32(p)
			}
		case model.ConfigCostCurrency:
			rc.CostCurrency = cfg.Value
		}
	}

	rates, err := s.referenceRepo.ListCurrencyRates(ctx, businessID)
	if err != nil {
		return ReferenceContext{}, apperror.Internal("failed to load currency rates", err)
	}
	for _, rate := range rates {
		rc.ExchangeRates[rate.Code] = rate.ExchangeRate
	}

	if cycle, err := s.referenceRepo.FindActiveCycle(ctx, businessID); err == nil {
		id := cycle.ID
		rc.ActiveCycleID = &id
	}

	return rc, nil
}
