package billing

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Money is an amount in the smallest currency unit ($49 -> 4900 "USD").
type Money struct {
	Amount   int64  `yaml:"amount"`
	Currency string `yaml:"currency"`
}

// BillingInterval is the renewal frequency of a plan.
type BillingInterval string

const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalAnnual  BillingInterval = "annual"
)

// Plan describes one subscription tier. PriceID must match the provider's
// price object so webhook events map back to a tier directly.
type Plan struct {
	PriceID     string          `yaml:"price_id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Credits     int64           `yaml:"credits"` // per-period quota granted while active
	Price       Money           `yaml:"price"`
	Interval    BillingInterval `yaml:"interval"`
	Public      bool            `yaml:"public"` // listed on the pricing page
}

// CatalogSource loads the plan set at startup.
type CatalogSource interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

// Catalog is the closed price-to-plan mapping consulted by reconciliation.
// It is immutable after construction and safe for concurrent use.
type Catalog struct {
	plans map[string]Plan
}

// NewCatalog loads and validates plans from src.
func NewCatalog(ctx context.Context, src CatalogSource) (*Catalog, error) {
	if src == nil {
		panic("billing: CatalogSource is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if len(plans) == 0 {
		return nil, errors.Join(ErrInvalidPlanConfiguration, errors.New("catalog is empty"))
	}

	for priceID, plan := range plans {
		if plan.PriceID != priceID {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("price ID mismatch: map key %s != plan.PriceID %s", priceID, plan.PriceID))
		}
		if plan.Credits < 0 {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has negative credits: %d", priceID, plan.Credits))
		}
	}

	return &Catalog{plans: plans}, nil
}

// CreditsFor returns the credit allotment for a price ID. Unknown price IDs
// yield zero: the mapping is closed over known tiers.
func (c *Catalog) CreditsFor(priceID string) int64 {
	return c.plans[priceID].Credits
}

// Plan returns the tier for a price ID.
func (c *Catalog) Plan(priceID string) (Plan, bool) {
	p, ok := c.plans[priceID]
	return p, ok
}

// Public returns the externally listed plans, cheapest first.
func (c *Catalog) Public() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		if p.Public {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Plan) int {
		switch {
		case a.Price.Amount < b.Price.Amount:
			return -1
		case a.Price.Amount > b.Price.Amount:
			return 1
		default:
			return 0
		}
	})
	return out
}
