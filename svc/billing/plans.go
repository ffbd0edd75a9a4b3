package billing

import "github.com/chatloom/chatloom/pkg/billing"

// DefaultPlans is the built-in chatloom plan set, used when no catalog
// file is configured. Price IDs must match the Stripe dashboard.
func DefaultPlans() billing.CatalogSource {
	return billing.NewStaticSource(
		billing.Plan{
			PriceID:     "price_starter",
			Name:        "Starter",
			Description: "For trying things out",
			Credits:     10000,
			Price:       billing.Money{Amount: 900, Currency: "USD"},
			Interval:    billing.IntervalMonthly,
			Public:      true,
		},
		billing.Plan{
			PriceID:     "price_pro",
			Name:        "Professional",
			Description: "For daily use",
			Credits:     50000,
			Price:       billing.Money{Amount: 4900, Currency: "USD"},
			Interval:    billing.IntervalMonthly,
			Public:      true,
		},
		billing.Plan{
			PriceID:     "price_enterprise",
			Name:        "Enterprise",
			Description: "For teams with heavy workloads",
			Credits:     250000,
			Price:       billing.Money{Amount: 19900, Currency: "USD"},
			Interval:    billing.IntervalMonthly,
			Public:      true,
		},
	)
}
