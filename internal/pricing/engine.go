package pricing

import "math"

// Money represents a monetary value stored in minor units.
type Money = int64

// DefaultSizeMarkupBps is the surcharge applied to XL vehicles, in basis points.
const DefaultSizeMarkupBps = 3000

// CarSize identifies the vehicle size class of a quote.
type CarSize string

// Supported vehicle size classes.
const (
	SizeM  CarSize = "M"
	SizeXL CarSize = "XL"
)

// Variant is a mutually exclusive priced sub-choice of a service.
type Variant struct {
	ID    string
	Name  string
	Price Money
}

// Service is a single priceable catalog line item.
type Service struct {
	ID          string
	Name        string
	Price       Money
	Hourly      bool
	HasVariants bool
	Variants    []Variant
}

// Catalog is an immutable snapshot of services keyed by id. Lookups the
// snapshot cannot resolve contribute nothing to a quote.
type Catalog map[string]Service

// Charge is a manual line added to a quote after the discount.
type Charge struct {
	Description string
	Amount      Money
}

// Selection captures the transient user choices forming one quote.
type Selection struct {
	// ServiceIDs is the set of selected services. A service with variants
	// only contributes when VariantByService carries a choice for it.
	ServiceIDs []string
	// VariantByService maps a variant-bearing service id to the chosen variant id.
	VariantByService map[string]string
	// Hours maps an hourly service id to decimal hours. Absent entries
	// default to 1; negative or NaN values count as 0.
	Hours map[string]float64
	// PackagePrices maps selected package ids to the price snapshot captured
	// at selection time. Package prices are never recomputed from members.
	PackagePrices map[string]Money
	// PackageNames maps selected package ids to display names for breakdown
	// rows. Ids without a name render as a generic package line.
	PackageNames map[string]string
	CarSize      CarSize
	// DiscountPct is a whole percentage in [0,100]; out-of-range values
	// count as 0.
	DiscountPct int
	Charges     []Charge
}

// Totals aggregates the computed quote components.
type Totals struct {
	Subtotal Money
	Discount Money
	Total    Money
}

// Compute calculates quote totals for a selection against a catalog snapshot.
// It is pure and total: unresolved ids, missing variants, and invalid numeric
// inputs degrade to zero contributions instead of failing.
func Compute(sel Selection, cat Catalog, markupBps int) Totals {
	var subtotal Money
	for _, id := range sel.ServiceIDs {
		svc, ok := cat[id]
		if !ok {
			continue
		}
		subtotal += serviceContribution(sel, svc)
	}
	for _, price := range sel.PackagePrices {
		if price > 0 {
			subtotal += price
		}
	}
	if sel.CarSize == SizeXL && markupBps > 0 {
		subtotal += subtotal * Money(markupBps) / 10000
	}

	pct := sel.DiscountPct
	if pct < 0 || pct > 100 {
		pct = 0
	}
	discount := subtotal * Money(pct) / 100

	var extra Money
	for _, c := range sel.Charges {
		if c.Amount > 0 {
			extra += c.Amount
		}
	}

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal - discount + extra,
	}
}

// serviceContribution resolves one service with fixed priority:
// chosen variant, then hourly rate times hours, then flat price.
func serviceContribution(sel Selection, svc Service) Money {
	if svc.HasVariants {
		variantID, chosen := sel.VariantByService[svc.ID]
		if !chosen {
			return 0
		}
		for _, v := range svc.Variants {
			if v.ID == variantID {
				if v.Price < 0 {
					return 0
				}
				return v.Price
			}
		}
		return 0
	}
	price := svc.Price
	if price < 0 {
		return 0
	}
	if svc.Hourly {
		hours, ok := sel.Hours[svc.ID]
		if !ok {
			hours = 1
		}
		if hours < 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
			hours = 0
		}
		return Money(math.Round(float64(price) * hours))
	}
	return price
}
