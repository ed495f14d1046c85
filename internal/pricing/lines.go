package pricing

import (
	"math"
	"sort"
)

// Line is one resolved row of a quote breakdown. Amount follows the same
// resolution rules as Compute, so summing all line amounts yields the
// pre-markup subtotal.
type Line struct {
	Kind        string  `json:"kind"`
	RefID       string  `json:"refId,omitempty"`
	Description string  `json:"description"`
	Hours       float64 `json:"hours,omitempty"`
	Amount      Money   `json:"amount"`
}

// Line kinds.
const (
	LineService = "service"
	LinePackage = "package"
	LineCharge  = "charge"
)

// Lines resolves a selection into display rows. Entries that would contribute
// nothing under Compute still appear with a zero amount so the operator can
// see what was selected.
func Lines(sel Selection, cat Catalog) []Line {
	lines := make([]Line, 0, len(sel.ServiceIDs)+len(sel.PackagePrices)+len(sel.Charges))

	for _, id := range sel.ServiceIDs {
		svc, ok := cat[id]
		if !ok {
			continue
		}
		line := Line{Kind: LineService, RefID: id, Description: svc.Name, Amount: serviceContribution(sel, svc)}
		if svc.HasVariants {
			if variantID, chosen := sel.VariantByService[id]; chosen {
				for _, v := range svc.Variants {
					if v.ID == variantID {
						line.Description = svc.Name + " / " + v.Name
						break
					}
				}
			}
		} else if svc.Hourly {
			hours, ok := sel.Hours[id]
			if !ok {
				hours = 1
			}
			if hours < 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
				hours = 0
			}
			line.Hours = hours
		}
		lines = append(lines, line)
	}

	pkgIDs := make([]string, 0, len(sel.PackagePrices))
	for id := range sel.PackagePrices {
		pkgIDs = append(pkgIDs, id)
	}
	sort.Strings(pkgIDs)
	for _, id := range pkgIDs {
		price := sel.PackagePrices[id]
		if price < 0 {
			price = 0
		}
		desc := sel.PackageNames[id]
		if desc == "" {
			desc = "Package"
		}
		lines = append(lines, Line{Kind: LinePackage, RefID: id, Description: desc, Amount: price})
	}

	for _, c := range sel.Charges {
		amount := c.Amount
		if amount < 0 {
			amount = 0
		}
		lines = append(lines, Line{Kind: LineCharge, Description: c.Description, Amount: amount})
	}

	return lines
}
