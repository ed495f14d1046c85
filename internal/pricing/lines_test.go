package pricing

import (
	"math"
	"testing"
)

func TestLinesFollowSelectionOrder(t *testing.T) {
	sel := Selection{
		ServiceIDs: []string{"ceramic", "wax"},
		VariantByService: map[string]string{
			"ceramic": "ceramic-3y",
		},
	}
	got := Lines(sel, testCatalog())
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	if got[0].Description != "Ceramic coat / 3 years" || got[0].Amount != 5000 {
		t.Fatalf("unexpected variant line %+v", got[0])
	}
	if got[1].RefID != "wax" || got[1].Amount != 1000 {
		t.Fatalf("unexpected flat line %+v", got[1])
	}
}

func TestLinesVariantWithoutChoiceShowsZero(t *testing.T) {
	got := Lines(Selection{ServiceIDs: []string{"ceramic"}}, testCatalog())
	if len(got) != 1 {
		t.Fatalf("expected 1 line, got %d", len(got))
	}
	if got[0].Amount != 0 || got[0].Description != "Ceramic coat" {
		t.Fatalf("unexpected line %+v", got[0])
	}
}

func TestLinesHourlyCarriesHours(t *testing.T) {
	sel := Selection{
		ServiceIDs: []string{"polish"},
		Hours:      map[string]float64{"polish": 2.5},
	}
	got := Lines(sel, testCatalog())
	if got[0].Hours != 2.5 || got[0].Amount != 1250 {
		t.Fatalf("unexpected hourly line %+v", got[0])
	}
}

func TestLinesHourlyInvalidHoursZeroed(t *testing.T) {
	sel := Selection{
		ServiceIDs: []string{"polish"},
		Hours:      map[string]float64{"polish": math.NaN()},
	}
	got := Lines(sel, testCatalog())
	if got[0].Hours != 0 || got[0].Amount != 0 {
		t.Fatalf("expected zeroed line, got %+v", got[0])
	}
}

func TestLinesPackagesSortedAndChargesLast(t *testing.T) {
	sel := Selection{
		ServiceIDs:    []string{"wax"},
		PackagePrices: map[string]Money{"pkg-b": 2000, "pkg-a": 1500},
		Charges:       []Charge{{Description: "Stain removal", Amount: 300}},
	}
	got := Lines(sel, testCatalog())
	if len(got) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(got))
	}
	if got[1].RefID != "pkg-a" || got[2].RefID != "pkg-b" {
		t.Fatalf("packages not sorted by id: %+v", got[1:3])
	}
	if got[3].Kind != LineCharge || got[3].Amount != 300 {
		t.Fatalf("unexpected charge line %+v", got[3])
	}
}

func TestLinesResolvePackageNames(t *testing.T) {
	sel := Selection{
		PackagePrices: map[string]Money{"pkg-a": 1500, "pkg-b": 2000},
		PackageNames:  map[string]string{"pkg-a": "Fresh Start"},
	}
	got := Lines(sel, testCatalog())
	if got[0].Description != "Fresh Start" {
		t.Fatalf("expected package name, got %+v", got[0])
	}
	if got[1].Description != "Package" {
		t.Fatalf("expected fallback label, got %+v", got[1])
	}
}

func TestLinesSumMatchesPreMarkupSubtotal(t *testing.T) {
	sel := Selection{
		ServiceIDs:       []string{"wax", "polish", "ceramic"},
		VariantByService: map[string]string{"ceramic": "ceramic-1y"},
		Hours:            map[string]float64{"polish": 3},
		PackagePrices:    map[string]Money{"pkg": 4000},
	}
	cat := testCatalog()
	var sum Money
	for _, line := range Lines(sel, cat) {
		sum += line.Amount
	}
	totals := Compute(sel, cat, 0)
	if sum != totals.Subtotal {
		t.Fatalf("line sum %d != subtotal %d", sum, totals.Subtotal)
	}
}
