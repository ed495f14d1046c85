package invoice

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vacek-detailing/studio-api/internal/catalog"
	"github.com/vacek-detailing/studio-api/internal/pricing"
	"github.com/vacek-detailing/studio-api/internal/quote"
)

func TestFormatMoney(t *testing.T) {
	require.Equal(t, "0.00", FormatMoney(0))
	require.Equal(t, "0.05", FormatMoney(5))
	require.Equal(t, "20.00", FormatMoney(2000))
	require.Equal(t, "1300.50", FormatMoney(130050))
	require.Equal(t, "-13.00", FormatMoney(-1300))
}

func TestRenderInvoice(t *testing.T) {
	r, err := NewRenderer(Studio{Name: "Vacek Detailing", Address: "Prumyslova 12, Brno"})
	require.NoError(t, err)

	saved := quote.Saved{
		ID:    "q-1",
		Label: "Mr. Novak, Octavia",
		Result: quote.Result{
			Lines: []pricing.Line{
				{Kind: pricing.LineService, RefID: "wash", Description: "Hand wash", Amount: 2000},
				{Kind: pricing.LineService, RefID: "odour", Description: "Ozone odour removal", Hours: 2, Amount: 3000},
				{Kind: pricing.LineCharge, Description: "Pet hair", Amount: 500},
			},
			Subtotal: 5000,
			Discount: 500,
			Total:    5000,
		},
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, r.RenderInvoice(&buf, saved))

	out := buf.String()
	require.Contains(t, out, "Vacek Detailing")
	require.Contains(t, out, "Mr. Novak, Octavia")
	require.Contains(t, out, "Hand wash")
	require.Contains(t, out, "20.00")
	require.Contains(t, out, "2 h")
	require.Contains(t, out, "50.00")
	require.NotContains(t, out, "Size surcharge")
}

func TestRenderInvoiceShowsSizeSurcharge(t *testing.T) {
	r, err := NewRenderer(Studio{Name: "Vacek Detailing"})
	require.NoError(t, err)

	saved := quote.Saved{
		ID:        "q-2",
		Label:     "Ms. Dvorak, Kodiaq",
		Selection: quote.Selection{CarSize: "XL"},
		Result: quote.Result{
			Lines: []pricing.Line{
				{Kind: pricing.LineService, RefID: "wash", Description: "Hand wash", Amount: 1000},
			},
			Subtotal: 1300,
			Total:    1300,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, r.RenderInvoice(&buf, saved))

	// the surcharge row closes the gap between the line sum and the subtotal
	out := buf.String()
	require.Contains(t, out, "Size surcharge (XL)")
	require.Contains(t, out, ">3.00<")
	require.Contains(t, out, ">13.00<")
}

func TestRenderPriceList(t *testing.T) {
	r, err := NewRenderer(Studio{Name: "Vacek Detailing"})
	require.NoError(t, err)

	categories := []catalog.CategoryGroup{
		{
			Key: "exterior",
			Subcategories: []catalog.SubcategoryGroup{
				{
					Name: "wash",
					Services: []catalog.ServiceItem{
						{ID: "a", Name: "Hand wash", Price: 2000},
						{ID: "b", Name: "Machine polish", HasVariants: true, Variants: []catalog.VariantItem{
							{ID: "v1", Name: "One-step", Price: 25000},
						}},
					},
				},
			},
		},
	}
	packages := []catalog.PackageItem{
		{ID: "p1", Name: "Fresh Start", Price: 15000, MembersSum: 20000, DiscountPct: 25},
	}

	var buf bytes.Buffer
	require.NoError(t, r.RenderPriceList(&buf, categories, packages))

	out := buf.String()
	require.Contains(t, out, "Hand wash")
	require.Contains(t, out, "One-step")
	require.Contains(t, out, "250.00")
	require.Contains(t, out, "Fresh Start")
	require.Contains(t, out, "25%")
}
