package invoice

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/vacek-detailing/studio-api/internal/catalog"
	"github.com/vacek-detailing/studio-api/internal/pricing"
	"github.com/vacek-detailing/studio-api/internal/quote"
)

//go:embed templates/*.html
var templateFS embed.FS

// Studio identifies the business on printed documents.
type Studio struct {
	Name    string
	Address string
}

// Renderer produces printable HTML documents from quotes and the catalog.
type Renderer struct {
	studio    Studio
	templates *template.Template
}

// NewRenderer parses the embedded templates once at startup.
func NewRenderer(studio Studio) (*Renderer, error) {
	tpl, err := template.New("invoice").Funcs(template.FuncMap{
		"money": FormatMoney,
		"hours": formatHours,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse invoice templates: %w", err)
	}
	return &Renderer{studio: studio, templates: tpl}, nil
}

type invoiceData struct {
	Studio Studio
	Quote  quote.Saved
	// Surcharge is the vehicle-size markup portion of the subtotal, shown as
	// its own row so the listed amounts add up to the subtotal.
	Surcharge pricing.Money
	IssuedAt  time.Time
}

// RenderInvoice writes a printable invoice for one saved quote.
func (r *Renderer) RenderInvoice(w io.Writer, saved quote.Saved) error {
	var lineSum pricing.Money
	for _, line := range saved.Result.Lines {
		lineSum += line.Amount
	}
	surcharge := saved.Result.Subtotal - lineSum
	if surcharge < 0 {
		surcharge = 0
	}
	data := invoiceData{Studio: r.studio, Quote: saved, Surcharge: surcharge, IssuedAt: time.Now()}
	return r.templates.ExecuteTemplate(w, "invoice.html", data)
}

type priceListData struct {
	Studio     Studio
	Categories []catalog.CategoryGroup
	Packages   []catalog.PackageItem
	IssuedAt   time.Time
}

// RenderPriceList writes the printable public price list.
func (r *Renderer) RenderPriceList(w io.Writer, categories []catalog.CategoryGroup, packages []catalog.PackageItem) error {
	data := priceListData{Studio: r.studio, Categories: categories, Packages: packages, IssuedAt: time.Now()}
	return r.templates.ExecuteTemplate(w, "pricelist.html", data)
}

// FormatMoney renders minor units with two decimals, e.g. 130050 -> "1300.50".
func FormatMoney(v pricing.Money) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func formatHours(h float64) string {
	if h == 0 {
		return ""
	}
	return fmt.Sprintf("%.2g h", h)
}
