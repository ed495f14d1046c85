package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotePreviewTotal counts price preview computations by outcome.
	QuotePreviewTotal *prometheus.CounterVec
	// QuoteSavedTotal counts saved quote snapshots.
	QuoteSavedTotal prometheus.Counter
	// OrderMoveTotal counts reorder actions by scope and outcome.
	OrderMoveTotal *prometheus.CounterVec
	// VoucherRedeemTotal counts voucher redemption attempts by outcome.
	VoucherRedeemTotal *prometheus.CounterVec
	// CatalogCacheTotal counts catalog cache lookups by result.
	CatalogCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotePreviewTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_preview_total",
			Help:      "Count of quote preview computations by outcome.",
		}, []string{"result"})
		QuoteSavedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_saved_total",
			Help:      "Count of quote snapshots saved.",
		})
		OrderMoveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_move_total",
			Help:      "Count of catalog reorder actions by scope and outcome.",
		}, []string{"scope", "result"})
		VoucherRedeemTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voucher_redeem_total",
			Help:      "Count of voucher redemption attempts by outcome.",
		}, []string{"result"})
		CatalogCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_total",
			Help:      "Count of catalog cache lookups by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, QuotePreviewTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuotePreviewTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteSavedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				QuoteSavedTotal = v
			}
		})
		mustRegisterCollector(reg, OrderMoveTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderMoveTotal = v
			}
		})
		mustRegisterCollector(reg, VoucherRedeemTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				VoucherRedeemTotal = v
			}
		})
		mustRegisterCollector(reg, CatalogCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CatalogCacheTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register collector: %w", err))
	}
}
