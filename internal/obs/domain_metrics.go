package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesComputedTotal counts quote engine invocations by outcome.
	QuotesComputedTotal *prometheus.CounterVec
	// MandatsCreatedTotal counts persisted mandates.
	MandatsCreatedTotal prometheus.Counter
	// MandatStatusTotal counts mandate status transitions by target status.
	MandatStatusTotal *prometheus.CounterVec
	// GeoLookupTotal counts outbound mapping API calls by operation and result.
	GeoLookupTotal *prometheus.CounterVec
	// GeoDistanceCacheTotal counts distance cache lookups by result (hit/miss).
	GeoDistanceCacheTotal *prometheus.CounterVec
	// ActiveSetCacheTotal counts active pricing set cache lookups by result.
	ActiveSetCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesComputedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_computed_total",
			Help:      "Count of quote calculations by outcome.",
		}, []string{"result"})
		MandatsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mandats_created_total",
			Help:      "Number of mandates persisted.",
		})
		MandatStatusTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mandat_status_total",
			Help:      "Count of mandate status transitions by target status.",
		}, []string{"status"})
		GeoLookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geo_lookup_total",
			Help:      "Count of mapping API calls by operation and result.",
		}, []string{"operation", "result"})
		GeoDistanceCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geo_distance_cache_total",
			Help:      "Distance cache lookups by result.",
		}, []string{"result"})
		ActiveSetCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "active_pricing_set_cache_total",
			Help:      "Active pricing set cache lookups by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, QuotesComputedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuotesComputedTotal = v
			}
		})
		mustRegisterCollector(reg, MandatsCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				MandatsCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, MandatStatusTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				MandatStatusTotal = v
			}
		})
		mustRegisterCollector(reg, GeoLookupTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				GeoLookupTotal = v
			}
		})
		mustRegisterCollector(reg, GeoDistanceCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				GeoDistanceCacheTotal = v
			}
		})
		mustRegisterCollector(reg, ActiveSetCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ActiveSetCacheTotal = v
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
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
