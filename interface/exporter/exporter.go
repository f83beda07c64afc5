package exporter

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"

	"supplypool/domain"
)

const (
	METRIC_OPERATION_COUNT        = "operation_count"
	METRIC_ERROR_COUNT            = "error_count"
	METRIC_ROLLBACK_FAILURE_COUNT = "rollback_failure_count"

	METRIC_TOTAL_SHARES    = "total_shares"
	METRIC_TOTAL_LOCKED    = "total_locked_underlying"
	METRIC_TOTAL_EARNINGS  = "total_earnings"
	METRIC_CURRENT_EARNING = "current_earning"
	METRIC_VENUE_BALANCE   = "venue_balance"
)

// Exporter keeps the pool metrics. A nil *Exporter is valid and records nothing.
type Exporter struct {
	operations       *prometheus.CounterVec
	errors           *prometheus.CounterVec
	rollbackFailures prometheus.Counter
	gauges           map[string]prometheus.Gauge
}

func NewExporter(registerer prometheus.Registerer) *Exporter {
	exp := &Exporter{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supplypool",
			Subsystem: "ledger",
			Name:      METRIC_OPERATION_COUNT,
			Help:      "Counts the number of successful ledger operations",
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supplypool",
			Subsystem: "ledger",
			Name:      METRIC_ERROR_COUNT,
			Help:      "Counts the number of rejected ledger operations",
		}, []string{"operation"}),
		rollbackFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "supplypool",
			Subsystem: "ledger",
			Name:      METRIC_ROLLBACK_FAILURE_COUNT,
			Help:      "Counts the failed operations whose compensation did not complete",
		}),
		gauges: make(map[string]prometheus.Gauge),
	}
	registerer.MustRegister(exp.operations, exp.errors, exp.rollbackFailures)

	// --- Pool figures, in base units of the asset
	for _, name := range []string{METRIC_TOTAL_SHARES, METRIC_TOTAL_LOCKED, METRIC_TOTAL_EARNINGS, METRIC_CURRENT_EARNING, METRIC_VENUE_BALANCE} {
		gauge := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "supplypool",
			Subsystem: "pool",
			Name:      name,
			Help:      "Pool figure " + name,
		})
		registerer.MustRegister(gauge)
		exp.gauges[name] = gauge
	}
	return exp
}

func (exp *Exporter) GetGauge(name string) prometheus.Gauge {
	if exp == nil {
		return nil
	}
	return exp.gauges[name]
}

func (exp *Exporter) IncOperationCount(operation string) {
	if exp == nil {
		return
	}
	exp.operations.WithLabelValues(operation).Inc()
}

func (exp *Exporter) IncErrorCount(operation string) {
	if exp == nil {
		return
	}
	exp.errors.WithLabelValues(operation).Inc()
}

func (exp *Exporter) IncRollbackFailureCount() {
	if exp == nil {
		return
	}
	exp.rollbackFailures.Inc()
}

func (exp *Exporter) SetTotals(totals domain.PoolTotals) {
	if exp == nil {
		return
	}
	exp.gauges[METRIC_TOTAL_SHARES].Set(toFloat(totals.TotalShares))
	exp.gauges[METRIC_TOTAL_LOCKED].Set(toFloat(totals.TotalLocked))
	exp.gauges[METRIC_TOTAL_EARNINGS].Set(toFloat(totals.TotalEarnings))
}

func (exp *Exporter) SetStatistic(stat *domain.StatisticResult) {
	if exp == nil || stat == nil {
		return
	}
	exp.SetTotals(domain.PoolTotals{
		TotalShares:   stat.TotalShares,
		TotalLocked:   stat.TotalLocked,
		TotalEarnings: stat.TotalEarnings,
	})
	exp.gauges[METRIC_CURRENT_EARNING].Set(toFloat(stat.CurrentEarning))
	exp.gauges[METRIC_VENUE_BALANCE].Set(toFloat(stat.VenueBalance))
}

// Gauges are float64, large amounts lose precision.
func toFloat(amount sdkmath.Uint) float64 {
	if amount.IsNil() {
		return 0
	}
	f, _ := new(big.Float).SetInt(amount.BigInt()).Float64()
	return f
}
