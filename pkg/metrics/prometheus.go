package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"WalletPnL/internal/domain/models"
)

// Recorder implements domain/repository.Metrics using Prometheus.
type Recorder struct {
	providerPages    *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	providerOutcomes *prometheus.CounterVec
	metadataLookups  *prometheus.CounterVec
	metadataIDs      *prometheus.CounterVec
	priceLookups     *prometheus.CounterVec
	trades           *prometheus.CounterVec
	runs             *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	sinkDeliveries   *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		providerPages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletpnl",
			Name:      "provider_pages_total",
			Help:      "Provider page fetches by outcome",
		}, []string{"provider", "chain", "outcome"}),
		providerLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "walletpnl",
			Name:      "provider_page_duration_seconds",
			Help:      "Latency of one provider page fetch",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}, []string{"provider"}),
		providerOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletpnl",
			Name:      "provider_fetch_total",
			Help:      "Whole-provider fetch results (ok, empty, partial, unavailable)",
		}, []string{"provider", "chain", "outcome"}),
		metadataLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletpnl",
			Name:      "metadata_lookups_total",
			Help:      "Token metadata batch lookups by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		metadataIDs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletpnl",
			Name:      "metadata_ids_total",
			Help:      "Token ids sent to each metadata strategy",
		}, []string{"strategy"}),
		priceLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletpnl",
			Name:      "price_lookups_total",
			Help:      "Price history window lookups by outcome",
		}, []string{"source", "outcome"}),
		trades: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletpnl",
			Name:      "trades_total",
			Help:      "Classified trades by kind (buy, sell, approximate, placeholder, stable, dropped)",
		}, []string{"chain", "kind"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletpnl",
			Name:      "runs_total",
			Help:      "Wallet runs by outcome",
		}, []string{"chain", "outcome"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "walletpnl",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a wallet run",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"chain"}),
		sinkDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletpnl",
			Name:      "sink_deliveries_total",
			Help:      "Summary deliveries to kafka/clickhouse by outcome",
		}, []string{"backend", "outcome"}),
	}
}

func (r *Recorder) ProviderPage(provider string, chain models.Chain, outcome string, seconds float64) {
	r.providerPages.WithLabelValues(provider, string(chain), outcome).Inc()
	r.providerLatency.WithLabelValues(provider).Observe(seconds)
}

func (r *Recorder) ProviderOutcome(provider string, chain models.Chain, outcome string) {
	r.providerOutcomes.WithLabelValues(provider, string(chain), outcome).Inc()
}

func (r *Recorder) MetadataLookup(strategy, outcome string, ids int) {
	r.metadataLookups.WithLabelValues(strategy, outcome).Inc()
	r.metadataIDs.WithLabelValues(strategy).Add(float64(ids))
}

func (r *Recorder) PriceLookup(source, outcome string) {
	r.priceLookups.WithLabelValues(source, outcome).Inc()
}

func (r *Recorder) TradesClassified(chain models.Chain, kind string, n int) {
	if n <= 0 {
		return
	}
	r.trades.WithLabelValues(string(chain), kind).Add(float64(n))
}

func (r *Recorder) RunCompleted(chain string, outcome string, seconds float64) {
	r.runs.WithLabelValues(chain, outcome).Inc()
	r.runDuration.WithLabelValues(chain).Observe(seconds)
}

func (r *Recorder) SinkDelivery(backend, outcome string) {
	r.sinkDeliveries.WithLabelValues(backend, outcome).Inc()
}

// Nop discards everything; handy for tests and one-shot CLI runs.
type Nop struct{}

func (Nop) ProviderPage(string, models.Chain, string, float64) {}
func (Nop) ProviderOutcome(string, models.Chain, string)       {}
func (Nop) MetadataLookup(string, string, int)                 {}
func (Nop) PriceLookup(string, string)                         {}
func (Nop) TradesClassified(models.Chain, string, int)         {}
func (Nop) RunCompleted(string, string, float64)               {}
func (Nop) SinkDelivery(string, string)                        {}
