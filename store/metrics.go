package store

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the small set of counters a Storage updates as it serves
// put/get/pack operations. Metrics are never registered against the
// default global registry — the embedder passes a prometheus.Registerer
// (or nil to skip registration entirely), so adastore never opens its own
// metrics HTTP endpoint and the HTTP Non-goal stays intact.
type Metrics struct {
	BlocksPut    prometheus.Counter
	BlocksGet    prometheus.Counter
	BloomHits    prometheus.Counter
	PacksCreated prometheus.Counter
}

// NewMetrics builds the counter set and, if reg is non-nil, registers
// them. Registration errors (e.g. a duplicate registration in tests that
// open several Storages against the same registry) are ignored; the
// counters still work unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BlocksPut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adastore_blocks_put_total",
			Help: "Total number of blocks written to the store.",
		}),
		BlocksGet: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adastore_blocks_get_total",
			Help: "Total number of successful block reads.",
		}),
		BloomHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adastore_bloom_hits_total",
			Help: "Total number of Bloom filter positives across all packs.",
		}),
		PacksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adastore_packs_created_total",
			Help: "Total number of packs created via create_pack.",
		}),
	}
	if reg != nil {
		_ = reg.Register(m.BlocksPut)
		_ = reg.Register(m.BlocksGet)
		_ = reg.Register(m.BloomHits)
		_ = reg.Register(m.PacksCreated)
	}
	return m
}
