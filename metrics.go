package chainkv

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	txBegun       *prometheus.CounterVec
	txOpen        *prometheus.GaugeVec
	commitSeconds prometheus.Histogram
	commitErrors  prometheus.Counter
}

func newMetrics(backend Backend, path string) *metrics {
	labels := prometheus.Labels{"backend": string(backend), "path": path}
	return &metrics{
		txBegun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "chainkv",
			Name:        "transactions_total",
			Help:        "Transactions begun, by mode.",
			ConstLabels: labels,
		}, []string{"mode"}),
		txOpen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "chainkv",
			Name:        "transactions_open",
			Help:        "Transactions currently open, by mode.",
			ConstLabels: labels,
		}, []string{"mode"}),
		commitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "chainkv",
			Name:        "commit_duration_seconds",
			Help:        "Latency of write transaction commits.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		commitErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "chainkv",
			Name:        "commit_errors_total",
			Help:        "Commits that failed.",
			ConstLabels: labels,
		}),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.txBegun, m.txOpen, m.commitSeconds, m.commitErrors}
}

// users counts the Envs sharing each registered collector, so the last
// one to close unregisters it.
var (
	usersMu sync.Mutex
	users   = make(map[prometheus.Collector]int)
)

// register adds the collectors to r, reusing ones already registered by an
// earlier Env on the same path.
func (m *metrics) register(r prometheus.Registerer) error {
	if r == nil {
		return nil
	}
	usersMu.Lock()
	defer usersMu.Unlock()
	var added []prometheus.Collector
	for _, c := range m.collectors() {
		err := r.Register(c)
		if err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				for _, a := range added {
					m.release(r, a)
				}
				return err
			}
			m.adopt(are.ExistingCollector)
			c = are.ExistingCollector
		}
		users[c]++
		added = append(added, c)
	}
	return nil
}

func (m *metrics) adopt(c prometheus.Collector) {
	switch existing := c.(type) {
	case *prometheus.CounterVec:
		m.txBegun = existing
	case *prometheus.GaugeVec:
		m.txOpen = existing
	case prometheus.Histogram:
		m.commitSeconds = existing
	case prometheus.Counter:
		m.commitErrors = existing
	}
}

func (m *metrics) unregister(r prometheus.Registerer) {
	if r == nil {
		return
	}
	usersMu.Lock()
	defer usersMu.Unlock()
	for _, c := range m.collectors() {
		m.release(r, c)
	}
}

// release drops one use of c. Callers hold usersMu.
func (m *metrics) release(r prometheus.Registerer, c prometheus.Collector) {
	n, ok := users[c]
	if !ok {
		return
	}
	if n > 1 {
		users[c] = n - 1
		return
	}
	delete(users, c)
	r.Unregister(c)
}

func (m *metrics) begin(mode Mode) {
	m.txBegun.WithLabelValues(mode.String()).Inc()
	m.txOpen.WithLabelValues(mode.String()).Inc()
}

func (m *metrics) end(mode Mode) {
	m.txOpen.WithLabelValues(mode.String()).Dec()
}

func (m *metrics) commit(d time.Duration, err error) {
	if err != nil {
		m.commitErrors.Inc()
		return
	}
	m.commitSeconds.Observe(d.Seconds())
}
