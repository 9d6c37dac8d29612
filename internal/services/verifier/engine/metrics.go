package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespaceVerifier = "verifier"

// Metrics receives engine observations.
type Metrics interface {
	OperationCompleted(op string, code string, duration time.Duration)
	StakeLocked(asset string)
	StakeReleased(asset string)
	StakeSlashed(asset string, reason string)
	VoteFiled(kind string, late bool)
	OutcomeFinalized(status string)
	TransferFailed(direction string)
}

// NoopCollector discards every observation.
type NoopCollector struct{}

// NewNoopCollector returns a Metrics that records nothing.
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (nc *NoopCollector) OperationCompleted(op string, code string, duration time.Duration) {}
func (nc *NoopCollector) StakeLocked(asset string)                                          {}
func (nc *NoopCollector) StakeReleased(asset string)                                        {}
func (nc *NoopCollector) StakeSlashed(asset string, reason string)                          {}
func (nc *NoopCollector) VoteFiled(kind string, late bool)                                  {}
func (nc *NoopCollector) OutcomeFinalized(status string)                                    {}
func (nc *NoopCollector) TransferFailed(direction string)                                   {}

// Collector records engine activity in Prometheus.
type Collector struct {
	operations *prometheus.HistogramVec
	locks      *prometheus.CounterVec
	releases   *prometheus.CounterVec
	slashes    *prometheus.CounterVec
	votes      *prometheus.CounterVec
	outcomes   *prometheus.CounterVec
	transfers  *prometheus.CounterVec
}

// NewCollector registers the engine metrics with registerer.
func NewCollector(registerer prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		operations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespaceVerifier,
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "duration of engine operations by result code",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "code"}),
		locks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceVerifier,
			Subsystem: "stake",
			Name:      "locked_total",
			Help:      "number of bounty reservations that locked stake",
		}, []string{"asset"}),
		releases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceVerifier,
			Subsystem: "stake",
			Name:      "released_total",
			Help:      "number of locks whose stake returned to available",
		}, []string{"asset"}),
		slashes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceVerifier,
			Subsystem: "stake",
			Name:      "slashed_total",
			Help:      "number of locks whose stake was slashed",
		}, []string{"asset", "reason"}),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceVerifier,
			Subsystem: "consensus",
			Name:      "votes_total",
			Help:      "number of votes filed",
		}, []string{"kind", "late"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceVerifier,
			Subsystem: "consensus",
			Name:      "finalized_total",
			Help:      "number of pairs that reached a terminal outcome",
		}, []string{"status"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceVerifier,
			Subsystem: "payment",
			Name:      "transfer_failures_total",
			Help:      "number of payment ledger calls that failed",
		}, []string{"direction"}),
	}
	for _, collector := range []prometheus.Collector{c.operations, c.locks, c.releases, c.slashes, c.votes, c.outcomes, c.transfers} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) OperationCompleted(op string, code string, duration time.Duration) {
	c.operations.WithLabelValues(op, code).Observe(duration.Seconds())
}

func (c *Collector) StakeLocked(asset string) {
	c.locks.WithLabelValues(asset).Inc()
}

func (c *Collector) StakeReleased(asset string) {
	c.releases.WithLabelValues(asset).Inc()
}

func (c *Collector) StakeSlashed(asset string, reason string) {
	c.slashes.WithLabelValues(asset, reason).Inc()
}

func (c *Collector) VoteFiled(kind string, late bool) {
	lateLabel := "false"
	if late {
		lateLabel = "true"
	}
	c.votes.WithLabelValues(kind, lateLabel).Inc()
}

func (c *Collector) OutcomeFinalized(status string) {
	c.outcomes.WithLabelValues(status).Inc()
}

func (c *Collector) TransferFailed(direction string) {
	c.transfers.WithLabelValues(direction).Inc()
}

var _ Metrics = (*NoopCollector)(nil)
var _ Metrics = (*Collector)(nil)
