package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	pkgerrors "github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/errors"
)

const (
	BetKindSingle = "single"
	BetKindSeries = "series"

	ResultOK = "ok"
)

// WagerMetrics tracks bet placement, draws and settlements.
type WagerMetrics struct {
	betsPlaced  *prometheus.CounterVec
	betDuration *prometheus.HistogramVec
	wagered     *prometheus.CounterVec
	cancelled   prometheus.Counter
	draws       *prometheus.CounterVec
	settlements *prometheus.CounterVec
	prizePool   prometheus.Counter
	winningBets prometheus.Counter
}

// NewWagerMetrics registers the wager metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewWagerMetrics(reg prometheus.Registerer) *WagerMetrics {
	if reg == nil {
		return &WagerMetrics{}
	}
	m := &WagerMetrics{
		betsPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wager",
			Name:      "bets_total",
			Help:      "Bet placement attempts by kind and result.",
		}, []string{"kind", "result"}),
		betDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "wager",
			Name:      "bet_duration_seconds",
			Help:      "Latency of bet placement including the transaction.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 3},
		}, []string{"kind"}),
		wagered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wager",
			Name:      "wagered_units_total",
			Help:      "Ledger units debited for committed bets.",
		}, []string{"kind"}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wager",
			Name:      "bets_cancelled_total",
			Help:      "Bets soft-deleted and refunded.",
		}),
		draws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "draw",
			Name:      "draws_total",
			Help:      "Draw attempts by result.",
		}, []string{"result"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "draw",
			Name:      "settlements_total",
			Help:      "Settlement attempts by result.",
		}, []string{"result"}),
		prizePool: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "draw",
			Name:      "prize_pool_units_total",
			Help:      "Prize pool units computed by settlements.",
		}),
		winningBets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "draw",
			Name:      "winning_bets_total",
			Help:      "Digital bets marked as winning.",
		}),
	}
	reg.MustRegister(m.betsPlaced, m.betDuration, m.wagered, m.cancelled, m.draws, m.settlements, m.prizePool, m.winningBets)
	return m
}

// ObserveBet records one placement attempt.
func (m *WagerMetrics) ObserveBet(kind string, err error, duration time.Duration, amount int) {
	if m == nil || m.betsPlaced == nil {
		return
	}
	kind = normalizeLabel(kind)
	m.betsPlaced.WithLabelValues(kind, ResultLabel(err)).Inc()
	m.betDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err == nil && amount > 0 {
		m.wagered.WithLabelValues(kind).Add(float64(amount))
	}
}

// IncCancelled counts refunded bets.
func (m *WagerMetrics) IncCancelled(n int) {
	if m == nil || m.cancelled == nil || n <= 0 {
		return
	}
	m.cancelled.Add(float64(n))
}

// ObserveDraw records a draw attempt.
func (m *WagerMetrics) ObserveDraw(err error) {
	if m == nil || m.draws == nil {
		return
	}
	m.draws.WithLabelValues(ResultLabel(err)).Inc()
}

// ObserveSettlement records a settlement attempt and, on success, its totals.
func (m *WagerMetrics) ObserveSettlement(err error, prizePool, winningBets int) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(ResultLabel(err)).Inc()
	if err != nil {
		return
	}
	m.prizePool.Add(float64(prizePool))
	m.winningBets.Add(float64(winningBets))
}

// ResultLabel maps an error to a low-cardinality label value.
func ResultLabel(err error) string {
	if err == nil {
		return ResultOK
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "error"
}
