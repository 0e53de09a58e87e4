package metrics

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flightsurety/suretynode/surety"
	"github.com/flightsurety/suretynode/types"
)

// StateMetrics tracks the surety state machine: gauges sampled from the
// state on scrape, and an event counter fed by the state's event
// stream. Attach it with state.AddEventListener.
type StateMetrics struct {
	events *prometheus.CounterVec
}

// NewStateMetrics registers the collectors for the given state and
// returns the event listener feeding the counters.
func NewStateMetrics(state *surety.State) *StateMetrics {
	Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "surety", Name: "pool_balance_units",
		Help: "Current balance of the insurance funds pool, in display units.",
	}, func() float64 {
		return float64(state.PoolBalance()) / float64(types.OneUnit)
	}))
	Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "surety", Name: "airlines_registered",
		Help: "Number of registered airlines.",
	}, func() float64 { return float64(state.AirlinesCount()) }))
	Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "surety", Name: "oracles_registered",
		Help: "Number of registered oracles.",
	}, func() float64 { return float64(state.OraclesCount()) }))
	Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "surety", Name: "requests_pending",
		Help: "Number of open flight status requests.",
	}, func() float64 { return float64(len(state.PendingRequests())) }))

	m := &StateMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surety", Name: "events_total",
			Help: "State machine events by kind.",
		}, []string{"event"}),
	}
	Register(m.events)
	return m
}

var _ surety.EventListener = (*StateMetrics)(nil)

func (m *StateMetrics) OnAirlineRegistered(common.Address, int) {
	m.events.WithLabelValues("airlineRegistered").Inc()
}

func (m *StateMetrics) OnAirlineFunded(common.Address, types.Value, bool) {
	m.events.WithLabelValues("airlineFunded").Inc()
}

func (m *StateMetrics) OnFlightRegistered(types.FlightKey) {
	m.events.WithLabelValues("flightRegistered").Inc()
}

func (m *StateMetrics) OnInsurancePurchased(common.Address, types.FlightKey, types.Value) {
	m.events.WithLabelValues("insurancePurchased").Inc()
}

func (m *StateMetrics) OnStatusRequested(uint8, types.FlightKey) {
	m.events.WithLabelValues("statusRequested").Inc()
}

func (m *StateMetrics) OnStatusFinalized(types.FlightKey, types.FlightStatus) {
	m.events.WithLabelValues("statusFinalized").Inc()
}

func (m *StateMetrics) OnInsureeCredited(common.Address, types.FlightKey, types.Value) {
	m.events.WithLabelValues("insureeCredited").Inc()
}

func (m *StateMetrics) OnCreditWithdrawn(common.Address, types.FlightKey, types.Value) {
	m.events.WithLabelValues("creditWithdrawn").Inc()
}
