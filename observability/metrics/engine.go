package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type EngineMetrics struct {
	commandsTotal     *prometheus.CounterVec
	commandFailures   *prometheus.CounterVec
	settlementIntents prometheus.Counter
	tickCounter       prometheus.Gauge
}

var (
	engineOnce     sync.Once
	engineRegistry *EngineMetrics
)

// Engine returns the process-wide engine metrics registry.
func Engine() *EngineMetrics {
	engineOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "certledger_commands_total",
				Help: "Count of processed commands by opcode and outcome.",
			}, []string{"opcode", "outcome"}),
			commandFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "certledger_command_failures_total",
				Help: "Count of rejected commands by error category.",
			}, []string{"category"}),
			settlementIntents: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "certledger_settlement_intents_total",
				Help: "Count of settlement intents emitted for the host.",
			}),
			tickCounter: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "certledger_tick_counter",
				Help: "Current value of the global tick counter.",
			}),
		}
		prometheus.MustRegister(
			engineRegistry.commandsTotal,
			engineRegistry.commandFailures,
			engineRegistry.settlementIntents,
			engineRegistry.tickCounter,
		)
	})
	return engineRegistry
}

// ObserveCommand records a processed command outcome.
func (m *EngineMetrics) ObserveCommand(opcode string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.commandsTotal.WithLabelValues(opcode, outcome).Inc()
}

// ObserveFailure records a rejection by taxonomy category.
func (m *EngineMetrics) ObserveFailure(category string) {
	if category == "" {
		return
	}
	m.commandFailures.WithLabelValues(category).Inc()
}

// ObserveSettlementIntent counts one emitted settlement intent.
func (m *EngineMetrics) ObserveSettlementIntent() {
	m.settlementIntents.Inc()
}

// SetTick publishes the current tick counter.
func (m *EngineMetrics) SetTick(counter uint64) {
	m.tickCounter.Set(float64(counter))
}
