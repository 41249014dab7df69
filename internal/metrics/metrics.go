// Package metrics turns advancement and dice events into prometheus
// collectors. It only listens on the event bus; nothing in the engine calls
// it directly.
package metrics

import (
	"context"

	"github.com/KirkDiggler/rpg-toolkit/events"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/KirkDiggler/rpg-advancement/internal/engine/rpgtoolkit"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

const namespace = "advancement"

// Subscriptions run after the engine's own handlers.
const subscriberPriority = 1000

// Metrics holds the registered collectors
type Metrics struct {
	events          *prometheus.CounterVec
	classLevels     *prometheus.CounterVec
	choicesResolved *prometheus.CounterVec
	choicesRejected *prometheus.CounterVec
	choicesBlocked  prometheus.Counter
	diceRolls       *prometheus.CounterVec
	diceTotals      *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, errors.InvalidArgument("registerer is required")
	}

	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Published advancement events by type.",
		}, []string{"type"}),
		classLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "class_levels_total",
			Help:      "Class levels gained, including multiclass first levels.",
		}, []string{"class_id"}),
		choicesResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "choices_resolved_total",
			Help:      "Pending choices resolved by choice code.",
		}, []string{"choice_code"}),
		choicesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "choices_rejected_total",
			Help:      "Pending choices rejected by choice code.",
		}, []string{"choice_code"}),
		choicesBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "choices_blocked_total",
			Help:      "Resolutions refused because an important choice was outstanding.",
		}),
		diceRolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dice_rolls_total",
			Help:      "Dice rolls by channel.",
		}, []string{"channel"}),
		diceTotals: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dice_roll_total",
			Help:      "Distribution of roll totals by channel.",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}, []string{"channel"}),
	}

	for _, c := range []prometheus.Collector{
		m.events, m.classLevels, m.choicesResolved, m.choicesRejected,
		m.choicesBlocked, m.diceRolls, m.diceTotals,
	} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register collector")
		}
	}

	return m, nil
}

// Subscribe attaches the collectors to every event type the engine and the
// dice orchestrator publish.
func (m *Metrics) Subscribe(bus *events.Bus) {
	for _, eventType := range []string{
		rpgtoolkit.EventCharacterInitialized,
		rpgtoolkit.EventClassLeveled,
		rpgtoolkit.EventMulticlassAdded,
		rpgtoolkit.EventFeatureGranted,
		rpgtoolkit.EventChoiceEnqueued,
		rpgtoolkit.EventChoiceResolved,
		rpgtoolkit.EventChoiceRejected,
		rpgtoolkit.EventChoiceBlocked,
		rpgtoolkit.EventDiceRolled,
	} {
		bus.SubscribeFunc(eventType, subscriberPriority, m.observe)
	}
}

func (m *Metrics) observe(_ context.Context, e events.Event) error {
	m.events.WithLabelValues(e.Type()).Inc()

	switch e.Type() {
	case rpgtoolkit.EventClassLeveled:
		m.classLevels.WithLabelValues(stringValue(e, rpgtoolkit.KeyClassID)).Inc()
	case rpgtoolkit.EventChoiceResolved:
		m.choicesResolved.WithLabelValues(stringValue(e, rpgtoolkit.KeyChoiceCode)).Inc()
	case rpgtoolkit.EventChoiceRejected:
		m.choicesRejected.WithLabelValues(stringValue(e, rpgtoolkit.KeyChoiceCode)).Inc()
	case rpgtoolkit.EventChoiceBlocked:
		m.choicesBlocked.Inc()
	case rpgtoolkit.EventDiceRolled:
		channel := stringValue(e, rpgtoolkit.KeyChannel)
		m.diceRolls.WithLabelValues(channel).Inc()
		if total, ok := e.Context().Get(rpgtoolkit.KeyTotal); ok {
			if n, ok := total.(int); ok {
				m.diceTotals.WithLabelValues(channel).Observe(float64(n))
			}
		}
	}
	return nil
}

func stringValue(e events.Event, key string) string {
	v, ok := e.Context().Get(key)
	if !ok {
		return "unknown"
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "unknown"
	}
	return s
}
