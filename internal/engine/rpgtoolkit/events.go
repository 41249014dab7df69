// Package rpgtoolkit bridges advancement state onto rpg-toolkit: characters
// become core.Entity values and engine milestones become events on the bus.
package rpgtoolkit

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-toolkit/core"
	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

// Event types published by the advancement engine.
const (
	EventCharacterInitialized = "advancement.character.initialized"
	EventClassLeveled         = "advancement.class.leveled"
	EventMulticlassAdded      = "advancement.multiclass.added"
	EventFeatureGranted       = "advancement.feature.granted"
	EventChoiceEnqueued       = "advancement.choice.enqueued"
	EventChoiceResolved       = "advancement.choice.resolved"
	EventChoiceRejected       = "advancement.choice.rejected"
	EventChoiceBlocked        = "advancement.choice.blocked"
	EventDiceRolled           = "advancement.dice.rolled"
)

// Event context keys.
const (
	KeyClassID    = "class_id"
	KeyLevel      = "level"
	KeyFeatureID  = "feature_id"
	KeySource     = "source"
	KeyChoiceID   = "choice_id"
	KeyChoiceCode = "choice_code"
	KeyImportant  = "important"
	KeyNotation   = "notation"
	KeyTotal      = "total"
	KeyChannel    = "channel"
)

// Event is an engine milestone waiting to be published.
type Event struct {
	Type      string
	Character *dnd5e.Character
	Data      map[string]any
}

// Publisher emits engine events on an rpg-toolkit bus.
type Publisher struct {
	bus *events.Bus
}

// NewPublisher returns a Publisher over bus.
func NewPublisher(bus *events.Bus) (*Publisher, error) {
	if bus == nil {
		return nil, errors.InvalidArgument("event bus is required")
	}
	return &Publisher{bus: bus}, nil
}

// Bus returns the underlying bus for subscribers.
func (p *Publisher) Bus() *events.Bus {
	return p.bus
}

// Publish emits evts in order. Handler failures are logged; the state the
// events describe is already committed.
func (p *Publisher) Publish(ctx context.Context, evts ...Event) {
	for _, e := range evts {
		var source core.Entity
		if e.Character != nil {
			source = WrapCharacter(e.Character)
		}

		event := events.NewGameEvent(e.Type, source, nil)
		for k, v := range e.Data {
			event.Context().Set(k, v)
		}

		if err := p.bus.Publish(ctx, event); err != nil {
			slog.Warn("Event handler failed",
				"event", e.Type,
				"error", err,
			)
		}
	}
}
