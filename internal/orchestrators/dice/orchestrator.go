// Package dice implements the dice orchestrator: notation rolls recorded in
// redis sessions, ability score rolling and the text-command channel.
package dice

//go:generate mockgen -destination=mock/mock_service.go -package=dicemock github.com/KirkDiggler/rpg-advancement/internal/orchestrators/dice Service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-advancement/internal/engine/rpgtoolkit"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/notation"
	dicesession "github.com/KirkDiggler/rpg-advancement/internal/repositories/dice_session"
)

const (
	// ContextAbilityScores groups the six ability score rolls
	ContextAbilityScores = "ability_scores"

	// ContextVoice groups rolls made through the text-command channel
	ContextVoice = "voice"

	// DefaultSessionTTL applies when neither the request nor the config sets one
	DefaultSessionTTL = 15 * time.Minute

	// Ability score rolling methods
	MethodStandard = "4d6_drop_lowest"
	MethodClassic  = "3d6"

	abilityScoreCount = 6
)

// Service defines the interface for dice operations
type Service interface {
	// Generic dice rolling
	RollDice(ctx context.Context, input *RollDiceInput) (*RollDiceOutput, error)
	GetRollSession(ctx context.Context, input *GetRollSessionInput) (*GetRollSessionOutput, error)
	ClearRollSession(ctx context.Context, input *ClearRollSessionInput) (*ClearRollSessionOutput, error)

	// RollAbilityScores rolls six scores into a fresh ability_scores session
	RollAbilityScores(ctx context.Context, input *RollAbilityScoresInput) (*RollAbilityScoresOutput, error)

	// HandleCommand answers one text command such as "roll 2 d 6 plus 3"
	HandleCommand(ctx context.Context, input *HandleCommandInput) (*HandleCommandOutput, error)
}

// Config holds the dependencies for the dice orchestrator
type Config struct {
	DiceSessionRepo dicesession.Repository
	IDGenerator     idgen.Generator

	// Roller defaults to dice.DefaultRoller
	Roller dice.Roller

	// Publisher is optional; when set every roll emits advancement.dice.rolled
	Publisher *rpgtoolkit.Publisher

	// SessionTTL defaults to DefaultSessionTTL
	SessionTTL time.Duration
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.DiceSessionRepo == nil {
		vb.RequiredField("DiceSessionRepo")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.SessionTTL < 0 {
		vb.Field("SessionTTL", "must not be negative")
	}

	return vb.Build()
}

type orchestrator struct {
	diceSessionRepo dicesession.Repository
	idGen           idgen.Generator
	roller          dice.Roller
	publisher       *rpgtoolkit.Publisher
	sessionTTL      time.Duration
}

// NewOrchestrator creates a new dice orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	roller := cfg.Roller
	if roller == nil {
		roller = dice.DefaultRoller
	}
	ttl := cfg.SessionTTL
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}

	return &orchestrator{
		diceSessionRepo: cfg.DiceSessionRepo,
		idGen:           cfg.IDGenerator,
		roller:          roller,
		publisher:       cfg.Publisher,
		sessionTTL:      ttl,
	}, nil
}

// roll throws d, dropping the dropLowest smallest dice before totalling.
func (o *orchestrator) roll(d notation.Dice, dropLowest int) (*dicesession.DiceRoll, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	values, err := o.roller.RollN(d.Count, d.Sides)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to roll %s", d)
	}

	kept := make([]int32, 0, len(values))
	for _, v := range values {
		kept = append(kept, int32(v)) // nolint:gosec // die faces are small
	}

	var dropped []int32
	if dropLowest > 0 && len(kept) > dropLowest {
		sorted := slices.Clone(kept)
		slices.Sort(sorted)
		dropped = sorted[:dropLowest]
		for _, low := range dropped {
			i := slices.Index(kept, low)
			kept = slices.Delete(kept, i, i+1)
		}
	}

	var diceTotal int32
	for _, v := range kept {
		diceTotal += v
	}
	mod := int32(d.Modifier) // nolint:gosec // bounded by notation.MaxModifier

	return &dicesession.DiceRoll{
		RollID:    o.idGen.Generate(),
		Notation:  d.String(),
		Dice:      kept,
		Dropped:   dropped,
		DiceTotal: diceTotal,
		Modifier:  mod,
		Total:     diceTotal + mod,
	}, nil
}

func (o *orchestrator) ttl(requested time.Duration) time.Duration {
	if requested > 0 {
		return requested
	}
	return o.sessionTTL
}

func (o *orchestrator) published(ctx context.Context, channel string, rolls ...*dicesession.DiceRoll) {
	if o.publisher == nil {
		return
	}
	evts := make([]rpgtoolkit.Event, 0, len(rolls))
	for _, r := range rolls {
		evts = append(evts, rpgtoolkit.Event{
			Type: rpgtoolkit.EventDiceRolled,
			Data: map[string]any{
				rpgtoolkit.KeyNotation: r.Notation,
				rpgtoolkit.KeyTotal:    int(r.Total),
				rpgtoolkit.KeyChannel:  channel,
			},
		})
	}
	o.publisher.Publish(ctx, evts...)
}

// RollDice rolls dice using the specified notation and appends the result to
// the entity's session for that context. In the ability_scores context a
// 4d6 drops its lowest die.
func (o *orchestrator) RollDice(ctx context.Context, input *RollDiceInput) (*RollDiceOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("entity_id", input.EntityID, vb)
	errors.ValidateRequired("context", input.Context, vb)
	errors.ValidateRequired("notation", input.Notation, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	d, err := notation.Parse(input.Notation)
	if err != nil {
		return nil, err
	}

	dropLowest := 0
	if input.Context == ContextAbilityScores && d.Count == 4 && d.Sides == 6 {
		dropLowest = 1
	}

	roll, err := o.roll(d, dropLowest)
	if err != nil {
		return nil, err
	}
	roll.Description = input.Description

	out, err := o.diceSessionRepo.Append(ctx, dicesession.AppendInput{
		EntityID: input.EntityID,
		Context:  input.Context,
		Rolls:    []dicesession.DiceRoll{*roll},
		TTL:      o.ttl(input.TTL),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to record dice roll")
	}

	slog.Info("Dice rolled",
		"entity_id", input.EntityID,
		"context", input.Context,
		"notation", roll.Notation,
		"total", roll.Total,
		"roll_id", roll.RollID,
	)
	o.published(ctx, input.Context, roll)

	return &RollDiceOutput{
		Roll:    roll,
		Session: out.Session,
	}, nil
}

// GetRollSession retrieves an existing dice roll session
func (o *orchestrator) GetRollSession(ctx context.Context, input *GetRollSessionInput) (*GetRollSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.EntityID == "" {
		return nil, errors.InvalidArgument("entity ID is required")
	}
	if input.Context == "" {
		return nil, errors.InvalidArgument("context is required")
	}

	out, err := o.diceSessionRepo.Get(ctx, dicesession.GetInput{
		EntityID: input.EntityID,
		Context:  input.Context,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get dice session")
	}

	return &GetRollSessionOutput{
		Session: out.Session,
	}, nil
}

// ClearRollSession removes a dice roll session
func (o *orchestrator) ClearRollSession(ctx context.Context, input *ClearRollSessionInput) (*ClearRollSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.EntityID == "" {
		return nil, errors.InvalidArgument("entity ID is required")
	}
	if input.Context == "" {
		return nil, errors.InvalidArgument("context is required")
	}

	out, err := o.diceSessionRepo.Delete(ctx, dicesession.DeleteInput{
		EntityID: input.EntityID,
		Context:  input.Context,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to delete dice session")
	}

	slog.Info("Dice session cleared",
		"entity_id", input.EntityID,
		"context", input.Context,
		"rolls_deleted", out.RollsDeleted,
	)

	return &ClearRollSessionOutput{
		RollsDeleted: out.RollsDeleted,
	}, nil
}

// RollAbilityScores rolls six scores and stores them as a new session,
// replacing any earlier ability score rolls for the entity.
func (o *orchestrator) RollAbilityScores(ctx context.Context, input *RollAbilityScoresInput) (*RollAbilityScoresOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.EntityID == "" {
		return nil, errors.InvalidArgument("entity ID is required")
	}

	method := input.Method
	if method == "" {
		method = MethodStandard
	}

	var (
		d          notation.Dice
		dropLowest int
	)
	switch method {
	case MethodStandard:
		d, dropLowest = notation.Dice{Count: 4, Sides: 6}, 1
	case MethodClassic:
		d = notation.Dice{Count: 3, Sides: 6}
	default:
		return nil, errors.InvalidArgumentf("unsupported rolling method: %s", method)
	}

	rolls := make([]*dicesession.DiceRoll, 0, abilityScoreCount)
	values := make([]dicesession.DiceRoll, 0, abilityScoreCount)
	for i := 0; i < abilityScoreCount; i++ {
		roll, err := o.roll(d, dropLowest)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to roll ability score %d", i+1)
		}
		roll.Description = fmt.Sprintf("Ability Score %d (%s)", i+1, method)
		rolls = append(rolls, roll)
		values = append(values, *roll)
	}

	out, err := o.diceSessionRepo.Create(ctx, dicesession.CreateInput{
		EntityID: input.EntityID,
		Context:  ContextAbilityScores,
		Rolls:    values,
		TTL:      o.sessionTTL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ability score session")
	}

	slog.Info("Ability scores rolled",
		"entity_id", input.EntityID,
		"method", method,
	)
	o.published(ctx, ContextAbilityScores, rolls...)

	return &RollAbilityScoresOutput{
		Rolls:   rolls,
		Session: out.Session,
	}, nil
}
