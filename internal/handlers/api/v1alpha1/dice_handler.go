// Package v1alpha1 serves the gRPC DiceService over the dice orchestrator
package v1alpha1

import (
	"context"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/dice"
	dicesession "github.com/KirkDiggler/rpg-advancement/internal/repositories/dice_session"

	apiv1alpha1 "github.com/KirkDiggler/rpg-api-protos/gen/go/clients/api/v1alpha1"
)

// ServiceName is the fully qualified name reported to the health service.
const ServiceName = "api.v1alpha1.DiceService"

// DiceHandlerConfig holds dependencies for the dice handler
type DiceHandlerConfig struct {
	DiceService dice.Service
}

// Validate ensures all required dependencies are present
func (c *DiceHandlerConfig) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.DiceService == nil {
		vb.RequiredField("DiceService")
	}
	return vb.Build()
}

// DiceHandler implements the dice gRPC service
type DiceHandler struct {
	apiv1alpha1.UnimplementedDiceServiceServer
	diceService dice.Service
}

// NewDiceHandler creates a new dice handler with the given configuration
func NewDiceHandler(cfg *DiceHandlerConfig) (*DiceHandler, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &DiceHandler{
		diceService: cfg.DiceService,
	}, nil
}

// RollDice rolls dice and answers with every roll in the session so far
func (h *DiceHandler) RollDice(
	ctx context.Context,
	req *apiv1alpha1.RollDiceRequest,
) (*apiv1alpha1.RollDiceResponse, error) {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("entity_id", req.GetEntityId(), vb)
	errors.ValidateRequired("context", req.GetContext(), vb)
	errors.ValidateRequired("notation", req.GetNotation(), vb)
	if err := vb.Build(); err != nil {
		return nil, errors.ToGRPCError(err)
	}

	out, err := h.diceService.RollDice(ctx, &dice.RollDiceInput{
		EntityID:    req.GetEntityId(),
		Context:     req.GetContext(),
		Notation:    req.GetNotation(),
		Description: req.GetModifierDescription(),
	})
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}

	return &apiv1alpha1.RollDiceResponse{
		Rolls:     rollsToProto(out.Session.Rolls),
		ExpiresAt: out.Session.ExpiresAt.Unix(),
	}, nil
}

// GetRollSession retrieves an existing dice roll session
func (h *DiceHandler) GetRollSession(
	ctx context.Context,
	req *apiv1alpha1.GetRollSessionRequest,
) (*apiv1alpha1.GetRollSessionResponse, error) {
	if err := validateSessionRef(req.GetEntityId(), req.GetContext()); err != nil {
		return nil, errors.ToGRPCError(err)
	}

	out, err := h.diceService.GetRollSession(ctx, &dice.GetRollSessionInput{
		EntityID: req.GetEntityId(),
		Context:  req.GetContext(),
	})
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}

	return &apiv1alpha1.GetRollSessionResponse{
		Rolls:     rollsToProto(out.Session.Rolls),
		ExpiresAt: out.Session.ExpiresAt.Unix(),
		CreatedAt: out.Session.CreatedAt.Unix(),
	}, nil
}

// ClearRollSession removes a dice roll session
func (h *DiceHandler) ClearRollSession(
	ctx context.Context,
	req *apiv1alpha1.ClearRollSessionRequest,
) (*apiv1alpha1.ClearRollSessionResponse, error) {
	if err := validateSessionRef(req.GetEntityId(), req.GetContext()); err != nil {
		return nil, errors.ToGRPCError(err)
	}

	out, err := h.diceService.ClearRollSession(ctx, &dice.ClearRollSessionInput{
		EntityID: req.GetEntityId(),
		Context:  req.GetContext(),
	})
	if err != nil {
		return nil, errors.ToGRPCError(err)
	}

	return &apiv1alpha1.ClearRollSessionResponse{
		Message:      "Roll session cleared successfully",
		RollsCleared: out.RollsDeleted,
	}, nil
}

func validateSessionRef(entityID, context string) error {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("entity_id", entityID, vb)
	errors.ValidateRequired("context", context, vb)
	return vb.Build()
}

func rollsToProto(rolls []dicesession.DiceRoll) []*apiv1alpha1.DiceRoll {
	out := make([]*apiv1alpha1.DiceRoll, 0, len(rolls))
	for _, r := range rolls {
		out = append(out, &apiv1alpha1.DiceRoll{
			RollId:      r.RollID,
			Notation:    r.Notation,
			Dice:        r.Dice,
			Total:       r.Total,
			Dropped:     r.Dropped,
			Description: r.Description,
			DiceTotal:   r.DiceTotal,
			Modifier:    r.Modifier,
		})
	}
	return out
}
