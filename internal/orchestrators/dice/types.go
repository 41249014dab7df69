package dice

import (
	"time"

	dicesession "github.com/KirkDiggler/rpg-advancement/internal/repositories/dice_session"
)

// RollDiceInput defines the request for rolling dice
type RollDiceInput struct {
	EntityID    string
	Context     string
	Notation    string
	Description string
	TTL         time.Duration
}

// RollDiceOutput defines the response for rolling dice
type RollDiceOutput struct {
	Roll    *dicesession.DiceRoll
	Session *dicesession.DiceSession
}

// GetRollSessionInput defines the request for getting a roll session
type GetRollSessionInput struct {
	EntityID string
	Context  string
}

// GetRollSessionOutput defines the response for getting a roll session
type GetRollSessionOutput struct {
	Session *dicesession.DiceSession
}

// ClearRollSessionInput defines the request for clearing a roll session
type ClearRollSessionInput struct {
	EntityID string
	Context  string
}

// ClearRollSessionOutput defines the response for clearing a roll session
type ClearRollSessionOutput struct {
	RollsDeleted int32
}

// RollAbilityScoresInput defines the request for rolling six ability scores
type RollAbilityScoresInput struct {
	EntityID string
	Method   string // MethodStandard or MethodClassic
}

// RollAbilityScoresOutput defines the response for rolling ability scores
type RollAbilityScoresOutput struct {
	Rolls   []*dicesession.DiceRoll
	Session *dicesession.DiceSession
}

// HandleCommandInput is one utterance from the text-command channel
type HandleCommandInput struct {
	// SessionID identifies the conversation; its rolls share one dice session
	SessionID string
	Command   string
}

// HandleCommandOutput is the plain-text answer. Roll is nil when the command
// was not understood.
type HandleCommandOutput struct {
	Text string
	Roll *dicesession.DiceRoll
}
