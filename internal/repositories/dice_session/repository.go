// Package dicesession provides repository interface and types for dice roll sessions
package dicesession

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mock/mock_repository.go -package=dicesessionmock github.com/KirkDiggler/rpg-advancement/internal/repositories/dice_session Repository

// Critical marks a natural 20 or natural 1 on an attack roll.
type Critical string

const (
	CriticalNone Critical = ""
	CriticalHit  Critical = "hit"
	CriticalMiss Critical = "miss"
)

// DiceSession represents a collection of dice rolls grouped by entity and context
type DiceSession struct {
	// Entity that owns these rolls (e.g., "char_123" or a voice session id)
	EntityID string `json:"entity_id"`

	// Context for grouping related rolls (e.g., "ability_scores", "voice")
	Context string `json:"context"`

	Rolls []DiceRoll `json:"rolls"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DiceRoll represents a single dice roll result
type DiceRoll struct {
	RollID string `json:"roll_id"`

	// Canonical notation that was rolled (e.g., "4d6", "1d20 + 5")
	Notation string `json:"notation"`

	// Kept dice values
	Dice []int32 `json:"dice"`

	// Final result after applying modifiers
	Total int32 `json:"total"`

	// Dice that were dropped (for "drop lowest")
	Dropped []int32 `json:"dropped,omitempty"`

	Description string `json:"description,omitempty"`

	// Raw kept dice total before modifiers
	DiceTotal int32 `json:"dice_total"`
	Modifier  int32 `json:"modifier"`

	Critical Critical `json:"critical,omitempty"`
}

// CreateInput contains parameters for creating a dice session
type CreateInput struct {
	EntityID string
	Context  string
	Rolls    []DiceRoll
	TTL      time.Duration
}

// CreateOutput contains the result of creating a dice session
type CreateOutput struct {
	Session *DiceSession
}

// AppendInput contains parameters for adding rolls to a session. A missing
// session is created with TTL; an existing one keeps its expiry.
type AppendInput struct {
	EntityID string
	Context  string
	Rolls    []DiceRoll
	TTL      time.Duration
}

// AppendOutput contains the session after the append
type AppendOutput struct {
	Session *DiceSession
	Created bool
}

// GetInput contains parameters for retrieving a dice session
type GetInput struct {
	EntityID string
	Context  string
}

// GetOutput contains the result of retrieving a dice session
type GetOutput struct {
	Session *DiceSession
}

// DeleteInput contains parameters for deleting a dice session
type DeleteInput struct {
	EntityID string
	Context  string
}

// DeleteOutput contains the result of deleting a dice session
type DeleteOutput struct {
	RollsDeleted int32
}

// Repository defines the interface for dice session storage operations
type Repository interface {
	// Create stores a new dice session, replacing any existing one
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)

	// Append adds rolls to a session atomically, creating it if needed
	Append(ctx context.Context, input AppendInput) (*AppendOutput, error)

	// Get retrieves a dice session by entity ID and context
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Delete removes a dice session
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)
}
