package dicesession

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/rpg-advancement/internal/redis"
)

const (
	// Key pattern: dice_session:{entity_id}:{context}
	sessionKeyPrefix = "dice_session:"
	defaultTTL       = 15 * time.Minute

	// Optimistic append attempts before giving up on a contended key
	maxAppendAttempts = 5

	errEntityIDEmpty = "entity ID cannot be empty"
	errContextEmpty  = "context cannot be empty"
)

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
	Clock  clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Client == nil {
		vb.RequiredField("Client")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}

	return vb.Build()
}

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// NewRedisRepository creates a new Redis repository for dice sessions
func NewRedisRepository(cfg *Config) (Repository, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  cfg.Clock,
	}, nil
}

// Ensure redisRepository implements Repository
var _ Repository = (*redisRepository)(nil)

// Create stores a new dice session with the specified TTL
func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if err := validateKey(input.EntityID, input.Context); err != nil {
		return nil, err
	}

	session := r.newSession(input.EntityID, input.Context, input.Rolls, input.TTL)
	data, err := json.Marshal(session)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal session")
	}

	key := buildKey(input.EntityID, input.Context)
	if err := r.client.Set(ctx, key, data, session.ExpiresAt.Sub(session.CreatedAt)).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to store session in Redis")
	}

	return &CreateOutput{
		Session: session,
	}, nil
}

// Append adds rolls under WATCH so concurrent appends to one session never
// lose a roll.
func (r *redisRepository) Append(ctx context.Context, input AppendInput) (*AppendOutput, error) {
	if err := validateKey(input.EntityID, input.Context); err != nil {
		return nil, err
	}

	key := buildKey(input.EntityID, input.Context)
	out := &AppendOutput{}

	txf := func(tx *redis.Tx) error {
		session, err := r.load(ctx, tx, key)
		if err != nil && !errors.IsNotFound(err) {
			return err
		}

		out.Created = session == nil
		if session == nil {
			session = r.newSession(input.EntityID, input.Context, nil, input.TTL)
		}
		session.Rolls = append(session.Rolls, input.Rolls...)

		ttl := session.ExpiresAt.Sub(r.clock.Now())
		data, err := json.Marshal(session)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal session")
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, ttl)
			return nil
		})
		if err != nil {
			return err
		}

		out.Session = session
		return nil
	}

	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if !stderrors.Is(err, redis.TxFailedErr) {
			return nil, errors.Wrapf(err, "failed to append to session")
		}
	}

	return nil, errors.Newf(errors.CodeUnavailable, "dice session %s:%s is contended", input.EntityID, input.Context)
}

// Get retrieves a dice session by entity ID and context
func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if err := validateKey(input.EntityID, input.Context); err != nil {
		return nil, err
	}

	session, err := r.load(ctx, r.client, buildKey(input.EntityID, input.Context))
	if err != nil {
		return nil, err
	}

	return &GetOutput{
		Session: session,
	}, nil
}

// Delete removes a dice session
func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if err := validateKey(input.EntityID, input.Context); err != nil {
		return nil, err
	}

	data, err := r.client.GetDel(ctx, buildKey(input.EntityID, input.Context)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return &DeleteOutput{}, nil
		}
		return nil, errors.Wrapf(err, "failed to delete session from Redis")
	}

	var session DiceSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal session")
	}

	return &DeleteOutput{
		// nolint:gosec // roll count is always small
		RollsDeleted: int32(len(session.Rolls)),
	}, nil
}

func (r *redisRepository) newSession(entityID, context string, rolls []DiceRoll, ttl time.Duration) *DiceSession {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	now := r.clock.Now()
	if rolls == nil {
		rolls = []DiceRoll{}
	}
	return &DiceSession{
		EntityID:  entityID,
		Context:   context,
		Rolls:     rolls,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// getter is satisfied by both the client and a watched *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *redisRepository) load(ctx context.Context, cmd getter, key string) (*DiceSession, error) {
	data, err := cmd.Get(ctx, key).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, errors.NotFound("dice session not found")
		}
		return nil, errors.Wrapf(err, "failed to get session from Redis")
	}

	var session DiceSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal session")
	}

	if !r.clock.Now().Before(session.ExpiresAt) {
		return nil, errors.NotFound("dice session has expired")
	}

	return &session, nil
}

func validateKey(entityID, context string) error {
	if entityID == "" {
		return errors.InvalidArgument(errEntityIDEmpty)
	}
	if context == "" {
		return errors.InvalidArgument(errContextEmpty)
	}
	return nil
}

func buildKey(entityID, context string) string {
	return fmt.Sprintf("%s%s:%s", sessionKeyPrefix, entityID, context)
}
