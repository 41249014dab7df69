package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/KirkDiggler/rpg-advancement/internal/config"
	"github.com/KirkDiggler/rpg-advancement/internal/engine/rpgtoolkit"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/dice"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-advancement/internal/redis"
	dicesession "github.com/KirkDiggler/rpg-advancement/internal/repositories/dice_session"
)

const redisPingTimeout = 5 * time.Second

// openDice connects to redis and builds the dice orchestrator. The returned
// close func releases the redis client.
func openDice(ctx context.Context, cfg *config.Config, publisher *rpgtoolkit.Publisher) (dice.Service, func(), error) {
	client, err := redis.NewClient(cfg.RedisAddr, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create redis client")
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}

	if err := redis.Ping(ctx, client, redisPingTimeout); err != nil {
		closeFn()
		return nil, nil, errors.WrapWithCode(err, errors.CodeUnavailable, "redis is unreachable at "+cfg.RedisAddr)
	}

	repo, err := dicesession.NewRedisRepository(&dicesession.Config{
		Client: client,
		Clock:  clock.New(),
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	svc, err := dice.NewOrchestrator(&dice.Config{
		DiceSessionRepo: repo,
		IDGenerator:     idgen.NewUUID("roll_"),
		Publisher:       publisher,
		SessionTTL:      cfg.DiceSessionTTL,
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	return svc, closeFn, nil
}
