package advancement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/testutils"
)

func TestEveryPostActionIsRegistered(t *testing.T) {
	actions := newPostActions()
	for _, pa := range dnd5e.PostActions() {
		assert.Contains(t, actions, pa)
	}
	assert.Len(t, actions, len(dnd5e.PostActions()))
}

func TestRulebookPostActionsResolve(t *testing.T) {
	actions := newPostActions()
	features, err := testutils.LoadTestRulebook(t).ListFeatures(context.Background(), "")
	require.NoError(t, err)

	for _, f := range features {
		if f.PostAction == dnd5e.PostActionNone {
			continue
		}
		assert.Contains(t, actions, f.PostAction, "feature %s", f.ID)
	}
}
