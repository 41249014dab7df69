package dice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/notation"
	dicesession "github.com/KirkDiggler/rpg-advancement/internal/repositories/dice_session"
	"github.com/KirkDiggler/rpg-advancement/internal/testutils"
)

func newCommandService(t *testing.T) (Service, dicesession.Repository, *scriptedRoller) {
	t.Helper()
	client, _ := testutils.CreateTestRedisClient(t)
	repo, err := dicesession.NewRedisRepository(&dicesession.Config{
		Client: client,
		Clock:  clock.NewFixed(testutils.TestTime),
	})
	require.NoError(t, err)

	roller := &scriptedRoller{}
	svc, err := NewOrchestrator(&Config{
		DiceSessionRepo: repo,
		IDGenerator:     idgen.NewSequential("roll"),
		Roller:          roller,
	})
	require.NoError(t, err)
	return svc, repo, roller
}

func TestHandleCommand(t *testing.T) {
	testCases := []struct {
		name     string
		command  string
		faces    []int
		expected string
		critical dicesession.Critical
	}{
		{
			name:     "plain roll",
			command:  "roll 2 d 6",
			faces:    []int{3, 4},
			expected: "Roll result: 7",
		},
		{
			name:     "throw with plus",
			command:  "throw 1 d 20 plus 3",
			faces:    []int{11},
			expected: "Roll result: 14",
		},
		{
			name:     "minus modifier",
			command:  "Roll 3 d 4 minus 2",
			faces:    []int{1, 1, 1},
			expected: "Roll result: 1",
		},
		{
			name:     "attack roll",
			command:  "roll to hit plus 5",
			faces:    []int{12},
			expected: "Attack roll result: 17",
		},
		{
			name:     "attack with modifier wording",
			command:  "throw for attack with modifier minus 1",
			faces:    []int{8},
			expected: "Attack roll result: 7",
		},
		{
			name:     "natural twenty",
			command:  "roll for hit modifier minus 3",
			faces:    []int{20},
			expected: CriticalHitText,
			critical: dicesession.CriticalHit,
		},
		{
			name:     "natural one",
			command:  "roll to attack plus 10",
			faces:    []int{1},
			expected: CriticalMissText,
			critical: dicesession.CriticalMiss,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, roller := newCommandService(t)
			roller.push(tc.faces...)

			out, err := svc.HandleCommand(context.Background(), &HandleCommandInput{
				SessionID: "alice-session",
				Command:   tc.command,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out.Text)
			require.NotNil(t, out.Roll)
			assert.Equal(t, tc.critical, out.Roll.Critical)
		})
	}
}

func TestHandleCommandNotUnderstood(t *testing.T) {
	for _, command := range []string{
		"",
		"hello",
		"roll 0 d 6",
		"roll 10 d 6",
		"roll 2 d 10",
		"roll 2d6",
		"roll 2 d 6 plus",
		"roll to hit",
		"roll  2 d 6",
	} {
		t.Run(command, func(t *testing.T) {
			svc, repo, _ := newCommandService(t)

			out, err := svc.HandleCommand(context.Background(), &HandleCommandInput{
				SessionID: "alice-session",
				Command:   command,
			})
			require.NoError(t, err)
			assert.Equal(t, DefaultAnswer, out.Text)
			assert.Nil(t, out.Roll)

			_, err = repo.Get(context.Background(), dicesession.GetInput{EntityID: "alice-session", Context: ContextVoice})
			assert.True(t, errors.IsNotFound(err))
		})
	}
}

func TestHandleCommandRecordsVoiceSession(t *testing.T) {
	svc, repo, roller := newCommandService(t)
	ctx := context.Background()
	roller.push(2, 5, 20)

	_, err := svc.HandleCommand(ctx, &HandleCommandInput{SessionID: "alice-session", Command: "roll 2 d 8"})
	require.NoError(t, err)
	_, err = svc.HandleCommand(ctx, &HandleCommandInput{SessionID: "alice-session", Command: "roll to hit plus 2"})
	require.NoError(t, err)

	got, err := repo.Get(ctx, dicesession.GetInput{EntityID: "alice-session", Context: ContextVoice})
	require.NoError(t, err)
	require.Len(t, got.Session.Rolls, 2)
	assert.Equal(t, "2d8", got.Session.Rolls[0].Notation)
	assert.Equal(t, int32(7), got.Session.Rolls[0].Total)
	assert.Equal(t, "1d20 + 2", got.Session.Rolls[1].Notation)
	assert.Equal(t, dicesession.CriticalHit, got.Session.Rolls[1].Critical)
}

func TestHandleCommandRejectsOversizedModifier(t *testing.T) {
	for _, command := range []string{
		"roll 1 d 6 plus 3000000000",
		"roll 1 d 6 plus 99999999999999999999",
		"roll to hit minus 10001",
	} {
		t.Run(command, func(t *testing.T) {
			svc, repo, _ := newCommandService(t)

			_, err := svc.HandleCommand(context.Background(), &HandleCommandInput{
				SessionID: "alice-session",
				Command:   command,
			})
			require.Error(t, err)
			assert.True(t, notation.IsOutOfRange(err))

			_, err = repo.Get(context.Background(), dicesession.GetInput{EntityID: "alice-session", Context: ContextVoice})
			assert.True(t, errors.IsNotFound(err))
		})
	}
}

func TestHandleCommandRequiresSession(t *testing.T) {
	svc, _, _ := newCommandService(t)

	_, err := svc.HandleCommand(context.Background(), &HandleCommandInput{Command: "roll 1 d 6"})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))
}
