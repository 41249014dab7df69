package dice

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/notation"
	dicesession "github.com/KirkDiggler/rpg-advancement/internal/repositories/dice_session"
)

// Answers of the text-command channel.
const (
	DefaultAnswer    = "I don't understand"
	CriticalHitText  = "Critical hit! Congratulations"
	CriticalMissText = "Critical miss! Sorry"
)

var (
	// "roll 2 d 6", "throw 1 d 20 minus 1"
	regularCommandRe = regexp.MustCompile(`(?i)^(?:roll|throw) (?P<count>[1-9]) d (?P<sides>4|6|8|12|20) ?(?:$|(?P<sign>plus|minus) (?P<mod>\d+)$)`)

	// "roll to hit plus 5", "throw for attack with modifier minus 1"
	attackCommandRe = regexp.MustCompile(`(?i)^(?:roll|throw) (?:for|to) (?:hit|attack) (?:|modifier|with modifier) ?(?P<sign>plus|minus) (?P<mod>\d+)$`)
)

// HandleCommand answers one utterance. Attack commands are tried before
// plain rolls; anything else gets DefaultAnswer and no roll.
func (o *orchestrator) HandleCommand(ctx context.Context, input *HandleCommandInput) (*HandleCommandOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.SessionID == "" {
		return nil, errors.InvalidArgument("session ID is required")
	}

	command := strings.TrimSpace(input.Command)

	var (
		out *HandleCommandOutput
		err error
	)
	if m := match(attackCommandRe, command); m != nil {
		out, err = o.attackRoll(m)
	} else if m := match(regularCommandRe, command); m != nil {
		out, err = o.regularRoll(m)
	} else {
		return &HandleCommandOutput{Text: DefaultAnswer}, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := o.diceSessionRepo.Append(ctx, dicesession.AppendInput{
		EntityID: input.SessionID,
		Context:  ContextVoice,
		Rolls:    []dicesession.DiceRoll{*out.Roll},
		TTL:      o.sessionTTL,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to record voice roll")
	}

	slog.Info("Voice command rolled",
		"session_id", input.SessionID,
		"notation", out.Roll.Notation,
		"total", out.Roll.Total,
		"critical", string(out.Roll.Critical),
	)
	o.published(ctx, ContextVoice, out.Roll)

	return out, nil
}

func (o *orchestrator) regularRoll(m map[string]string) (*HandleCommandOutput, error) {
	count, _ := strconv.Atoi(m["count"])
	sides, _ := strconv.Atoi(m["sides"])
	mod, err := modifier(m)
	if err != nil {
		return nil, err
	}

	roll, err := o.roll(notation.Dice{Count: count, Sides: sides, Modifier: mod}, 0)
	if err != nil {
		return nil, err
	}

	return &HandleCommandOutput{
		Text: fmt.Sprintf("Roll result: %d", roll.Total),
		Roll: roll,
	}, nil
}

// attackRoll throws a d20. A natural 20 or 1 is reported as a critical
// regardless of the modifier.
func (o *orchestrator) attackRoll(m map[string]string) (*HandleCommandOutput, error) {
	mod, err := modifier(m)
	if err != nil {
		return nil, err
	}

	roll, err := o.roll(notation.Dice{Count: 1, Sides: 20, Modifier: mod}, 0)
	if err != nil {
		return nil, err
	}
	roll.Description = "attack"

	out := &HandleCommandOutput{Roll: roll}
	switch roll.DiceTotal {
	case 20:
		roll.Critical = dicesession.CriticalHit
		out.Text = CriticalHitText
	case 1:
		roll.Critical = dicesession.CriticalMiss
		out.Text = CriticalMissText
	default:
		out.Text = fmt.Sprintf("Attack roll result: %d", roll.Total)
	}
	return out, nil
}

func modifier(m map[string]string) (int, error) {
	if m["mod"] == "" {
		return 0, nil
	}
	mod, err := strconv.Atoi(m["mod"])
	if err != nil {
		return 0, errors.InvalidArgumentf("modifier %s exceeds %d", m["mod"], notation.MaxModifier).
			WithMeta(errors.MetaReason, errors.ReasonOutOfRange)
	}
	if strings.EqualFold(m["sign"], "minus") {
		mod = -mod
	}
	return mod, nil
}

// match returns the named groups of re in s, or nil.
func match(re *regexp.Regexp, s string) map[string]string {
	sub := re.FindStringSubmatch(s)
	if sub == nil {
		return nil
	}
	groups := make(map[string]string, len(sub))
	for i, name := range re.SubexpNames() {
		if name != "" {
			groups[name] = sub[i]
		}
	}
	return groups
}
