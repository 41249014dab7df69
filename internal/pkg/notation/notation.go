// Package notation parses and formats dice expressions such as "2d6", "1d20 + 5"
// and "1d8 -1".
package notation

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

// Limits on a single expression. Totals stay well inside int32.
const (
	MaxCount    = 100
	MaxModifier = 10000
)

// Sides accepted by Parse.
var validSides = []int{4, 6, 8, 10, 12, 20, 100}

// Count, sides, then an optional signed modifier separated by a single space.
var diceRe = regexp.MustCompile(`(?i)^(\d+)d(4|6|8|10|12|20|100)($| ([+-]?) *(\d+) *$)`)

// Dice is a parsed dice expression.
type Dice struct {
	Count    int
	Sides    int
	Modifier int
}

// Parse converts text into Dice. Inputs that do not match the grammar fail
// with an InvalidArgument error tagged reason=invalid_format; a count or
// modifier past MaxCount or MaxModifier is tagged reason=out_of_range.
func Parse(text string) (Dice, error) {
	m := diceRe.FindStringSubmatch(text)
	if m == nil {
		return Dice{}, invalidFormat(text)
	}

	count, err := strconv.Atoi(m[1])
	if err != nil {
		return Dice{}, outOfRange("dice count %s exceeds %d", m[1], MaxCount)
	}
	if count < 1 {
		return Dice{}, invalidFormat(text)
	}
	sides, _ := strconv.Atoi(m[2])

	d := Dice{Count: count, Sides: sides}
	if m[3] != "" {
		mod, err := strconv.Atoi(m[5])
		if err != nil {
			return Dice{}, outOfRange("modifier %s exceeds %d", m[5], MaxModifier)
		}
		if m[4] == "-" {
			mod = -mod
		}
		d.Modifier = mod
	}
	if err := d.Validate(); err != nil {
		return Dice{}, err
	}
	return d, nil
}

// Validate checks d against the grammar's die sizes and the count and
// modifier limits. Dice built outside Parse go through it before rolling.
func (d Dice) Validate() error {
	switch {
	case d.Count < 1:
		return errors.InvalidArgumentf("dice count must be positive, got %d", d.Count).
			WithMeta(errors.MetaReason, errors.ReasonInvalidFormat)
	case !ValidSides(d.Sides):
		return errors.InvalidArgumentf("unsupported die d%d", d.Sides).
			WithMeta(errors.MetaReason, errors.ReasonInvalidFormat)
	case d.Count > MaxCount:
		return outOfRange("dice count %d exceeds %d", d.Count, MaxCount)
	case d.Modifier > MaxModifier || d.Modifier < -MaxModifier:
		return outOfRange("modifier %d exceeds %d", d.Modifier, MaxModifier)
	}
	return nil
}

// MustParse is Parse for compile-time constants such as rulebook seed data.
func MustParse(text string) Dice {
	d, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return d
}

// String renders the canonical form: "2d6", "1d20 + 5" or "1d8 - 1".
func (d Dice) String() string {
	switch {
	case d.Modifier > 0:
		return fmt.Sprintf("%dd%d + %d", d.Count, d.Sides, d.Modifier)
	case d.Modifier < 0:
		return fmt.Sprintf("%dd%d - %d", d.Count, d.Sides, -d.Modifier)
	default:
		return fmt.Sprintf("%dd%d", d.Count, d.Sides)
	}
}

// Min is the lowest possible total.
func (d Dice) Min() int {
	return d.Count + d.Modifier
}

// Max is the highest possible total.
func (d Dice) Max() int {
	return d.Count*d.Sides + d.Modifier
}

// ValidSides reports whether sides is a die size the grammar accepts.
func ValidSides(sides int) bool {
	for _, s := range validSides {
		if s == sides {
			return true
		}
	}
	return false
}

// IsInvalidFormat reports whether err came from a failed Parse.
func IsInvalidFormat(err error) bool {
	return errors.HasReason(err, errors.CodeInvalidArgument, errors.ReasonInvalidFormat)
}

// IsOutOfRange reports whether err rejected a count or modifier past the limits.
func IsOutOfRange(err error) bool {
	return errors.HasReason(err, errors.CodeInvalidArgument, errors.ReasonOutOfRange)
}

func outOfRange(format string, args ...any) error {
	return errors.InvalidArgumentf(format, args...).
		WithMeta(errors.MetaReason, errors.ReasonOutOfRange)
}

func invalidFormat(text string) error {
	return errors.InvalidArgumentf("invalid dice notation %q", text).
		WithMeta(errors.MetaReason, errors.ReasonInvalidFormat)
}
