// Package rules holds the static 5e lookup tables the advancement engine
// reads: proficiency bonus, spellcasting progression, multiclass ability
// prerequisites and per-class numeric tables such as sneak attack dice.
//
// Everything here is immutable and safe for concurrent use.
package rules
