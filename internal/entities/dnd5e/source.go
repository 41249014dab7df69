package dnd5e

import (
	"strings"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

// SourceKind names the kind of rulebook entry that produced a grant or choice.
type SourceKind string

// The closed set of source kinds.
const (
	SourceKindClass      SourceKind = "class"
	SourceKindSubclass   SourceKind = "subclass"
	SourceKindRace       SourceKind = "race"
	SourceKindSubrace    SourceKind = "subrace"
	SourceKindBackground SourceKind = "background"
)

// Source is the class, subclass, race, subrace or background a feature or
// pending choice came from. Implementations are limited to this package.
type Source interface {
	Kind() SourceKind
	RefID() string
	isSource()
}

// ClassSource references a class.
type ClassSource struct{ ClassID string }

// SubclassSource references a subclass.
type SubclassSource struct{ SubclassID string }

// RaceSource references a race.
type RaceSource struct{ RaceID string }

// SubraceSource references a subrace.
type SubraceSource struct{ SubraceID string }

// BackgroundSource references a background.
type BackgroundSource struct{ BackgroundID string }

func (ClassSource) Kind() SourceKind      { return SourceKindClass }
func (SubclassSource) Kind() SourceKind   { return SourceKindSubclass }
func (RaceSource) Kind() SourceKind       { return SourceKindRace }
func (SubraceSource) Kind() SourceKind    { return SourceKindSubrace }
func (BackgroundSource) Kind() SourceKind { return SourceKindBackground }

func (s ClassSource) RefID() string      { return s.ClassID }
func (s SubclassSource) RefID() string   { return s.SubclassID }
func (s RaceSource) RefID() string       { return s.RaceID }
func (s SubraceSource) RefID() string    { return s.SubraceID }
func (s BackgroundSource) RefID() string { return s.BackgroundID }

func (ClassSource) isSource()      {}
func (SubclassSource) isSource()   {}
func (RaceSource) isSource()       {}
func (SubraceSource) isSource()    {}
func (BackgroundSource) isSource() {}

// NewSource builds a Source from its persisted (kind, id) pair.
func NewSource(kind SourceKind, id string) (Source, error) {
	if id == "" {
		return nil, errors.InvalidArgumentf("source %s requires an id", kind)
	}
	switch kind {
	case SourceKindClass:
		return ClassSource{ClassID: id}, nil
	case SourceKindSubclass:
		return SubclassSource{SubclassID: id}, nil
	case SourceKindRace:
		return RaceSource{RaceID: id}, nil
	case SourceKindSubrace:
		return SubraceSource{SubraceID: id}, nil
	case SourceKindBackground:
		return BackgroundSource{BackgroundID: id}, nil
	default:
		return nil, errors.InvalidArgumentf("unknown source kind %q", kind)
	}
}

// SourceKey renders s as "kind:id"; nil renders as "".
func SourceKey(s Source) string {
	if s == nil {
		return ""
	}
	return string(s.Kind()) + ":" + s.RefID()
}

// ParseSourceKey is the inverse of SourceKey. The empty key yields a nil Source.
func ParseSourceKey(key string) (Source, error) {
	if key == "" {
		return nil, nil
	}
	kind, id, ok := strings.Cut(key, ":")
	if !ok {
		return nil, errors.InvalidArgumentf("malformed source key %q", key)
	}
	return NewSource(SourceKind(kind), id)
}
