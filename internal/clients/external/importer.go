// Package external imports SRD reference data from the dnd5e-api into
// rulebook documents.
package external

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	api "github.com/fadedpez/dnd5e-api/clients/dnd5e"
	apientities "github.com/fadedpez/dnd5e-api/entities"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/repositories/rulebook"
)

const (
	// DefaultBaseURL is the public SRD API.
	DefaultBaseURL = "https://www.dnd5eapi.co/api/2014/"
	// DefaultWorkers bounds concurrent spell detail requests.
	DefaultWorkers = 8
)

// SpellClasses are the classes with a spell list in the SRD.
var SpellClasses = []string{"bard", "cleric", "druid", "paladin", "ranger", "sorcerer", "warlock", "wizard"}

// SpellSource is the part of the dnd5e-api client the importer needs.
type SpellSource interface {
	ListSpells(input *api.ListSpellsInput) ([]*apientities.ReferenceItem, error)
	GetSpell(key string) (*apientities.Spell, error)
}

// SourceConfig configures the HTTP client behind NewDND5eSource.
type SourceConfig struct {
	// BaseURL for the D&D 5e API (optional, defaults to DefaultBaseURL)
	BaseURL string
	// HTTPTimeout for API requests (optional, defaults to 30 seconds)
	HTTPTimeout time.Duration
	// CacheTTL for the cached client (optional, defaults to 24 hours)
	CacheTTL time.Duration
}

// NewDND5eSource builds a cached dnd5e-api client.
func NewDND5eSource(cfg *SourceConfig) (SpellSource, error) {
	if cfg == nil {
		cfg = &SourceConfig{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 24 * time.Hour
	}

	base, err := api.NewDND5eAPI(&api.DND5eAPIConfig{
		Client:  &http.Client{Timeout: cfg.HTTPTimeout},
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create dnd5e api client")
	}

	return api.NewCachedClient(base, cfg.CacheTTL), nil
}

// Config holds the importer dependencies.
type Config struct {
	Source  SpellSource
	Workers int
}

// Validate checks the config and fills defaults.
func (cfg *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if cfg.Source == nil {
		vb.RequiredField("Source")
	}
	if cfg.Workers < 0 {
		vb.InvalidField("Workers", "must not be negative")
	}
	if err := vb.Build(); err != nil {
		return err
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	return nil
}

// Importer pulls spell lists and details from a SpellSource.
type Importer struct {
	source  SpellSource
	workers int
}

// NewImporter creates an importer.
func NewImporter(cfg *Config) (*Importer, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Importer{source: cfg.Source, workers: cfg.Workers}, nil
}

// ImportSpellsInput selects the class lists to pull. Empty means all of
// SpellClasses.
type ImportSpellsInput struct {
	Classes []string
}

// ImportSpellsOutput holds spells ordered by level then id.
type ImportSpellsOutput struct {
	Spells []*dnd5e.Spell
}

// ImportSpells lists each class's spells, then fetches every distinct spell
// once. A spell on several lists carries all of those classes.
func (i *Importer) ImportSpells(ctx context.Context, input *ImportSpellsInput) (*ImportSpellsOutput, error) {
	if input == nil {
		input = &ImportSpellsInput{}
	}

	classes := input.Classes
	if len(classes) == 0 {
		classes = SpellClasses
	}

	byKey := make(map[string][]string)
	var keys []string
	for _, class := range classes {
		class = strings.ToLower(strings.TrimSpace(class))
		if class == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "spell import cancelled")
		}

		refs, err := i.source.ListSpells(&api.ListSpellsInput{Class: class})
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeUnavailable,
				"failed to list spells for class "+class)
		}
		slog.Debug("listed class spells", "class_id", class, "count", len(refs))

		for _, ref := range refs {
			if ref == nil || ref.Key == "" {
				continue
			}
			if _, ok := byKey[ref.Key]; !ok {
				keys = append(keys, ref.Key)
			}
			if !slices.Contains(byKey[ref.Key], class) {
				byKey[ref.Key] = append(byKey[ref.Key], class)
			}
		}
	}

	spells := make([]*dnd5e.Spell, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)
	for idx, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			spell, err := i.source.GetSpell(key)
			if err != nil {
				return errors.WrapWithCode(err, errors.CodeUnavailable, "failed to get spell "+key)
			}
			if spell == nil {
				return errors.NotFoundf("spell %s", key)
			}
			spells[idx] = convertSpell(key, spell, byKey[key])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "spell import failed")
	}

	slices.SortFunc(spells, func(a, b *dnd5e.Spell) int {
		if a.Level != b.Level {
			return a.Level - b.Level
		}
		return strings.Compare(a.ID, b.ID)
	})

	slog.Info("spells imported", "classes", len(classes), "count", len(spells))

	return &ImportSpellsOutput{Spells: spells}, nil
}

// WriteDocument writes spells as a rulebook document.
func WriteDocument(w io.Writer, spells []*dnd5e.Spell) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rulebook.SpellDocument(spells)); err != nil {
		return errors.Wrap(err, "failed to write spell document")
	}
	return nil
}

func convertSpell(key string, spell *apientities.Spell, classes []string) *dnd5e.Spell {
	sorted := slices.Clone(classes)
	slices.Sort(sorted)

	out := &dnd5e.Spell{
		ID:            key,
		Name:          spell.Name,
		Level:         spell.SpellLevel,
		Classes:       sorted,
		CastingTime:   spell.CastingTime,
		Range:         spell.Range,
		Duration:      spell.Duration,
		Ritual:        spell.Ritual,
		Concentration: spell.Concentration,
	}
	if spell.SpellSchool != nil {
		out.School = spell.SpellSchool.Name
	}
	return out
}
