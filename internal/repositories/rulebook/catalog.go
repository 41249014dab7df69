package rulebook

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/KirkDiggler/rpg-advancement/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

//go:embed data/*.json
var embedded embed.FS

// Config configures the in-memory catalog
type Config struct {
	// Content holds *.json rulebook documents. Defaults to the bundled content.
	Content fs.FS
	// ExtraFiles are documents on disk merged after Content, such as
	// imported spell lists.
	ExtraFiles []string
}

// Catalog is the in-memory Repository built from rulebook documents.
type Catalog struct {
	classes     map[string]*dnd5e.Class
	subclasses  map[string]*dnd5e.Subclass
	races       map[string]*dnd5e.Race
	subraces    map[string]*dnd5e.Subrace
	backgrounds map[string]*dnd5e.Background
	features    map[string]*dnd5e.Feature
	choices     map[dnd5e.ChoiceCode]*dnd5e.AdvancementChoice
	skills      map[string]*dnd5e.Skill
	languages   map[string]*dnd5e.Language
	tools       map[string]*dnd5e.Tool
	maneuvers   map[string]*dnd5e.Maneuver
	spells      map[string]*dnd5e.Spell
	levels      map[string]map[int]*dnd5e.ClassLevel

	// insertion order for stable listings
	classOrder    []string
	raceOrder     []string
	bgOrder       []string
	featureOrder  []string
	skillOrder    []string
	languageOrder []string
	toolOrder     []string
	maneuverOrder []string
}

var _ Repository = (*Catalog)(nil)

// New loads and cross-checks the rulebook. Broken references are integrity
// errors.
func New(cfg *Config) (*Catalog, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	content := cfg.Content
	if content == nil {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			return nil, errors.Wrap(err, "failed to open bundled rulebook")
		}
		content = sub
	}

	c := newCatalog()

	names, err := fs.Glob(content, "*.json")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list rulebook files")
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := fs.ReadFile(content, name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read rulebook file %s", name)
		}
		if err := c.merge(name, data); err != nil {
			return nil, err
		}
	}

	for _, file := range cfg.ExtraFiles {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read rulebook file %s", file)
		}
		if err := c.merge(path.Base(file), data); err != nil {
			return nil, err
		}
	}

	if err := c.link(); err != nil {
		return nil, err
	}

	slog.Debug("rulebook loaded",
		"classes", len(c.classes),
		"features", len(c.features),
		"spells", len(c.spells))

	return c, nil
}

func newCatalog() *Catalog {
	return &Catalog{
		classes:     make(map[string]*dnd5e.Class),
		subclasses:  make(map[string]*dnd5e.Subclass),
		races:       make(map[string]*dnd5e.Race),
		subraces:    make(map[string]*dnd5e.Subrace),
		backgrounds: make(map[string]*dnd5e.Background),
		features:    make(map[string]*dnd5e.Feature),
		choices:     make(map[dnd5e.ChoiceCode]*dnd5e.AdvancementChoice),
		skills:      make(map[string]*dnd5e.Skill),
		languages:   make(map[string]*dnd5e.Language),
		tools:       make(map[string]*dnd5e.Tool),
		maneuvers:   make(map[string]*dnd5e.Maneuver),
		spells:      make(map[string]*dnd5e.Spell),
		levels:      make(map[string]map[int]*dnd5e.ClassLevel),
	}
}

func duplicate(kind, id, file string) error {
	return errors.Integrityf("duplicate %s %q", kind, id).WithMeta("file", file)
}

// merge adds one document. Spells may be redefined by later files; every
// other id must be unique.
func (c *Catalog) merge(file string, data []byte) error {
	doc, err := decodeDocument(file, data)
	if err != nil {
		return err
	}

	for _, s := range doc.Skills {
		if _, ok := c.skills[s.ID]; ok {
			return duplicate("skill", s.ID, file)
		}
		c.skills[s.ID] = s
		c.skillOrder = append(c.skillOrder, s.ID)
	}
	for _, l := range doc.Languages {
		if _, ok := c.languages[l.ID]; ok {
			return duplicate("language", l.ID, file)
		}
		c.languages[l.ID] = l
		c.languageOrder = append(c.languageOrder, l.ID)
	}
	for _, t := range doc.Tools {
		if _, ok := c.tools[t.ID]; ok {
			return duplicate("tool", t.ID, file)
		}
		c.tools[t.ID] = t
		c.toolOrder = append(c.toolOrder, t.ID)
	}
	for _, m := range doc.Maneuvers {
		if _, ok := c.maneuvers[m.ID]; ok {
			return duplicate("maneuver", m.ID, file)
		}
		c.maneuvers[m.ID] = m
		c.maneuverOrder = append(c.maneuverOrder, m.ID)
	}
	for _, fd := range doc.Features {
		f, err := fd.toFeature()
		if err != nil {
			return err
		}
		if _, ok := c.features[f.ID]; ok {
			return duplicate("feature", f.ID, file)
		}
		c.features[f.ID] = f
		c.featureOrder = append(c.featureOrder, f.ID)
	}
	for _, ch := range doc.Choices {
		if _, ok := c.choices[ch.Code]; ok {
			return duplicate("choice", string(ch.Code), file)
		}
		c.choices[ch.Code] = ch
	}
	for _, cl := range doc.Classes {
		if _, ok := c.classes[cl.ID]; ok {
			return duplicate("class", cl.ID, file)
		}
		c.classes[cl.ID] = cl
		c.classOrder = append(c.classOrder, cl.ID)
	}
	for _, sc := range doc.Subclasses {
		if _, ok := c.subclasses[sc.ID]; ok {
			return duplicate("subclass", sc.ID, file)
		}
		c.subclasses[sc.ID] = sc
	}
	for _, r := range doc.Races {
		if _, ok := c.races[r.ID]; ok {
			return duplicate("race", r.ID, file)
		}
		c.races[r.ID] = r
		c.raceOrder = append(c.raceOrder, r.ID)
	}
	for _, sr := range doc.Subraces {
		if _, ok := c.subraces[sr.ID]; ok {
			return duplicate("subrace", sr.ID, file)
		}
		c.subraces[sr.ID] = sr
	}
	for _, b := range doc.Backgrounds {
		if _, ok := c.backgrounds[b.ID]; ok {
			return duplicate("background", b.ID, file)
		}
		c.backgrounds[b.ID] = b
		c.bgOrder = append(c.bgOrder, b.ID)
	}
	for _, ld := range doc.ClassLevels {
		cl, err := ld.toClassLevel()
		if err != nil {
			return err
		}
		key := dnd5e.SourceKey(cl.Owner)
		if c.levels[key] == nil {
			c.levels[key] = make(map[int]*dnd5e.ClassLevel)
		}
		if _, ok := c.levels[key][cl.Level]; ok {
			return duplicate("class level", key+"@"+strconv.Itoa(cl.Level), file)
		}
		c.levels[key][cl.Level] = cl
	}
	for _, s := range doc.Spells {
		c.spells[s.ID] = s
	}

	return nil
}

func (c *Catalog) GetClass(_ context.Context, classID string) (*dnd5e.Class, error) {
	if cl, ok := c.classes[classID]; ok {
		return cl, nil
	}
	return nil, errors.NotFoundf("class %s not found", classID)
}

func (c *Catalog) ListClasses(_ context.Context) ([]*dnd5e.Class, error) {
	out := make([]*dnd5e.Class, 0, len(c.classOrder))
	for _, id := range c.classOrder {
		out = append(out, c.classes[id])
	}
	return out, nil
}

func (c *Catalog) GetSubclass(_ context.Context, subclassID string) (*dnd5e.Subclass, error) {
	if sc, ok := c.subclasses[subclassID]; ok {
		return sc, nil
	}
	return nil, errors.NotFoundf("subclass %s not found", subclassID)
}

func (c *Catalog) ListSubclasses(_ context.Context, classID string) ([]*dnd5e.Subclass, error) {
	var out []*dnd5e.Subclass
	for _, sc := range c.subclasses {
		if sc.ClassID == classID {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *Catalog) GetRace(_ context.Context, raceID string) (*dnd5e.Race, error) {
	if r, ok := c.races[raceID]; ok {
		return r, nil
	}
	return nil, errors.NotFoundf("race %s not found", raceID)
}

func (c *Catalog) ListRaces(_ context.Context) ([]*dnd5e.Race, error) {
	out := make([]*dnd5e.Race, 0, len(c.raceOrder))
	for _, id := range c.raceOrder {
		out = append(out, c.races[id])
	}
	return out, nil
}

func (c *Catalog) GetSubrace(_ context.Context, subraceID string) (*dnd5e.Subrace, error) {
	if sr, ok := c.subraces[subraceID]; ok {
		return sr, nil
	}
	return nil, errors.NotFoundf("subrace %s not found", subraceID)
}

func (c *Catalog) GetBackground(_ context.Context, backgroundID string) (*dnd5e.Background, error) {
	if b, ok := c.backgrounds[backgroundID]; ok {
		return b, nil
	}
	return nil, errors.NotFoundf("background %s not found", backgroundID)
}

func (c *Catalog) ListBackgrounds(_ context.Context) ([]*dnd5e.Background, error) {
	out := make([]*dnd5e.Background, 0, len(c.bgOrder))
	for _, id := range c.bgOrder {
		out = append(out, c.backgrounds[id])
	}
	return out, nil
}

func (c *Catalog) GetFeature(_ context.Context, featureID string) (*dnd5e.Feature, error) {
	if f, ok := c.features[featureID]; ok {
		return f, nil
	}
	return nil, errors.NotFoundf("feature %s not found", featureID)
}

func (c *Catalog) ListFeatures(_ context.Context, group string) ([]*dnd5e.Feature, error) {
	var out []*dnd5e.Feature
	for _, id := range c.featureOrder {
		f := c.features[id]
		if group == "" || f.Group == group {
			out = append(out, f)
		}
	}
	return out, nil
}

func (c *Catalog) GetChoice(_ context.Context, code dnd5e.ChoiceCode) (*dnd5e.AdvancementChoice, error) {
	if ch, ok := c.choices[code]; ok {
		return ch, nil
	}
	return nil, errors.Integrityf("advancement choice %s missing from catalog", code)
}

func (c *Catalog) GetClassLevel(_ context.Context, owner dnd5e.Source, level int) (*dnd5e.ClassLevel, error) {
	if cl, ok := c.levels[dnd5e.SourceKey(owner)][level]; ok {
		return cl, nil
	}
	return nil, errors.NotFoundf("%s grants nothing at level %d", dnd5e.SourceKey(owner), level)
}

func (c *Catalog) ListClassLevels(_ context.Context, owner dnd5e.Source) ([]*dnd5e.ClassLevel, error) {
	rows := c.levels[dnd5e.SourceKey(owner)]
	out := make([]*dnd5e.ClassLevel, 0, len(rows))
	for _, cl := range rows {
		out = append(out, cl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (c *Catalog) ListSkills(_ context.Context) ([]*dnd5e.Skill, error) {
	out := make([]*dnd5e.Skill, 0, len(c.skillOrder))
	for _, id := range c.skillOrder {
		out = append(out, c.skills[id])
	}
	return out, nil
}

func (c *Catalog) ListLanguages(_ context.Context) ([]*dnd5e.Language, error) {
	out := make([]*dnd5e.Language, 0, len(c.languageOrder))
	for _, id := range c.languageOrder {
		out = append(out, c.languages[id])
	}
	return out, nil
}

func (c *Catalog) ListTools(_ context.Context, category dnd5e.ToolCategory) ([]*dnd5e.Tool, error) {
	var out []*dnd5e.Tool
	for _, id := range c.toolOrder {
		if t := c.tools[id]; t.Category == category {
			out = append(out, t)
		}
	}
	return out, nil
}

func (c *Catalog) GetTool(_ context.Context, toolID string) (*dnd5e.Tool, error) {
	if t, ok := c.tools[toolID]; ok {
		return t, nil
	}
	return nil, errors.NotFoundf("tool %s not found", toolID)
}

func (c *Catalog) ListManeuvers(_ context.Context) ([]*dnd5e.Maneuver, error) {
	out := make([]*dnd5e.Maneuver, 0, len(c.maneuverOrder))
	for _, id := range c.maneuverOrder {
		out = append(out, c.maneuvers[id])
	}
	return out, nil
}

func (c *Catalog) GetSpell(_ context.Context, spellID string) (*dnd5e.Spell, error) {
	if s, ok := c.spells[spellID]; ok {
		return s, nil
	}
	return nil, errors.NotFoundf("spell %s not found", spellID)
}

func (c *Catalog) ListSpells(_ context.Context, classID string) ([]*dnd5e.Spell, error) {
	var out []*dnd5e.Spell
	for _, s := range c.spells {
		if classID == "" || s.HasClass(classID) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return strings.Compare(out[i].Name, out[j].Name) < 0
	})
	return out, nil
}
