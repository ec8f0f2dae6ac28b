package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/mcoot/domonhunt/internal/dependencies/random"
	"github.com/mcoot/domonhunt/internal/model"
)

//go:embed domodex.yaml
var domodex []byte

// PageSize is the number of entries per domodex page
const PageSize = 30

var rarityWeights = map[model.Rarity]int{
	model.RarityCommon:    55,
	model.RarityUncommon:  24,
	model.RarityRare:      14,
	model.RarityLegendary: 7,
}

var captureRates = map[model.Rarity]float64{
	model.RarityCommon:    0.90,
	model.RarityUncommon:  0.65,
	model.RarityRare:      0.30,
	model.RarityLegendary: 0.10,
}

// Weight returns the spawn weight of a rarity tier
func Weight(r model.Rarity) int {
	return rarityWeights[r]
}

// CaptureRate returns the probability a single capture roll succeeds
func CaptureRate(r model.Rarity) float64 {
	return captureRates[r]
}

// Catalog is the read-only table of creature definitions, ordered by number
type Catalog struct {
	creatures []model.Creature
	byNumber  map[int]int
	byName    map[string]int
	total     int
}

// Load parses the embedded domodex
func Load() (*Catalog, error) {
	return Parse(domodex)
}

// Parse builds a catalog from YAML
func Parse(data []byte) (*Catalog, error) {
	var creatures []model.Creature
	if err := yaml.Unmarshal(data, &creatures); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(creatures)
}

// New builds a catalog from definitions, validating cross references
func New(creatures []model.Creature) (*Catalog, error) {
	c := &Catalog{
		creatures: make([]model.Creature, len(creatures)),
		byNumber:  make(map[int]int, len(creatures)),
		byName:    make(map[string]int, len(creatures)),
	}
	copy(c.creatures, creatures)
	sort.SliceStable(c.creatures, func(i, j int) bool {
		return c.creatures[i].Number < c.creatures[j].Number
	})

	for i, cr := range c.creatures {
		if err := cr.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byNumber[cr.Number]; dup {
			return nil, fmt.Errorf("%w: duplicate number %d", model.ErrInvalidCreature, cr.Number)
		}
		key := normalize(cr.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", model.ErrInvalidCreature, cr.Name)
		}
		c.byNumber[cr.Number] = i
		c.byName[key] = i
		c.total += Weight(cr.Rarity)
	}

	for _, cr := range c.creatures {
		if cr.HasEvolution() {
			if _, ok := c.byName[normalize(cr.Evolution)]; !ok {
				return nil, fmt.Errorf("%w: %s evolves into unknown %q", model.ErrInvalidCreature, cr.Name, cr.Evolution)
			}
		}
	}
	return c, nil
}

// MustLoad is Load for process start, panicking on a broken embed
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of definitions
func (c *Catalog) Len() int {
	return len(c.creatures)
}

// All returns every definition in number order
func (c *Catalog) All() []model.Creature {
	out := make([]model.Creature, len(c.creatures))
	copy(out, c.creatures)
	return out
}

// ByNumber finds a definition by its ordinal
func (c *Catalog) ByNumber(n int) (model.Creature, error) {
	i, ok := c.byNumber[n]
	if !ok {
		return model.Creature{}, fmt.Errorf("%w: #%d", model.ErrCreatureNotFound, n)
	}
	return c.creatures[i], nil
}

// ByName finds a definition by name, ignoring case
func (c *Catalog) ByName(name string) (model.Creature, error) {
	i, ok := c.byName[normalize(name)]
	if !ok {
		return model.Creature{}, fmt.Errorf("%w: %q", model.ErrCreatureNotFound, name)
	}
	return c.creatures[i], nil
}

// Lookup accepts a name, a number, or a number prefixed with #
func (c *Catalog) Lookup(query string) (model.Creature, error) {
	q := strings.TrimSpace(query)
	if n, err := strconv.Atoi(strings.TrimPrefix(q, "#")); err == nil {
		return c.ByNumber(n)
	}
	return c.ByName(q)
}

// Pick draws a definition weighted by rarity
func (c *Catalog) Pick(rnd random.Random) model.Creature {
	if c.total == 0 {
		return c.creatures[rnd.Intn(len(c.creatures))]
	}
	roll := rnd.Intn(c.total)
	for _, cr := range c.creatures {
		roll -= Weight(cr.Rarity)
		if roll < 0 {
			return cr
		}
	}
	return c.creatures[len(c.creatures)-1]
}

// Pages returns the number of domodex pages
func (c *Catalog) Pages() int {
	return (len(c.creatures) + PageSize - 1) / PageSize
}

// Page returns the entries of a 1-indexed page, clamped to the valid range
func (c *Catalog) Page(page int) ([]model.Creature, int) {
	pages := c.Pages()
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * PageSize
	end := min(start+PageSize, len(c.creatures))
	if start < 0 || start >= end {
		return nil, page
	}
	out := make([]model.Creature, end-start)
	copy(out, c.creatures[start:end])
	return out, page
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
