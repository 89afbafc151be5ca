// Package catalog curates the starting positions a new session can draw
// from. Every position is a snapshot from a notable game, annotated with
// enough metadata to filter by player, opening, theme, era, or
// difficulty.
package catalog

import (
	"math/rand"
	"strings"
)

// Position is a curated starting position.
type Position struct {
	FEN         string
	Description string
	WhitePlayer string
	BlackPlayer string
	Event       string
	Opening     string
	Year        int
	MoveNumber  int
	Themes      []string
	Complexity  string
	Interest    int // 1 to 10
}

// Criteria narrows the catalog. Zero-valued fields do not filter.
type Criteria struct {
	Player      string
	Opening     string
	Theme       string
	Complexity  string
	YearFrom    int
	YearTo      int
	MinInterest int
}

// Catalog selects positions. The intn seam makes selection deterministic
// in tests.
type Catalog struct {
	positions []Position
	intn      func(n int) int
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithPositions replaces the built-in position set.
func WithPositions(positions []Position) Option {
	return func(c *Catalog) { c.positions = positions }
}

// WithIntn replaces the random index source.
func WithIntn(intn func(n int) int) Option {
	return func(c *Catalog) { c.intn = intn }
}

// New returns a catalog over the built-in curated positions.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		positions: positions,
		intn:      rand.Intn,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Filter returns the positions matching every set criterion.
func (c *Catalog) Filter(criteria Criteria) []Position {
	var matched []Position
	for _, position := range c.positions {
		if position.matches(criteria) {
			matched = append(matched, position)
		}
	}
	return matched
}

// Pick selects a position uniformly at random among those matching the
// criteria. When nothing matches, the pick falls back to the whole
// catalog rather than failing: a session always gets a starting
// position.
func (c *Catalog) Pick(criteria Criteria) Position {
	pool := c.Filter(criteria)
	if len(pool) == 0 {
		pool = c.positions
	}
	return pool[c.intn(len(pool))]
}

// Themes lists every distinct theme in the catalog, for discovery.
func (c *Catalog) Themes() []string {
	seen := make(map[string]struct{})
	var themes []string
	for _, position := range c.positions {
		for _, theme := range position.Themes {
			if _, ok := seen[theme]; ok {
				continue
			}
			seen[theme] = struct{}{}
			themes = append(themes, theme)
		}
	}
	return themes
}

func (p Position) matches(criteria Criteria) bool {
	if criteria.Player != "" && !p.featuresPlayer(criteria.Player) {
		return false
	}
	if criteria.Opening != "" && !containsFold(p.Opening, criteria.Opening) {
		return false
	}
	if criteria.Theme != "" && !p.hasTheme(criteria.Theme) {
		return false
	}
	if criteria.Complexity != "" && !strings.EqualFold(p.Complexity, criteria.Complexity) {
		return false
	}
	if criteria.YearFrom != 0 && p.Year < criteria.YearFrom {
		return false
	}
	if criteria.YearTo != 0 && p.Year > criteria.YearTo {
		return false
	}
	if criteria.MinInterest != 0 && p.Interest < criteria.MinInterest {
		return false
	}
	return true
}

func (p Position) featuresPlayer(name string) bool {
	return containsFold(p.WhitePlayer, name) || containsFold(p.BlackPlayer, name)
}

func (p Position) hasTheme(theme string) bool {
	for _, candidate := range p.Themes {
		if strings.EqualFold(candidate, theme) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
