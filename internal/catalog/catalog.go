package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// PricingTier is one plan in an app's pricing table.
type PricingTier struct {
	Name       string   `json:"name"`
	Price      string   `json:"price"`
	Highlights []string `json:"highlights,omitempty"`
}

// App is one catalog entry for a Kingdom suite product.
type App struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Route             string        `json:"route"`
	Tagline           string        `json:"tagline"`
	Description       string        `json:"description"`
	Features          []string      `json:"features,omitempty"`
	Benefits          []string      `json:"benefits,omitempty"`
	Pricing           []PricingTier `json:"pricing,omitempty"`
	Audience          string        `json:"audience,omitempty"`
	UseCases          []string      `json:"use_cases,omitempty"`
	BiblicalPrinciple string        `json:"biblical_principle,omitempty"`
	InterestTags      []string      `json:"interest_tags,omitempty"`
}

// Catalog is a read-only lookup over the app entries. It is safe for
// concurrent use after construction.
type Catalog struct {
	apps    []App
	byID    map[string]int
	byRoute map[string]int
}

// New builds a catalog and validates entry uniqueness.
func New(apps []App) (*Catalog, error) {
	c := &Catalog{
		apps:    apps,
		byID:    make(map[string]int, len(apps)),
		byRoute: make(map[string]int, len(apps)),
	}
	for i, app := range apps {
		id := strings.TrimSpace(app.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog entry %d has empty id", i)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", id)
		}
		c.byID[id] = i
		if route := strings.TrimSpace(app.Route); route != "" {
			c.byRoute[route] = i
		}
	}
	return c, nil
}

// Load reads a JSON catalog file when path is non-empty, otherwise it
// returns the compiled-in Kingdom catalog.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var apps []App
	if err := json.Unmarshal(raw, &apps); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	return New(apps)
}

// Apps returns entries in catalog order.
func (c *Catalog) Apps() []App {
	out := make([]App, len(c.apps))
	copy(out, c.apps)
	return out
}

func (c *Catalog) ByID(id string) (App, bool) {
	i, ok := c.byID[id]
	if !ok {
		return App{}, false
	}
	return c.apps[i], true
}

// ByRoute maps a UI page path to its app entry.
func (c *Catalog) ByRoute(route string) (App, bool) {
	i, ok := c.byRoute[strings.TrimSpace(route)]
	if !ok {
		return App{}, false
	}
	return c.apps[i], true
}

// MatchMentions returns the ids of every app whose name or id appears in
// the text. All matches are reported, in catalog order.
func (c *Catalog) MatchMentions(text string) []string {
	lower := strings.ToLower(text)
	var ids []string
	for _, app := range c.apps {
		if strings.Contains(lower, strings.ToLower(app.Name)) || strings.Contains(lower, strings.ToLower(app.ID)) {
			ids = append(ids, app.ID)
		}
	}
	return ids
}

// RecommendByInterests ranks apps by overlap between the given interests
// and each app's interest tags. Apps with no overlap are omitted. Ties
// keep catalog order.
func (c *Catalog) RecommendByInterests(interests []string, limit int) []App {
	if len(interests) == 0 {
		return nil
	}
	want := make(map[string]bool, len(interests))
	for _, in := range interests {
		want[strings.ToLower(strings.TrimSpace(in))] = true
	}

	type scored struct {
		app   App
		score int
		order int
	}
	var ranked []scored
	for i, app := range c.apps {
		score := 0
		for _, tag := range app.InterestTags {
			if want[strings.ToLower(tag)] {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{app: app, score: score, order: i})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].order < ranked[j].order
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]App, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.app)
	}
	return out
}
