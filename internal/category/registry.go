// Package category holds the fixed, ordered catalog of transaction
// categories and its total lookup.
package category

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is the display metadata attached to a category id.
type Category struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Icon  string `json:"icon" yaml:"icon"`
	Color string `json:"color" yaml:"color"`
}

// Default category ids.
const (
	Food          = "food"
	Transport     = "transport"
	Shopping      = "shopping"
	Entertainment = "entertainment"
	Bills         = "bills"
	Health        = "health"
	Education     = "education"
	Others        = "others"
)

var defaultCatalog = []Category{
	{ID: Food, Name: "Food & Dining", Icon: "🍔", Color: "#FF6B9D"},
	{ID: Transport, Name: "Transportation", Icon: "🚗", Color: "#4DABF7"},
	{ID: Shopping, Name: "Shopping", Icon: "🛍️", Color: "#FFB84D"},
	{ID: Entertainment, Name: "Entertainment", Icon: "🎬", Color: "#00D9A5"},
	{ID: Bills, Name: "Bills & Utilities", Icon: "📄", Color: "#FF5757"},
	{ID: Health, Name: "Health", Icon: "💊", Color: "#8B84FF"},
	{ID: Education, Name: "Education", Icon: "📚", Color: "#FF8DB5"},
	{ID: Others, Name: "Others", Icon: "📦", Color: "#6B6B80"},
}

var (
	ErrEmptyCatalog    = errors.New("category catalog is empty")
	ErrDuplicateID     = errors.New("duplicate category id")
	ErrUnknownFallback = errors.New("fallback category not in catalog")
)

// Registry is an immutable catalog. Lookups never fail: unknown ids resolve
// to the fallback category.
type Registry struct {
	items    []Category
	index    map[string]int
	fallback int
}

// Default returns the built-in catalog with "others" as fallback.
func Default() *Registry {
	r, err := New(defaultCatalog, Others)
	if err != nil {
		panic(err)
	}
	return r
}

// New builds a registry. An empty fallback id selects the last entry.
func New(items []Category, fallbackID string) (*Registry, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}
	r := &Registry{
		items: make([]Category, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, c := range items {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			return nil, fmt.Errorf("category %q: empty id", c.Name)
		}
		if _, ok := r.index[c.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
		}
		if c.Name == "" {
			c.Name = c.ID
		}
		r.index[c.ID] = len(r.items)
		r.items = append(r.items, c)
	}
	if fallbackID == "" {
		r.fallback = len(r.items) - 1
		return r, nil
	}
	i, ok := r.index[fallbackID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFallback, fallbackID)
	}
	r.fallback = i
	return r, nil
}

type catalogFile struct {
	Fallback   string     `yaml:"fallback"`
	Categories []Category `yaml:"categories"`
}

// LoadFile reads a YAML catalog:
//
//	fallback: others
//	categories:
//	  - {id: food, name: Food & Dining, icon: "🍔", color: "#FF6B9D"}
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category file: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse category file: %w", err)
	}
	return New(f.Categories, f.Fallback)
}

// ByID returns the category for id, or the fallback when id is unknown.
func (r *Registry) ByID(id string) Category {
	c, _ := r.Lookup(id)
	return c
}

// Lookup is ByID that also reports whether id was known.
func (r *Registry) Lookup(id string) (Category, bool) {
	if i, ok := r.index[id]; ok {
		return r.items[i], true
	}
	return r.items[r.fallback], false
}

// Color returns the display colour for id.
func (r *Registry) Color(id string) string {
	return r.ByID(id).Color
}

// Fallback returns the category unknown ids resolve to.
func (r *Registry) Fallback() Category {
	return r.items[r.fallback]
}

// All returns the catalog in display order.
func (r *Registry) All() []Category {
	return append([]Category(nil), r.items...)
}

// Len returns the number of categories.
func (r *Registry) Len() int {
	return len(r.items)
}
