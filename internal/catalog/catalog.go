// Package catalog holds the read-only list of collectible bunnies.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed bunnies.toml
var defaultCatalog []byte

var (
	ErrEmptyCatalog = errors.New("catalog has no items")
	ErrInvalidItem  = errors.New("invalid catalog item")
)

// Item is one collectible. Display fields are passed through to clients untouched.
type Item struct {
	ID           string `toml:"id" json:"id"`
	Name         string `toml:"name" json:"name"`
	Emoji        string `toml:"emoji" json:"emoji"`
	Color        string `toml:"color" json:"color"`
	Image        string `toml:"image" json:"image"`
	Description  string `toml:"description" json:"description"`
	UnlockStreak int    `toml:"unlock_streak" json:"unlock_streak"`
}

type file struct {
	Items []Item `toml:"item"`
}

// Catalog is an ordered, immutable item registry. It is safe for concurrent use.
type Catalog struct {
	items []Item
	index map[string]int
}

// New validates items and builds a catalog that keeps their order.
func New(items []Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		items: make([]Item, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for i, item := range items {
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			return nil, fmt.Errorf("%w: item %d has no id", ErrInvalidItem, i)
		}
		if item.UnlockStreak < 0 {
			return nil, fmt.Errorf("%w: %s has negative unlock_streak", ErrInvalidItem, item.ID)
		}
		if _, dup := c.index[item.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidItem, item.ID)
		}
		c.index[item.ID] = len(c.items)
		c.items = append(c.items, item)
	}
	return c, nil
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes a TOML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return New(f.Items)
}

// Load reads a TOML catalog from path. An empty path selects the bundled catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Items returns a copy of the items in catalog order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Get looks up an item by id.
func (c *Catalog) Get(id string) (Item, bool) {
	i, ok := c.index[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

func (c *Catalog) Len() int {
	return len(c.items)
}
