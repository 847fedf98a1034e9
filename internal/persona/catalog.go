package persona

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CatalogEntry describes one known persona: its menu key, display name, and
// document-store id.
type CatalogEntry struct {
	Key   string `yaml:"key"`
	Name  string `yaml:"name"`
	ID    string `yaml:"id"`
	File  string `yaml:"file"`
	Brief string `yaml:"brief"`
}

// Handle returns the lowercase first-name mention handle for the entry.
func (e CatalogEntry) Handle() string {
	first := e.Name
	if i := strings.IndexAny(first, " \t"); i >= 0 {
		first = first[:i]
	}
	return strings.ToLower(first)
}

// Catalog is the explicit persona registry passed into the room and the
// command router at construction. There is no process-wide registry or
// mention map: all lookup state lives here.
type Catalog struct {
	entries   []CatalogEntry
	byKey     map[string]CatalogEntry
	byMention map[string]CatalogEntry
}

// NewCatalog builds a catalog from the given entries. Later entries with a
// duplicate key or handle replace earlier ones.
func NewCatalog(entries []CatalogEntry) *Catalog {
	c := &Catalog{
		byKey:     make(map[string]CatalogEntry),
		byMention: make(map[string]CatalogEntry),
	}
	for _, e := range entries {
		if _, exists := c.byKey[e.Key]; exists {
			for i := range c.entries {
				if c.entries[i].Key == e.Key {
					c.entries[i] = e
					break
				}
			}
		} else {
			c.entries = append(c.entries, e)
		}
		c.byKey[e.Key] = e
		c.byMention[e.Handle()] = e
	}
	return c
}

// DefaultCatalog returns the built-in persona registry.
func DefaultCatalog() *Catalog {
	return NewCatalog([]CatalogEntry{
		{
			Key:   "1",
			Name:  "Lena",
			ID:    "persona_german_transfer_student_23",
			File:  "female_23.json",
			Brief: "23, German transfer student, budget-aware early adopter",
		},
		{
			Key:   "2",
			Name:  "Marcus",
			ID:    "persona_designer_dad_38_refined",
			File:  "male_38.json",
			Brief: "38, designer and father, values craft over hype",
		},
	})
}

// LoadCatalog reads a registry YAML file and merges it over the defaults.
// A missing file returns the defaults unchanged.
func LoadCatalog(path string) (*Catalog, error) {
	base := DefaultCatalog()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var extra []CatalogEntry
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}

	return NewCatalog(append(base.Entries(), extra...)), nil
}

// ByKey looks up an entry by menu key.
func (c *Catalog) ByKey(key string) (CatalogEntry, bool) {
	e, ok := c.byKey[key]
	return e, ok
}

// ByMention looks up an entry by mention handle, case-insensitively.
// A leading "@" is accepted and ignored.
func (c *Catalog) ByMention(handle string) (CatalogEntry, bool) {
	handle = strings.ToLower(strings.TrimPrefix(handle, "@"))
	e, ok := c.byMention[handle]
	return e, ok
}

// Entries returns the catalog entries in registration order.
func (c *Catalog) Entries() []CatalogEntry {
	out := make([]CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Handles returns all mention handles, sorted, for "known personas" hints.
func (c *Catalog) Handles() []string {
	handles := make([]string, 0, len(c.byMention))
	for h := range c.byMention {
		handles = append(handles, h)
	}
	sort.Strings(handles)
	return handles
}
