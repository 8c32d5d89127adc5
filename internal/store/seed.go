package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"expensetab/internal/core"
)

var ErrEmptySeed = errors.New("seed file defines no categories")

type seedFile struct {
	Categories []seedCategory `yaml:"categories"`
}

type seedCategory struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
	Icon  string `yaml:"icon"`
}

// ParseSeed reads a category seed document:
//
//	categories:
//	  - name: Groceries
//	    color: "#96CEB4"
//	    icon: Utensils
//
// Entries without an id are numbered from 1 in document order.
func ParseSeed(r io.Reader) ([]core.Category, error) {
	var doc seedFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, ErrEmptySeed
	}

	out := make([]core.Category, 0, len(doc.Categories))
	seen := make(map[string]bool, len(doc.Categories))
	for i, sc := range doc.Categories {
		c := core.Category{ID: sc.ID, Name: sc.Name, Color: sc.Color, Icon: sc.Icon}
		if c.ID == "" {
			c.ID = strconv.Itoa(i + 1)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i+1, err)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("seed entry %d: duplicate id %q", i+1, c.ID)
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out, nil
}

// LoadSeed reads a seed file, or returns the built-in defaults when path is
// empty.
func LoadSeed(path string) ([]core.Category, error) {
	if path == "" {
		return core.DefaultCategories(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}
