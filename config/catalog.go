package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// AgeCategory is a selectable age bracket and the token searched for in the age column.
type AgeCategory struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Match string `yaml:"match" json:"match"`
}

// CompensationCategory is a CNAS reimbursement list.
type CompensationCategory struct {
	ID         string `yaml:"id" json:"id"`
	Label      string `yaml:"label" json:"label"`
	Percentage int    `yaml:"percentage" json:"percentage"`
	Tooltip    string `yaml:"tooltip" json:"tooltip"`
}

// Catalog describes the dataset layout and the categorical filters offered on it.
type Catalog struct {
	PrimaryColumn          string                 `yaml:"primary_column" json:"primaryColumn"` // never faceted
	AgeColumn              string                 `yaml:"age_column" json:"ageColumn"`
	CompensationColumn     string                 `yaml:"compensation_column" json:"compensationColumn"`
	DiseaseCodesColumn     string                 `yaml:"disease_codes_column" json:"diseaseCodesColumn"`
	AllCategory            string                 `yaml:"all_category" json:"allCategory"`
	DefaultVisibleColumns  []string               `yaml:"default_visible_columns" json:"defaultVisibleColumns"`
	AgeCategories          []AgeCategory          `yaml:"age_categories" json:"ageCategories"`
	CompensationCategories []CompensationCategory `yaml:"compensation_categories" json:"compensationCategories"`
}

// LoadCatalog reads a catalog file, or the embedded default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
		}
		data = raw
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if cat.AllCategory == "" {
		cat.AllCategory = "toate"
	}
	if err := cat.validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &cat, nil
}

func (c *Catalog) validate() error {
	for name, value := range map[string]string{
		"primary_column":      c.PrimaryColumn,
		"age_column":          c.AgeColumn,
		"compensation_column": c.CompensationColumn,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
	}

	seen := make(map[string]bool)
	for _, a := range c.AgeCategories {
		if a.ID == "" || a.Match == "" {
			return fmt.Errorf("age category needs id and match, got %+v", a)
		}
		if a.ID == c.AllCategory || seen[a.ID] {
			return fmt.Errorf("duplicate age category id %q", a.ID)
		}
		seen[a.ID] = true
	}

	seen = make(map[string]bool)
	for _, cc := range c.CompensationCategories {
		if cc.ID == "" {
			return fmt.Errorf("compensation category needs an id")
		}
		if cc.ID == c.AllCategory || seen[cc.ID] {
			return fmt.Errorf("duplicate compensation category id %q", cc.ID)
		}
		if cc.Percentage < 0 || cc.Percentage > 100 {
			return fmt.Errorf("compensation category %s: percentage %d out of range", cc.ID, cc.Percentage)
		}
		seen[cc.ID] = true
	}

	return nil
}

// AgeTokens maps age category ids to the text searched for in the age column.
func (c *Catalog) AgeTokens() map[string]string {
	out := make(map[string]string, len(c.AgeCategories))
	for _, a := range c.AgeCategories {
		out[a.ID] = a.Match
	}
	return out
}
