package query

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Category maps a public slug to the opaque identifier the site filters on
type Category struct {
	Slug    string   `yaml:"slug"`
	ID      string   `yaml:"id"`
	Aliases []string `yaml:"aliases"`
}

type catalogFile struct {
	Grades   []Category `yaml:"grades"`
	Subjects []Category `yaml:"subjects"`
}

// Catalog is the closed set of grades and subjects accepted by the service.
// It is immutable once loaded and is shared by validation and URL building.
type Catalog struct {
	grades   []Category
	subjects []Category

	gradeIndex   map[string]Category
	subjectIndex map[string]Category // Slugs and aliases
}

// LoadCatalog parses a catalog from YAML
func LoadCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if len(file.Grades) == 0 || len(file.Subjects) == 0 {
		return nil, fmt.Errorf("catalog must define at least one grade and one subject")
	}

	gradeIndex, err := indexCategories("grade", file.Grades)
	if err != nil {
		return nil, err
	}
	subjectIndex, err := indexCategories("subject", file.Subjects)
	if err != nil {
		return nil, err
	}

	return &Catalog{
		grades:       file.Grades,
		subjects:     file.Subjects,
		gradeIndex:   gradeIndex,
		subjectIndex: subjectIndex,
	}, nil
}

// DefaultCatalog returns the catalog embedded in the binary
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

func indexCategories(kind string, categories []Category) (map[string]Category, error) {
	index := make(map[string]Category, len(categories))
	for _, cat := range categories {
		if cat.Slug == "" || cat.ID == "" {
			return nil, fmt.Errorf("%s entry needs both slug and id", kind)
		}
		for _, key := range append([]string{cat.Slug}, cat.Aliases...) {
			key = strings.ToLower(key)
			if _, exists := index[key]; exists {
				return nil, fmt.Errorf("duplicate %s key %q", kind, key)
			}
			index[key] = cat
		}
	}
	return index, nil
}

// Grade looks up a grade by slug
func (c *Catalog) Grade(slug string) (Category, bool) {
	cat, ok := c.gradeIndex[strings.ToLower(slug)]
	return cat, ok
}

// Subject looks up a subject by slug or alias
func (c *Catalog) Subject(slug string) (Category, bool) {
	cat, ok := c.subjectIndex[strings.ToLower(slug)]
	return cat, ok
}

// GradeSlugs lists the accepted grades in catalog order
func (c *Catalog) GradeSlugs() []string {
	return slugs(c.grades)
}

// SubjectSlugs lists the canonical subject slugs in catalog order
func (c *Catalog) SubjectSlugs() []string {
	return slugs(c.subjects)
}

func slugs(categories []Category) []string {
	out := make([]string, 0, len(categories))
	for _, cat := range categories {
		out = append(out, cat.Slug)
	}
	return out
}
