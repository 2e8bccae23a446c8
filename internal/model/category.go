package model

import (
	"fmt"
	"strings"
)

// Category classifies a feed and its posts into one of a fixed set of topics.
type Category string

const (
	CategoryAIML        Category = "ai-ml"
	CategoryWebDev      Category = "web-dev"
	CategoryCloudInfra  Category = "cloud-infra"
	CategoryDatabases   Category = "databases"
	CategorySecurity    Category = "security"
	CategoryEngineering Category = "engineering"
)

// AllCategories returns every valid category in canonical order.
func AllCategories() []Category {
	return []Category{
		CategoryAIML,
		CategoryWebDev,
		CategoryCloudInfra,
		CategoryDatabases,
		CategorySecurity,
		CategoryEngineering,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, k := range AllCategories() {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory resolves a user-supplied string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c, nil
	}
	names := make([]string, 0, len(AllCategories()))
	for _, k := range AllCategories() {
		names = append(names, string(k))
	}
	return "", fmt.Errorf("model: unknown category %q (valid: %s)", s, strings.Join(names, ", "))
}
