package pipeline

import (
	"fmt"
	"strings"

	"github.com/dvloznov/budgetrak/internal/domain"
)

// CategoryValidator maps model output onto the category taxonomy.
type CategoryValidator struct {
	categories map[string]string // normalized name -> canonical name
	fallback   string
}

// NewCategoryValidator builds a validator over names. Unknown categories
// resolve to fallback.
func NewCategoryValidator(names []string, fallback string) *CategoryValidator {
	v := &CategoryValidator{
		categories: make(map[string]string, len(names)),
		fallback:   fallback,
	}
	for _, n := range names {
		v.categories[normalizeCategory(n)] = n
	}
	return v
}

// NewDefaultCategoryValidator uses the built-in taxonomy with "Other" as fallback.
func NewDefaultCategoryValidator() *CategoryValidator {
	return NewCategoryValidator(domain.Categories, domain.CategoryOther)
}

// ValidateCategory returns an error when category is not in the taxonomy.
func (v *CategoryValidator) ValidateCategory(category string) error {
	if _, ok := v.categories[normalizeCategory(category)]; !ok {
		return fmt.Errorf("invalid category: %q (normalized: %q)", category, normalizeCategory(category))
	}
	return nil
}

// Canonical returns the taxonomy spelling of category. Empty input stays
// empty; anything unknown becomes the fallback.
func (v *CategoryValidator) Canonical(category string) string {
	if strings.TrimSpace(category) == "" {
		return ""
	}
	if c, ok := v.categories[normalizeCategory(category)]; ok {
		return c
	}
	return v.fallback
}

// normalizeCategory normalizes a category name for comparison.
// Converts to uppercase, collapses whitespace and drops spaces around slashes.
func normalizeCategory(name string) string {
	s := strings.Join(strings.Fields(strings.ToUpper(name)), " ")
	return strings.ReplaceAll(strings.ReplaceAll(s, " /", "/"), "/ ", "/")
}
