package service

import (
	"strings"

	"github.com/atinyakov/MineAdmin/internal/models"
)

// ValidateProduct checks a product before it is stored.
func ValidateProduct(p models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalidf("product name is required")
	}
	if p.Price < 0 {
		return invalidf("product price must not be negative")
	}
	if p.Stock < 0 {
		return invalidf("product stock must not be negative")
	}
	return nil
}

// ValidateCategory checks a category before it is stored.
func ValidateCategory(c models.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return invalidf("category name is required")
	}
	if c.ParentID != "" && c.ParentID == c.ID {
		return invalidf("category cannot be its own parent")
	}
	return nil
}

// ValidateBranch checks a branch before it is stored.
func ValidateBranch(b models.Branch) error {
	if strings.TrimSpace(b.Name) == "" {
		return invalidf("branch name is required")
	}
	if strings.TrimSpace(b.Address) == "" {
		return invalidf("branch address is required")
	}
	return nil
}

// ValidateBlog checks a blog post before it is stored.
func ValidateBlog(b models.Blog) error {
	if strings.TrimSpace(b.Title) == "" {
		return invalidf("blog title is required")
	}
	if strings.TrimSpace(b.Content) == "" {
		return invalidf("blog content is required")
	}
	return nil
}

// Slugify derives a URL slug from name.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
