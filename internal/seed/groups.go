package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"postboard/internal/cache"
	"postboard/internal/models"
	"postboard/internal/validation"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed fixtures/groups.yml
var defaultGroupFixtures []byte

// GroupFixture is one entry of a groups YAML file.
type GroupFixture struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

// ParseGroupFixtures decodes and validates a YAML list of groups.
func ParseGroupFixtures(data []byte) ([]GroupFixture, error) {
	var fixtures []GroupFixture
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("decode group fixtures: %w", err)
	}
	seen := make(map[string]bool, len(fixtures))
	for i, f := range fixtures {
		if f.Title == "" {
			return nil, fmt.Errorf("group fixture %d: title is required", i)
		}
		if err := validation.ValidateGroupSlug(f.Slug); err != nil {
			return nil, fmt.Errorf("group fixture %d: %w", i, err)
		}
		if seen[f.Slug] {
			return nil, fmt.Errorf("group fixture %d: duplicate slug %q", i, f.Slug)
		}
		seen[f.Slug] = true
	}
	return fixtures, nil
}

// LoadGroupFixtures reads fixtures from path, or the built-in set when path is empty.
func LoadGroupFixtures(path string) ([]GroupFixture, error) {
	if path == "" {
		return ParseGroupFixtures(defaultGroupFixtures)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read group fixtures: %w", err)
	}
	return ParseGroupFixtures(data)
}

// Groups upserts fixtures by slug and returns the stored rows. Running it
// twice leaves one row per slug.
func Groups(ctx context.Context, db *gorm.DB, fixtures []GroupFixture) ([]models.Group, error) {
	groups := make([]models.Group, 0, len(fixtures))
	for _, f := range fixtures {
		group := models.Group{Title: f.Title, Slug: f.Slug, Description: f.Description}
		err := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description"}),
		}).Create(&group).Error
		if err != nil {
			return nil, fmt.Errorf("seed group %s: %w", f.Slug, err)
		}
		// Some dialects do not report the id of an updated row.
		if err := db.WithContext(ctx).Where("slug = ?", f.Slug).First(&group).Error; err != nil {
			return nil, fmt.Errorf("reload group %s: %w", f.Slug, err)
		}
		cache.InvalidateGroup(ctx, f.Slug)
		groups = append(groups, group)
	}
	return groups, nil
}
