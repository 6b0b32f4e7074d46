package utils

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// romanianFold maps Romanian diacritics to their ASCII base letters.
var romanianFold = strings.NewReplacer(
	"ă", "a", "â", "a", "î", "i", "ș", "s", "ş", "s", "ț", "t", "ţ", "t",
	"Ă", "a", "Â", "a", "Î", "i", "Ș", "s", "Ş", "s", "Ț", "t", "Ţ", "t",
)

// Slugify converts a post title into a URL-safe slug.
func Slugify(title string) string {
	s := romanianFold.Replace(title)
	s = strings.ToLower(s)
	s = slugStrip.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 80 {
		s = s[:80]
		s = strings.Trim(s, "-")
	}
	if s == "" {
		s = "post"
	}
	return s
}

// UniqueSlug returns a slug for the title that does not collide with an
// existing row in the posts table, appending a short random suffix on conflict.
func UniqueSlug(db *gorm.DB, title string) (string, error) {
	base := Slugify(title)
	slug := base
	for i := 0; i < 10; i++ {
		var count int64
		if err := db.Table("posts").Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%04d", base, rand.Intn(10000))
	}
	return "", fmt.Errorf("could not find free slug for %q", base)
}
