package utils

import (
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple title", "Hello World", "hello-world"},
		{"romanian diacritics", "O seară liniștită în București", "o-seara-linistita-in-bucuresti"},
		{"cedilla variants", "Puţină şansă", "putina-sansa"},
		{"punctuation collapsed", "Ce mai faci?! -- Bine...", "ce-mai-faci-bine"},
		{"leading and trailing junk", "  ---Titlu---  ", "titlu"},
		{"empty title", "", "post"},
		{"only punctuation", "?!...", "post"},
		{"digits preserved", "Top 10 poezii din 2024", "top-10-poezii-din-2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSlugifyCapsLength(t *testing.T) {
	long := strings.Repeat("cuvant ", 30)
	got := Slugify(long)
	if len(got) > 80 {
		t.Errorf("Slugify produced %d chars, want at most 80", len(got))
	}
	if strings.HasSuffix(got, "-") || strings.HasPrefix(got, "-") {
		t.Errorf("Slugify left a dangling hyphen: %q", got)
	}
}

func TestUniqueSlug(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal("Failed to connect to test database:", err)
	}
	if err := db.Exec("CREATE TABLE posts (id TEXT PRIMARY KEY, slug TEXT UNIQUE)").Error; err != nil {
		t.Fatal("Failed to create posts table:", err)
	}

	slug, err := UniqueSlug(db, "Prima poezie")
	if err != nil {
		t.Fatal("UniqueSlug failed:", err)
	}
	if slug != "prima-poezie" {
		t.Errorf("UniqueSlug = %q, want %q", slug, "prima-poezie")
	}

	if err := db.Exec("INSERT INTO posts (id, slug) VALUES ('1', 'prima-poezie')").Error; err != nil {
		t.Fatal("Failed to insert row:", err)
	}
	slug, err = UniqueSlug(db, "Prima poezie")
	if err != nil {
		t.Fatal("UniqueSlug failed on conflict:", err)
	}
	if slug == "prima-poezie" {
		t.Error("UniqueSlug returned a colliding slug")
	}
	if !strings.HasPrefix(slug, "prima-poezie-") {
		t.Errorf("UniqueSlug suffix form unexpected: %q", slug)
	}
}
