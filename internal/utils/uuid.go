package utils

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateID is returned when a generated UUID already exists
var ErrDuplicateID = errors.New("duplicate ID generated")

// GenerateUUID generates a new UUID string
func GenerateUUID() string {
	return uuid.NewString()
}

// IsValidUUID checks if the given string is a valid UUID
func IsValidUUID(uuidStr string) bool {
	_, err := uuid.Parse(uuidStr)
	return err == nil
}

// NormalizeUUID normalizes the UUID string to lowercase and validates it
func NormalizeUUID(uuidStr string) (string, error) {
	normalized := strings.TrimSpace(strings.ToLower(uuidStr))
	if !IsValidUUID(normalized) {
		return "", errors.New("invalid UUID format")
	}
	return normalized, nil
}

// GenerateUniqueID generates a unique ID for the specified table and column,
// verifying against the database that no row already carries it.
func GenerateUniqueID(db *gorm.DB, tableName, columnName string) (string, error) {
	const maxAttempts = 10

	for i := 0; i < maxAttempts; i++ {
		id := GenerateUUID()

		var count int64
		if err := db.Table(tableName).Where(columnName+" = ?", id).Count(&count).Error; err != nil {
			return "", err
		}

		if count == 0 {
			return id, nil
		}
	}

	return "", ErrDuplicateID
}
