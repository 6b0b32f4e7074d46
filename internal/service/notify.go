package service

import (
	"encoding/json"

	"gorm.io/gorm"

	"calimara/internal/model"
)

// Notify creates a pull-based notification for a user. Failures are dropped;
// notifications are a convenience, never part of a transaction.
func Notify(db *gorm.DB, userID, title, content string, meta map[string]any) {
	var metaStr *string
	if meta != nil {
		if b, err := json.Marshal(meta); err == nil {
			s := string(b)
			metaStr = &s
		}
	}
	_ = db.Create(&model.Notification{UserID: userID, Title: title, Content: content, Metadata: metaStr}).Error
}
