package service

import (
	"encoding/json"

	"gorm.io/gorm"

	"calimara/internal/model"
)

// LogSubmission records a user submission (post or comment creation).
func LogSubmission(db *gorm.DB, userID, action, objectType, objectID string, metadata map[string]any) {
	var metaStr *string
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			s := string(b)
			metaStr = &s
		}
	}
	_ = db.Create(&model.SubmissionLog{
		UserID:     userID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Metadata:   metaStr,
	}).Error
}

// LogOperation records a moderator or administrator action. This is the audit
// trail for human actions, parallel to the AI moderation log.
func LogOperation(db *gorm.DB, adminID, action, objectType, objectID string, metadata map[string]any) {
	var metaStr *string
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			s := string(b)
			metaStr = &s
		}
	}
	_ = db.Create(&model.OperationLog{
		AdminID:    adminID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Metadata:   metaStr,
	}).Error
}
