package moderation

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"calimara/internal/model"
	"calimara/internal/service"
)

var (
	ErrLogNotFound     = errors.New("moderation log entry not found")
	ErrInvalidDecision = errors.New("decision must be approved or rejected")
	ErrNotFlagged      = errors.New("only flagged entries can be reviewed")
	ErrAlreadyReviewed = errors.New("entry already has a terminal human decision")
	ErrContentNotFound = errors.New("content not found")
)

// Queue lists flagged log entries awaiting human review, newest first.
// contentType may be empty to list both posts and comments.
func (s *Service) Queue(contentType string, page, size int) (int64, []model.ModerationLog, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	q := s.db.Model(&model.ModerationLog{}).
		Where("ai_decision = ? AND human_decision = ?", string(model.StatusFlagged), string(model.DecisionPending))
	if contentType != "" {
		q = q.Where("content_type = ?", contentType)
	}
	var total int64
	q.Count(&total)
	var items []model.ModerationLog
	if err := q.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// Logs lists the audit trail with optional filters, newest first.
func (s *Service) Logs(contentType, contentID, aiDecision string, page, size int) (int64, []model.ModerationLog, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	q := s.db.Model(&model.ModerationLog{})
	if contentType != "" {
		q = q.Where("content_type = ?", contentType)
	}
	if contentID != "" {
		q = q.Where("content_id = ?", contentID)
	}
	if aiDecision != "" {
		q = q.Where("ai_decision = ?", aiDecision)
	}
	var total int64
	q.Count(&total)
	var items []model.ModerationLog
	if err := q.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// Review applies a moderator's terminal decision to a flagged log entry and
// the content item it belongs to. The decision supersedes the automated one
// permanently; the entry transitions exactly once.
func (s *Service) Review(logID string, decision model.HumanDecision, reason, moderatorID string) (*model.ModerationLog, error) {
	if !decision.Valid() {
		return nil, ErrInvalidDecision
	}

	var entry model.ModerationLog
	if err := s.db.First(&entry, "id = ?", logID).Error; err != nil {
		return nil, ErrLogNotFound
	}
	if entry.AIDecision != model.StatusFlagged {
		return nil, ErrNotFlagged
	}
	if entry.HumanDecision != nil && *entry.HumanDecision != model.DecisionPending {
		return nil, ErrAlreadyReviewed
	}

	now := nowPtr()
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := tx.Model(&model.ModerationLog{}).Where("id = ?", entry.ID).Updates(map[string]any{
		"human_decision": string(decision),
		"human_reason":   reason,
		"moderator_id":   moderatorID,
		"moderated_at":   now,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	status := model.ModerationStatus(decision)
	if err := applyHumanDecision(tx, ContentType(entry.ContentType), entry.ContentID, status, reason, moderatorID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	service.LogOperation(s.db, moderatorID, "review_"+string(decision), entry.ContentType, entry.ContentID,
		map[string]any{"log_id": entry.ID, "reason": reason})
	s.notifyAuthor(entry.UserID, ContentType(entry.ContentType), entry.ContentID, status, reason)

	if err := s.db.First(&entry, "id = ?", entry.ID).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Override lets a moderator directly approve or reject any content item
// outside the AI flow, correcting false negatives the classifier approved.
// It updates the content record and the operation log, but never mutates an
// AI log entry; it is a distinct, parallel audit path.
func (s *Service) Override(contentType ContentType, contentID string, decision model.HumanDecision, reason, moderatorID string) error {
	if !decision.Valid() {
		return ErrInvalidDecision
	}
	if !contentType.Valid() {
		return fmt.Errorf("unknown content type %q", contentType)
	}

	authorID, err := s.contentAuthor(contentType, contentID)
	if err != nil {
		return err
	}

	status := model.ModerationStatus(decision)
	if err := applyHumanDecision(s.db, contentType, contentID, status, reason, moderatorID); err != nil {
		return err
	}

	service.LogOperation(s.db, moderatorID, "override_"+string(decision), string(contentType), contentID,
		map[string]any{"reason": reason})
	s.notifyAuthor(authorID, contentType, contentID, status, reason)
	return nil
}

func (s *Service) contentAuthor(contentType ContentType, contentID string) (string, error) {
	switch contentType {
	case ContentPost:
		var p model.Post
		if err := s.db.Select("user_id").First(&p, "id = ?", contentID).Error; err != nil {
			return "", ErrContentNotFound
		}
		return p.UserID, nil
	case ContentComment:
		var cm model.Comment
		if err := s.db.Select("user_id").First(&cm, "id = ?", contentID).Error; err != nil {
			return "", ErrContentNotFound
		}
		if cm.UserID == nil {
			return "", nil
		}
		return *cm.UserID, nil
	}
	return "", ErrContentNotFound
}

// applyHumanDecision writes the moderator's verdict onto the content record.
func applyHumanDecision(tx *gorm.DB, contentType ContentType, contentID string, status model.ModerationStatus, reason, moderatorID string) error {
	updates := map[string]any{
		"moderation_status": string(status),
		"moderation_reason": reason,
		"moderated_by":      moderatorID,
		"moderated_at":      nowPtr(),
	}
	switch contentType {
	case ContentPost:
		res := tx.Model(&model.Post{}).Where("id = ?", contentID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrContentNotFound
		}
	case ContentComment:
		updates["approved"] = status == model.StatusApproved
		res := tx.Model(&model.Comment{}).Where("id = ?", contentID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrContentNotFound
		}
	}
	return nil
}

func (s *Service) notifyAuthor(authorID string, contentType ContentType, contentID string, status model.ModerationStatus, reason string) {
	if authorID == "" {
		return
	}
	meta := map[string]any{string(contentType) + "_id": contentID}
	switch status {
	case model.StatusRejected:
		msg := "Your " + string(contentType) + " was removed after review."
		if reason != "" {
			msg += " Reason: " + reason
		}
		service.Notify(s.db, authorID, "Content removed by a moderator", msg, meta)
	case model.StatusApproved:
		service.Notify(s.db, authorID, "Content approved", "Your "+string(contentType)+" passed review and is now public.", meta)
	}
}

// StatusCounts aggregates content rows by moderation status for one content type.
type StatusCounts struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Flagged  int64 `json:"flagged"`
	Rejected int64 `json:"rejected"`
}

// Stats summarizes the moderation state for dashboard display.
type Stats struct {
	Posts         StatusCounts `json:"posts"`
	Comments      StatusCounts `json:"comments"`
	PendingReview int64        `json:"pending_review"`
}

func (s *Service) Stats() (*Stats, error) {
	var out Stats
	count := func(dest *int64, m any, status model.ModerationStatus) error {
		return s.db.Model(m).Where("moderation_status = ?", string(status)).Count(dest).Error
	}
	for _, c := range []struct {
		dest   *int64
		m      any
		status model.ModerationStatus
	}{
		{&out.Posts.Pending, &model.Post{}, model.StatusPending},
		{&out.Posts.Approved, &model.Post{}, model.StatusApproved},
		{&out.Posts.Flagged, &model.Post{}, model.StatusFlagged},
		{&out.Posts.Rejected, &model.Post{}, model.StatusRejected},
		{&out.Comments.Pending, &model.Comment{}, model.StatusPending},
		{&out.Comments.Approved, &model.Comment{}, model.StatusApproved},
		{&out.Comments.Flagged, &model.Comment{}, model.StatusFlagged},
		{&out.Comments.Rejected, &model.Comment{}, model.StatusRejected},
	} {
		if err := count(c.dest, c.m, c.status); err != nil {
			return nil, err
		}
	}
	if err := s.db.Model(&model.ModerationLog{}).
		Where("ai_decision = ? AND human_decision = ?", string(model.StatusFlagged), string(model.DecisionPending)).
		Count(&out.PendingReview).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
