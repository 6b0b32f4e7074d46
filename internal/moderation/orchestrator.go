package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"calimara/internal/model"
)

// ContentType identifies which table a moderated item lives in.
type ContentType string

const (
	ContentPost    ContentType = "post"
	ContentComment ContentType = "comment"
)

func (t ContentType) Valid() bool {
	return t == ContentPost || t == ContentComment
}

// Result is what content-creation handlers get back; they may surface it to
// the author but must never block creation on it.
type Result struct {
	Status        model.ModerationStatus `json:"status"`
	ToxicityScore float64                `json:"toxicity_score"`
	Reason        string                 `json:"reason"`
}

// Service is the moderation orchestrator. It is constructed once in main and
// injected into the handlers, so tests can substitute the classifier.
type Service struct {
	db         *gorm.DB
	classifier Classifier
	engine     Engine
	logger     *zap.Logger
}

func NewService(db *gorm.DB, classifier Classifier, engine Engine, logger *zap.Logger) *Service {
	return &Service{db: db, classifier: classifier, engine: engine, logger: logger}
}

// ModerateAndRecord runs the full pipeline for one content item: classifier,
// local overlay, decision engine, content record update, audit log append.
// It is called synchronously from the creation flow, after the content row is
// persisted. It never returns an error to the caller; every failure degrades
// per the fail-open/fail-closed policy already baked into the classifier.
func (s *Service) ModerateAndRecord(ctx context.Context, contentType ContentType, contentID, text, authorID string) Result {
	// A human decision permanently supersedes automation for this item.
	if status, reviewed := s.humanDecisionFor(contentType, contentID); reviewed {
		return Result{Status: status, Reason: "human decision already recorded"}
	}

	analysis := s.classifier.Analyze(ctx, text)
	overlay := AnalyzeLocalPatterns(text)
	outcome := s.engine.Decide(analysis, overlay)

	if err := s.applyToContent(contentType, contentID, outcome); err != nil {
		s.logger.Error("failed to persist moderation status",
			zap.String("content_type", string(contentType)),
			zap.String("content_id", contentID),
			zap.Error(err),
		)
	}

	// Audit trail is best-effort; the decision on the content record is
	// authoritative either way.
	if err := s.appendLog(contentType, contentID, authorID, analysis, outcome); err != nil {
		s.logger.Error("failed to append moderation log",
			zap.String("content_type", string(contentType)),
			zap.String("content_id", contentID),
			zap.Error(err),
		)
	}

	s.logger.Info("moderation decision",
		zap.String("content_type", string(contentType)),
		zap.String("content_id", contentID),
		zap.String("status", string(outcome.Status)),
		zap.Float64("toxicity", outcome.Toxicity),
	)

	return Result{Status: outcome.Status, ToxicityScore: outcome.Toxicity, Reason: outcome.Reason}
}

// humanDecisionFor reports whether a moderator has already ruled on this item,
// and if so which terminal status the content carries. Reviews leave a human
// decision on the log entry; manual overrides audit through the operation log
// only, so the moderated_by stamp on the content row is checked as well.
func (s *Service) humanDecisionFor(contentType ContentType, contentID string) (model.ModerationStatus, bool) {
	var entry model.ModerationLog
	err := s.db.
		Where("content_type = ? AND content_id = ? AND human_decision IN ?",
			string(contentType), contentID, []string{string(model.DecisionApproved), string(model.DecisionRejected)}).
		Order("created_at DESC").
		First(&entry).Error
	if err == nil {
		return model.ModerationStatus(*entry.HumanDecision), true
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("failed to look up prior human decision", zap.Error(err))
	}

	var status model.ModerationStatus
	var moderatedBy *string
	switch contentType {
	case ContentPost:
		var p model.Post
		if err := s.db.Select("moderation_status", "moderated_by").First(&p, "id = ?", contentID).Error; err != nil {
			return "", false
		}
		status, moderatedBy = p.ModerationStatus, p.ModeratedBy
	case ContentComment:
		var cm model.Comment
		if err := s.db.Select("moderation_status", "moderated_by").First(&cm, "id = ?", contentID).Error; err != nil {
			return "", false
		}
		status, moderatedBy = cm.ModerationStatus, cm.ModeratedBy
	default:
		return "", false
	}
	if moderatedBy != nil {
		return status, true
	}
	return "", false
}

func (s *Service) applyToContent(contentType ContentType, contentID string, outcome Outcome) error {
	updates := map[string]any{
		"moderation_status": string(outcome.Status),
		"toxicity_score":    outcome.Toxicity,
		"moderation_reason": outcome.Reason,
	}
	// moderated_by is only ever set by a human write; guarding on it keeps an
	// automated run that raced past the humanDecisionFor check from clobbering
	// a moderator's verdict.
	switch contentType {
	case ContentPost:
		return s.db.Model(&model.Post{}).
			Where("id = ? AND moderated_by IS NULL", contentID).Updates(updates).Error
	case ContentComment:
		// Comments become publicly visible only on approval.
		updates["approved"] = outcome.Status == model.StatusApproved
		return s.db.Model(&model.Comment{}).
			Where("id = ? AND moderated_by IS NULL", contentID).Updates(updates).Error
	default:
		return errors.New("unknown content type " + string(contentType))
	}
}

func (s *Service) appendLog(contentType ContentType, contentID, authorID string, analysis *Analysis, outcome Outcome) error {
	details := map[string]any{
		"scores":             outcome.Scores,
		"classifier_scores":  analysis.Scores,
		"overall_assessment": analysis.Assessment,
	}
	if analysis.Raw != "" {
		details["raw_response"] = analysis.Raw
	}
	var detailsStr *string
	if b, err := json.Marshal(details); err == nil {
		s := string(b)
		detailsStr = &s
	}

	entry := &model.ModerationLog{
		ContentType:      string(contentType),
		ContentID:        contentID,
		UserID:           authorID,
		AIDecision:       outcome.Status,
		Toxicity:         outcome.Scores.Toxicity,
		Harassment:       outcome.Scores.Harassment,
		HateSpeech:       outcome.Scores.HateSpeech,
		SexuallyExplicit: outcome.Scores.SexuallyExplicit,
		DangerousContent: outcome.Scores.DangerousContent,
		LocalProfanity:   outcome.Scores.LocalProfanity,
		AIReason:         outcome.Reason,
		AIDetails:        detailsStr,
	}
	// Flagged entries enter the human-review queue as pending; approved items
	// never carry a human decision.
	if outcome.Status == model.StatusFlagged {
		pending := model.DecisionPending
		entry.HumanDecision = &pending
	}
	return s.db.Create(entry).Error
}

// nowPtr is shared by the review handlers.
func nowPtr() *time.Time {
	t := time.Now()
	return &t
}
