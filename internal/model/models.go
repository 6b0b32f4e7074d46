package model

import (
	"time"

	"gorm.io/gorm"

	"calimara/internal/utils"
)

type BaseModel struct {
	ID        string     `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook to generate UUID for all models with duplicate checking
func (base *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		tableName := tx.Statement.Table
		if tableName == "" {
			tableName = tx.Statement.Schema.Table
		}

		uniqueID, err := utils.GenerateUniqueID(tx, tableName, "id")
		if err != nil {
			return err
		}
		base.ID = uniqueID
	} else {
		normalized, err := utils.NormalizeUUID(base.ID)
		if err != nil {
			return err
		}
		base.ID = normalized
	}
	return nil
}

// ModerationStatus is the closed set of states a piece of content can be in.
// The automated pipeline only ever produces Approved or Flagged; Rejected is
// reserved for human decisions.
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusFlagged  ModerationStatus = "flagged"
	StatusRejected ModerationStatus = "rejected"
)

func (s ModerationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusFlagged, StatusRejected:
		return true
	}
	return false
}

// HumanDecision is the terminal outcome a moderator records on a flagged item.
type HumanDecision string

const (
	DecisionPending  HumanDecision = "pending"
	DecisionApproved HumanDecision = "approved"
	DecisionRejected HumanDecision = "rejected"
)

func (d HumanDecision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

type User struct {
	BaseModel
	Username     string  `gorm:"uniqueIndex;not null" json:"username"`
	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string  `json:"-"`
	Subtitle     *string `json:"subtitle,omitempty"`
	IsAdmin      bool    `gorm:"not null;default:false" json:"is_admin"`
	IsModerator  bool    `gorm:"not null;default:false" json:"is_moderator"`

	IsSuspended      bool       `gorm:"not null;default:false;index" json:"is_suspended"`
	SuspensionReason *string    `json:"suspension_reason,omitempty"`
	SuspendedAt      *time.Time `json:"suspended_at,omitempty"`
	SuspendedBy      *string    `json:"suspended_by,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type Post struct {
	BaseModel
	UserID    string  `gorm:"index;not null" json:"user_id"`
	Title     string  `gorm:"not null" json:"title"`
	Slug      string  `gorm:"uniqueIndex;not null" json:"slug"`
	Content   string  `gorm:"not null" json:"content"`
	Category  *string `json:"category,omitempty"`
	ViewCount int     `gorm:"not null;default:0" json:"view_count"`

	// Moderation fields; status always reflects the latest decision, human or automated.
	ModerationStatus ModerationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"moderation_status"`
	ModerationReason *string          `json:"moderation_reason,omitempty"`
	ToxicityScore    *float64         `json:"toxicity_score,omitempty"`
	ModeratedBy      *string          `json:"moderated_by,omitempty"`
	ModeratedAt      *time.Time       `json:"moderated_at,omitempty"`
}

type Comment struct {
	BaseModel
	PostID      string  `gorm:"index;not null" json:"post_id"`
	UserID      *string `gorm:"index" json:"user_id,omitempty"`
	AuthorName  *string `json:"author_name,omitempty"`
	AuthorEmail *string `json:"author_email,omitempty"`
	Content     string  `gorm:"not null" json:"content"`
	// Approved is the public visibility flag; it tracks ModerationStatus and
	// the blog owner's manual approval of pending comments.
	Approved bool `gorm:"not null;default:false;index" json:"approved"`

	ModerationStatus ModerationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"moderation_status"`
	ModerationReason *string          `json:"moderation_reason,omitempty"`
	ToxicityScore    *float64         `json:"toxicity_score,omitempty"`
	ModeratedBy      *string          `json:"moderated_by,omitempty"`
	ModeratedAt      *time.Time       `json:"moderated_at,omitempty"`
}

// ModerationLog is the append-only audit record of one automated moderation
// run. Rows are immutable except for the human-decision fields, which
// transition exactly once when a moderator reviews a flagged item.
// Re-moderation of the same content creates a new row, never rewrites one.
type ModerationLog struct {
	BaseModel
	ContentType string `gorm:"index:idx_modlog_content;not null" json:"content_type"` // post | comment
	ContentID   string `gorm:"index:idx_modlog_content;not null" json:"content_id"`
	UserID      string `gorm:"index;not null" json:"user_id"` // content author

	// Explicit column names: the default naming strategy mangles the AI prefix,
	// and the review queries filter on these columns in raw predicates.
	AIDecision ModerationStatus `gorm:"column:ai_decision;type:varchar(20);not null;index" json:"ai_decision"` // approved | flagged

	Toxicity         float64 `gorm:"not null;default:0" json:"toxicity"`
	Harassment       float64 `gorm:"not null;default:0" json:"harassment"`
	HateSpeech       float64 `gorm:"not null;default:0" json:"hate_speech"`
	SexuallyExplicit float64 `gorm:"not null;default:0" json:"sexually_explicit"`
	DangerousContent float64 `gorm:"not null;default:0" json:"dangerous_content"`
	LocalProfanity   float64 `gorm:"not null;default:0" json:"local_profanity"`

	AIReason  string  `gorm:"column:ai_reason" json:"ai_reason"`
	AIDetails *string `gorm:"column:ai_details" json:"ai_details,omitempty"` // raw score payload for audit replay

	HumanDecision *HumanDecision `gorm:"type:varchar(20);index" json:"human_decision,omitempty"`
	HumanReason   *string        `json:"human_reason,omitempty"`
	ModeratorID   *string        `gorm:"index" json:"moderator_id,omitempty"`
	ModeratedAt   *time.Time     `json:"moderated_at,omitempty"`
}

// Notification: system -> user messages (pull-based)
type Notification struct {
	BaseModel
	UserID   string  `gorm:"index;not null" json:"user_id"`
	Title    string  `gorm:"not null" json:"title"`
	Content  string  `gorm:"not null" json:"content"`
	IsRead   bool    `gorm:"not null;default:false;index" json:"is_read"`
	Metadata *string `json:"metadata,omitempty"`
}

// SubmissionLog records user submissions such as creating posts or comments.
type SubmissionLog struct {
	BaseModel
	UserID     string  `gorm:"index;not null" json:"user_id"`
	Action     string  `gorm:"not null;index" json:"action"`      // e.g., post_create, comment_create
	ObjectType string  `gorm:"not null;index" json:"object_type"` // e.g., post, comment
	ObjectID   string  `gorm:"not null;index" json:"object_id"`
	Metadata   *string `json:"metadata,omitempty"`
}

// OperationLog records moderator and administrator actions. This is the audit
// path for manual overrides, parallel to ModerationLog which records AI runs.
type OperationLog struct {
	BaseModel
	AdminID    string  `gorm:"index;not null" json:"admin_id"`
	Action     string  `gorm:"not null;index" json:"action"` // e.g., review_approve, override_reject, suspend_user
	ObjectType string  `gorm:"not null;index" json:"object_type"`
	ObjectID   string  `gorm:"not null;index" json:"object_id"`
	Metadata   *string `json:"metadata,omitempty"`
}
