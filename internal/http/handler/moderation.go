package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"calimara/internal/config"
	basichttp "calimara/internal/http"
	mw "calimara/internal/http/middleware"
	"calimara/internal/model"
	"calimara/internal/moderation"
	"calimara/internal/service"
)

// ModerationHandler exposes the moderator-facing surface: the review queue,
// the audit trail, human decisions, direct overrides and dashboard stats.
type ModerationHandler struct {
	db  *gorm.DB
	cfg *config.Config
	mod *moderation.Service
}

func NewModerationHandler(db *gorm.DB, cfg *config.Config, mod *moderation.Service) *ModerationHandler {
	return &ModerationHandler{db: db, cfg: cfg, mod: mod}
}

// GET /api/moderation/queue?content_type=&page=&page_size=
func (h *ModerationHandler) Queue(c *gin.Context) {
	total, items, err := h.mod.Queue(c.Query("content_type"), queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "query failed")
		return
	}
	basichttp.OK(c, gin.H{"total": total, "items": items})
}

// GET /api/moderation/logs?content_type=&content_id=&ai_decision=&page=&page_size=
func (h *ModerationHandler) Logs(c *gin.Context) {
	total, items, err := h.mod.Logs(
		c.Query("content_type"), c.Query("content_id"), c.Query("ai_decision"),
		queryInt(c, "page", 1), queryInt(c, "page_size", 20),
	)
	if err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "query failed")
		return
	}
	basichttp.OK(c, gin.H{"total": total, "items": items})
}

type reviewBody struct {
	Decision string `json:"decision" binding:"required"`
	Reason   string `json:"reason"`
}

// POST /api/moderation/review/:id
func (h *ModerationHandler) Review(c *gin.Context) {
	var body reviewBody
	if err := c.ShouldBindJSON(&body); err != nil {
		basichttp.Fail(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "invalid body")
		return
	}
	entry, err := h.mod.Review(c.Param("id"), model.HumanDecision(body.Decision), body.Reason, mw.UserID(c))
	if err != nil {
		switch {
		case errors.Is(err, moderation.ErrLogNotFound), errors.Is(err, moderation.ErrContentNotFound):
			basichttp.Fail(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		case errors.Is(err, moderation.ErrInvalidDecision):
			basichttp.Fail(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error())
		case errors.Is(err, moderation.ErrNotFlagged), errors.Is(err, moderation.ErrAlreadyReviewed):
			basichttp.Fail(c, http.StatusConflict, "CONFLICT", err.Error())
		default:
			basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "review failed")
		}
		return
	}
	basichttp.OK(c, entry)
}

type overrideBody struct {
	Reason string `json:"reason"`
}

func (h *ModerationHandler) override(c *gin.Context, decision model.HumanDecision) {
	var body overrideBody
	_ = c.ShouldBindJSON(&body)
	err := h.mod.Override(
		moderation.ContentType(c.Param("type")), c.Param("id"),
		decision, body.Reason, mw.UserID(c),
	)
	if err != nil {
		switch {
		case errors.Is(err, moderation.ErrContentNotFound):
			basichttp.Fail(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		case errors.Is(err, moderation.ErrInvalidDecision):
			basichttp.Fail(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error())
		default:
			basichttp.Fail(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error())
		}
		return
	}
	basichttp.OK(c, gin.H{"content_type": c.Param("type"), "content_id": c.Param("id"), "decision": decision})
}

// POST /api/moderation/content/:type/:id/approve
func (h *ModerationHandler) Approve(c *gin.Context) { h.override(c, model.DecisionApproved) }

// POST /api/moderation/content/:type/:id/reject
func (h *ModerationHandler) Reject(c *gin.Context) { h.override(c, model.DecisionRejected) }

// GET /api/moderation/stats
func (h *ModerationHandler) Stats(c *gin.Context) {
	stats, err := h.mod.Stats()
	if err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "query failed")
		return
	}
	basichttp.OK(c, stats)
}

type suspendBody struct {
	Reason string `json:"reason"`
}

// POST /api/moderation/users/:id/suspend
func (h *ModerationHandler) SuspendUser(c *gin.Context) {
	id := c.Param("id")
	var body suspendBody
	_ = c.ShouldBindJSON(&body)
	var u model.User
	if err := h.db.First(&u, "id = ? AND deleted_at IS NULL", id).Error; err != nil {
		basichttp.Fail(c, http.StatusNotFound, "NOT_FOUND", "user not found")
		return
	}
	if u.IsAdmin {
		basichttp.Fail(c, http.StatusForbidden, "FORBIDDEN", "cannot suspend an admin")
		return
	}
	now := time.Now()
	modID := mw.UserID(c)
	if err := h.db.Model(&u).Updates(map[string]any{
		"is_suspended":      true,
		"suspension_reason": body.Reason,
		"suspended_at":      &now,
		"suspended_by":      modID,
	}).Error; err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "update failed")
		return
	}
	service.LogOperation(h.db, modID, "suspend_user", "user", id, map[string]any{"reason": body.Reason})
	basichttp.OK(c, gin.H{"id": id, "is_suspended": true})
}

// POST /api/moderation/users/:id/unsuspend
func (h *ModerationHandler) UnsuspendUser(c *gin.Context) {
	id := c.Param("id")
	modID := mw.UserID(c)
	if err := h.db.Model(&model.User{}).Where("id = ? AND deleted_at IS NULL", id).Updates(map[string]any{
		"is_suspended":      false,
		"suspension_reason": nil,
		"suspended_at":      nil,
		"suspended_by":      nil,
	}).Error; err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "update failed")
		return
	}
	service.LogOperation(h.db, modID, "unsuspend_user", "user", id, nil)
	basichttp.OK(c, gin.H{"id": id, "is_suspended": false})
}
