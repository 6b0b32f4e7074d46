package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"calimara/internal/config"
	basichttp "calimara/internal/http"
	mw "calimara/internal/http/middleware"
	"calimara/internal/model"
	"calimara/internal/moderation"
	"calimara/internal/service"
)

type CommentHandler struct {
	db  *gorm.DB
	cfg *config.Config
	mod *moderation.Service
}

func NewCommentHandler(db *gorm.DB, cfg *config.Config, mod *moderation.Service) *CommentHandler {
	return &CommentHandler{db: db, cfg: cfg, mod: mod}
}

// GET /api/posts/:id/comments (public) — approved comments only.
func (h *CommentHandler) ListForPost(c *gin.Context) {
	postID := c.Param("id")
	var post model.Post
	if err := h.db.First(&post, "(id = ? OR slug = ?) AND deleted_at IS NULL", postID, postID).Error; err != nil {
		basichttp.Fail(c, http.StatusNotFound, "NOT_FOUND", "post not found")
		return
	}
	page := queryInt(c, "page", 1)
	size := queryInt(c, "page_size", 20)
	if size > 100 {
		size = 100
	}
	var total int64
	var items []model.Comment
	q := h.db.Model(&model.Comment{}).Where("post_id = ? AND deleted_at IS NULL AND approved = ?", post.ID, true)
	q.Count(&total)
	if err := q.Order("created_at ASC").Offset((page - 1) * size).Limit(size).Find(&items).Error; err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "query failed")
		return
	}
	basichttp.OK(c, gin.H{"total": total, "items": items, "page": page, "page_size": size})
}

type createCommentBody struct {
	Content     string `json:"content" binding:"required,max=2000"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
}

// POST /api/posts/:id/comments (optional auth; guests must supply a name)
func (h *CommentHandler) Create(c *gin.Context) {
	postID := c.Param("id")
	var post model.Post
	if err := h.db.First(&post, "(id = ? OR slug = ?) AND deleted_at IS NULL AND moderation_status <> ?",
		postID, postID, string(model.StatusRejected)).Error; err != nil {
		basichttp.Fail(c, http.StatusNotFound, "NOT_FOUND", "post not found")
		return
	}
	var body createCommentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		basichttp.Fail(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "invalid body")
		return
	}

	cm := &model.Comment{
		PostID:           post.ID,
		Content:          body.Content,
		ModerationStatus: model.StatusPending,
	}
	uid := mw.UserID(c)
	if uid != "" {
		cm.UserID = &uid
	} else {
		name := strings.TrimSpace(body.AuthorName)
		if name == "" {
			basichttp.Fail(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "author_name required for guest comments")
			return
		}
		cm.AuthorName = &name
		if email := strings.TrimSpace(body.AuthorEmail); email != "" {
			cm.AuthorEmail = &email
		}
	}
	if err := h.db.Create(cm).Error; err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "create failed")
		return
	}
	if uid != "" {
		service.LogSubmission(h.db, uid, "comment_create", "comment", cm.ID, map[string]any{"post_id": cm.PostID, "ip": c.ClientIP()})
	}

	res := h.mod.ModerateAndRecord(c.Request.Context(), moderation.ContentComment, cm.ID, body.Content, uid)

	if err := h.db.First(cm, "id = ?", cm.ID).Error; err == nil {
		basichttp.JSON(c, http.StatusCreated, gin.H{"comment": cm, "moderation": res})
	} else {
		basichttp.JSON(c, http.StatusCreated, gin.H{"moderation": res})
	}
}

// PUT /api/comments/:id/approve (blog owner)
// Lets the post's owner surface a comment the pipeline left pending. Flagged
// comments stay hidden until a moderator rules on them, and content a
// moderator rejected stays rejected.
func (h *CommentHandler) Approve(c *gin.Context) {
	id := c.Param("id")
	var cm model.Comment
	if err := h.db.First(&cm, "id = ? AND deleted_at IS NULL", id).Error; err != nil {
		basichttp.Fail(c, http.StatusNotFound, "NOT_FOUND", "comment not found")
		return
	}
	var post model.Post
	if err := h.db.First(&post, "id = ?", cm.PostID).Error; err != nil {
		basichttp.Fail(c, http.StatusNotFound, "NOT_FOUND", "post not found")
		return
	}
	uid := mw.UserID(c)
	if uid != post.UserID && !mw.IsModerator(c) {
		basichttp.Fail(c, http.StatusForbidden, "FORBIDDEN", "not your blog")
		return
	}
	switch cm.ModerationStatus {
	case model.StatusPending:
	case model.StatusApproved:
		basichttp.OK(c, gin.H{"id": id, "approved": true})
		return
	case model.StatusFlagged:
		basichttp.Fail(c, http.StatusConflict, "CONFLICT", "comment is awaiting moderator review")
		return
	default:
		basichttp.Fail(c, http.StatusConflict, "CONFLICT", "comment was rejected by a moderator")
		return
	}
	if err := h.db.Model(&model.Comment{}).Where("id = ?", id).Update("approved", true).Error; err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "update failed")
		return
	}
	basichttp.OK(c, gin.H{"id": id, "approved": true})
}

// DELETE /api/comments/:id (comment author, blog owner or moderator)
func (h *CommentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	var cm model.Comment
	if err := h.db.First(&cm, "id = ? AND deleted_at IS NULL", id).Error; err != nil {
		basichttp.Fail(c, http.StatusNotFound, "NOT_FOUND", "comment not found")
		return
	}
	uid := mw.UserID(c)
	allowed := mw.IsModerator(c) || (cm.UserID != nil && *cm.UserID == uid)
	if !allowed {
		var post model.Post
		if err := h.db.Select("user_id").First(&post, "id = ?", cm.PostID).Error; err == nil {
			allowed = post.UserID == uid
		}
	}
	if !allowed {
		basichttp.Fail(c, http.StatusForbidden, "FORBIDDEN", "no permission")
		return
	}
	if err := h.db.Unscoped().Delete(&cm).Error; err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "delete failed")
		return
	}
	if cm.UserID == nil || *cm.UserID != uid {
		service.LogOperation(h.db, uid, "delete_comment", "comment", id, nil)
	}
	basichttp.OK(c, gin.H{"id": id, "deleted": true})
}

// GET /api/my/comments/pending (auth) — unapproved comments across the
// caller's posts, so blog owners can triage what the pipeline left pending.
func (h *CommentHandler) ListPendingForMyPosts(c *gin.Context) {
	uid := mw.UserID(c)
	page := queryInt(c, "page", 1)
	size := queryInt(c, "page_size", 20)
	if size > 100 {
		size = 100
	}
	q := h.db.Model(&model.Comment{}).
		Joins("JOIN posts ON posts.id = comments.post_id AND posts.deleted_at IS NULL").
		Where("posts.user_id = ? AND comments.deleted_at IS NULL AND comments.approved = ?", uid, false).
		Where("comments.moderation_status <> ?", string(model.StatusRejected))
	var total int64
	q.Count(&total)
	var items []model.Comment
	if err := q.Order("comments.created_at DESC").Offset((page - 1) * size).Limit(size).Find(&items).Error; err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "query failed")
		return
	}
	basichttp.OK(c, gin.H{"total": total, "items": items, "page": page, "page_size": size})
}
