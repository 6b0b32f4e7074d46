package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"calimara/internal/config"
	basichttp "calimara/internal/http"
	mw "calimara/internal/http/middleware"
	"calimara/internal/model"
	"calimara/internal/moderation"
	"calimara/internal/service"
	"calimara/internal/utils"
)

type PostHandler struct {
	db  *gorm.DB
	cfg *config.Config
	mod *moderation.Service
}

func NewPostHandler(db *gorm.DB, cfg *config.Config, mod *moderation.Service) *PostHandler {
	return &PostHandler{db: db, cfg: cfg, mod: mod}
}

func queryInt(c *gin.Context, key string, def int) int {
	if v := c.Query(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

type createPostBody struct {
	Title    string  `json:"title" binding:"required,max=255"`
	Content  string  `json:"content" binding:"required"`
	Category *string `json:"category"`
}

// POST /api/posts (auth)
// The post row is persisted first, then moderated inline; the response is held
// until the pipeline returns so the author sees the outcome immediately.
func (h *PostHandler) Create(c *gin.Context) {
	var body createPostBody
	if err := c.ShouldBindJSON(&body); err != nil {
		basichttp.Fail(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "invalid body")
		return
	}
	uid := mw.UserID(c)

	slug, err := utils.UniqueSlug(h.db, body.Title)
	if err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "slug generation failed")
		return
	}
	p := &model.Post{
		UserID:           uid,
		Title:            body.Title,
		Slug:             slug,
		Content:          body.Content,
		Category:         body.Category,
		ModerationStatus: model.StatusPending,
	}
	if err := h.db.Create(p).Error; err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "create failed")
		return
	}
	service.LogSubmission(h.db, uid, "post_create", "post", p.ID, map[string]any{"ip": c.ClientIP()})

	res := h.mod.ModerateAndRecord(c.Request.Context(), moderation.ContentPost, p.ID, body.Title+"\n\n"+body.Content, uid)

	if err := h.db.First(p, "id = ?", p.ID).Error; err == nil {
		basichttp.JSON(c, http.StatusCreated, gin.H{"post": p, "moderation": res})
	} else {
		basichttp.JSON(c, http.StatusCreated, gin.H{"moderation": res})
	}
}

// GET /api/posts/:id (public)
func (h *PostHandler) Get(c *gin.Context) {
	id := c.Param("id")
	var p model.Post
	if err := h.db.First(&p, "(id = ? OR slug = ?) AND deleted_at IS NULL", id, id).Error; err != nil {
		basichttp.Fail(c, http.StatusNotFound, "NOT_FOUND", "post not found")
		return
	}
	// Rejected posts are hidden from everyone but their author and moderators.
	if p.ModerationStatus == model.StatusRejected && mw.UserID(c) != p.UserID && !mw.IsModerator(c) {
		basichttp.Fail(c, http.StatusNotFound, "NOT_FOUND", "post not found")
		return
	}
	_ = h.db.Model(&model.Post{}).Where("id = ?", p.ID).Update("view_count", gorm.Expr("view_count + 1")).Error
	basichttp.OK(c, p)
}

// GET /api/users/:id/posts (public)
func (h *PostHandler) ListByUser(c *gin.Context) {
	userID := c.Param("id")
	page := queryInt(c, "page", 1)
	size := queryInt(c, "page_size", 20)
	if size > 100 {
		size = 100
	}
	q := h.db.Model(&model.Post{}).
		Where("user_id = ? AND deleted_at IS NULL AND moderation_status <> ?", userID, string(model.StatusRejected))
	var total int64
	q.Count(&total)
	var items []model.Post
	if err := q.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&items).Error; err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "query failed")
		return
	}
	basichttp.OK(c, gin.H{"total": total, "items": items, "page": page, "page_size": size})
}

type updatePostBody struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
}

// PUT /api/posts/:id (author only)
// Edits re-run moderation with a fresh audit log entry, unless a human
// decision already stands for the post.
func (h *PostHandler) Update(c *gin.Context) {
	id := c.Param("id")
	var p model.Post
	if err := h.db.First(&p, "id = ? AND deleted_at IS NULL", id).Error; err != nil {
		basichttp.Fail(c, http.StatusNotFound, "NOT_FOUND", "post not found")
		return
	}
	uid := mw.UserID(c)
	if uid != p.UserID && !mw.IsModerator(c) {
		basichttp.Fail(c, http.StatusForbidden, "FORBIDDEN", "not your post")
		return
	}
	var body updatePostBody
	if err := c.ShouldBindJSON(&body); err != nil {
		basichttp.Fail(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "invalid body")
		return
	}
	updates := map[string]any{}
	if body.Title != nil && *body.Title != "" {
		updates["title"] = *body.Title
	}
	if body.Content != nil && *body.Content != "" {
		updates["content"] = *body.Content
	}
	if body.Category != nil {
		updates["category"] = body.Category
	}
	if len(updates) == 0 {
		basichttp.OK(c, p)
		return
	}
	if err := h.db.Model(&model.Post{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "update failed")
		return
	}
	if err := h.db.First(&p, "id = ?", id).Error; err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "reload failed")
		return
	}

	res := h.mod.ModerateAndRecord(c.Request.Context(), moderation.ContentPost, p.ID, p.Title+"\n\n"+p.Content, p.UserID)
	_ = h.db.First(&p, "id = ?", id).Error
	basichttp.OK(c, gin.H{"post": p, "moderation": res})
}

// DELETE /api/posts/:id (author or moderator)
func (h *PostHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	var p model.Post
	if err := h.db.First(&p, "id = ? AND deleted_at IS NULL", id).Error; err != nil {
		basichttp.Fail(c, http.StatusNotFound, "NOT_FOUND", "post not found")
		return
	}
	uid := mw.UserID(c)
	if uid != p.UserID && !mw.IsModerator(c) {
		basichttp.Fail(c, http.StatusForbidden, "FORBIDDEN", "not your post")
		return
	}
	tx := h.db.Begin()
	if err := tx.Unscoped().Where("post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
		tx.Rollback()
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "delete failed")
		return
	}
	if err := tx.Unscoped().Delete(&p).Error; err != nil {
		tx.Rollback()
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "delete failed")
		return
	}
	if err := tx.Commit().Error; err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "commit failed")
		return
	}
	if uid != p.UserID {
		service.LogOperation(h.db, uid, "delete_post", "post", id, nil)
	}
	basichttp.OK(c, gin.H{"id": id, "deleted": true})
}
