package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"calimara/internal/auth"
	"calimara/internal/config"
	basichttp "calimara/internal/http"
	"calimara/internal/model"
)

type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

func sanitizeUser(u *model.User) gin.H {
	return gin.H{
		"id":           u.ID,
		"username":     u.Username,
		"email":        u.Email,
		"subtitle":     u.Subtitle,
		"is_admin":     u.IsAdmin,
		"is_moderator": u.IsModerator,
		"created_at":   u.CreatedAt,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=64"`
}

// POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		basichttp.Fail(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "invalid payload")
		return
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	h.db.Model(&model.User{}).Where("username = ? OR email = ?", req.Username, req.Email).Count(&count)
	if count > 0 {
		basichttp.Fail(c, http.StatusConflict, "CONFLICT", "username or email already exists")
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "hash password failed")
		return
	}

	// Bootstrap: the configured admin user gets full rights on first registration.
	isAdmin := h.cfg.AdminInitUser != "" && h.cfg.AdminInitUser == req.Username
	now := time.Now()
	u := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashed),
		IsAdmin:      isAdmin,
		IsModerator:  isAdmin,
		LastLoginAt:  &now,
	}
	if err := h.db.Create(u).Error; err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create user")
		return
	}

	token, err := auth.Sign(h.cfg.JWTSecret, u.ID, u.IsAdmin, u.IsModerator, h.cfg.JWTTTL)
	if err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to sign token")
		return
	}
	if h.cfg.CookieName != "" {
		c.SetCookie(h.cfg.CookieName, token, int(h.cfg.JWTTTL), "/", "", true, true)
	}
	basichttp.JSON(c, http.StatusCreated, gin.H{"user": sanitizeUser(u), "access_token": token})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		basichttp.Fail(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "invalid payload")
		return
	}
	var u model.User
	if err := h.db.Where("username = ? AND deleted_at IS NULL", strings.ToLower(strings.TrimSpace(req.Username))).First(&u).Error; err != nil {
		basichttp.Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		basichttp.Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
		return
	}
	if u.IsSuspended {
		reason := "account suspended"
		if u.SuspensionReason != nil && *u.SuspensionReason != "" {
			reason = *u.SuspensionReason
		}
		basichttp.Fail(c, http.StatusForbidden, "SUSPENDED", reason)
		return
	}
	now := time.Now()
	h.db.Model(&u).Update("last_login_at", &now)

	token, err := auth.Sign(h.cfg.JWTSecret, u.ID, u.IsAdmin, u.IsModerator, h.cfg.JWTTTL)
	if err != nil {
		basichttp.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to sign token")
		return
	}
	if h.cfg.CookieName != "" {
		c.SetCookie(h.cfg.CookieName, token, int(h.cfg.JWTTTL), "/", "", true, true)
	}
	basichttp.OK(c, gin.H{"user": sanitizeUser(&u), "access_token": token})
}

// POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if h.cfg.CookieName != "" {
		c.SetCookie(h.cfg.CookieName, "", -1, "/", "", true, true)
	}
	basichttp.OK(c, gin.H{"ok": true})
}
