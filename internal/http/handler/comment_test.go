package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"calimara/internal/config"
	mw "calimara/internal/http/middleware"
	"calimara/internal/model"
	"calimara/internal/moderation"
)

func openHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal("Failed to connect to test database:", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal("Failed to get sql.DB:", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&model.User{}, &model.Post{}, &model.Comment{}, &model.ModerationLog{},
		&model.Notification{}, &model.SubmissionLog{}, &model.OperationLog{},
	); err != nil {
		t.Fatal("Failed to migrate test database:", err)
	}
	return db
}

func newCommentApproveRouter(db *gorm.DB, callerID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	svc := moderation.NewService(db, nil, moderation.NewEngine(moderation.DefaultFlagThreshold), zap.NewNop())
	h := NewCommentHandler(db, cfg, svc)
	r := gin.New()
	r.PUT("/comments/:id/approve", func(c *gin.Context) { c.Set(mw.CtxUserID, callerID) }, h.Approve)
	return r
}

func TestCommentApproveByOwner(t *testing.T) {
	db := openHandlerTestDB(t)
	owner := &model.User{Username: "ana", Email: "ana@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(owner).Error)
	post := &model.Post{UserID: owner.ID, Title: "Titlu", Slug: "titlu", Content: "Conținut."}
	require.NoError(t, db.Create(post).Error)
	r := newCommentApproveRouter(db, owner.ID)

	cases := []struct {
		name         string
		status       model.ModerationStatus
		wantCode     int
		wantApproved bool
	}{
		{"pending comment surfaces", model.StatusPending, http.StatusOK, true},
		{"flagged comment stays hidden", model.StatusFlagged, http.StatusConflict, false},
		{"rejected comment stays rejected", model.StatusRejected, http.StatusConflict, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cm := &model.Comment{PostID: post.ID, Content: "Un comentariu.", ModerationStatus: tc.status}
			require.NoError(t, db.Create(cm).Error)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/comments/"+cm.ID+"/approve", nil)
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.wantCode, w.Code)

			var got model.Comment
			require.NoError(t, db.First(&got, "id = ?", cm.ID).Error)
			assert.Equal(t, tc.wantApproved, got.Approved)
			assert.Equal(t, tc.status, got.ModerationStatus)
		})
	}
}
