package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calimara/internal/model"
)

func moderateFlagged(t *testing.T, svc *Service, contentType ContentType, contentID, text, authorID string) model.ModerationLog {
	t.Helper()
	res := svc.ModerateAndRecord(context.Background(), contentType, contentID, text, authorID)
	require.Equal(t, model.StatusFlagged, res.Status)
	var entry model.ModerationLog
	require.NoError(t, svc.db.First(&entry, "content_id = ?", contentID).Error)
	return entry
}

func TestReviewRejectFlaggedComment(t *testing.T) {
	db := openTestDB(t)
	author := createTestUser(t, db, "gabriel")
	mod := createTestUser(t, db, "moderator")
	post := createTestPost(t, db, author.ID, "post-cu-comentariu-toxic")
	comment := createTestComment(t, db, post.ID, &author.ID)
	svc, _ := newTestService(db, unsafeAnalysis())

	entry := moderateFlagged(t, svc, ContentComment, comment.ID, comment.Content, author.ID)

	reviewed, err := svc.Review(entry.ID, model.DecisionRejected, "atac la persoana", mod.ID)
	require.NoError(t, err)
	require.NotNil(t, reviewed.HumanDecision)
	assert.Equal(t, model.DecisionRejected, *reviewed.HumanDecision)
	require.NotNil(t, reviewed.HumanReason)
	assert.Equal(t, "atac la persoana", *reviewed.HumanReason)
	require.NotNil(t, reviewed.ModeratorID)
	assert.Equal(t, mod.ID, *reviewed.ModeratorID)
	assert.NotNil(t, reviewed.ModeratedAt)
	// The AI verdict is immutable; only the human fields transitioned.
	assert.Equal(t, model.StatusFlagged, reviewed.AIDecision)

	var got model.Comment
	require.NoError(t, db.First(&got, "id = ?", comment.ID).Error)
	assert.Equal(t, model.StatusRejected, got.ModerationStatus)
	assert.False(t, got.Approved)

	var op model.OperationLog
	require.NoError(t, db.First(&op, "action = ?", "review_rejected").Error)
	assert.Equal(t, mod.ID, op.AdminID)
	assert.Equal(t, comment.ID, op.ObjectID)

	var notif model.Notification
	require.NoError(t, db.First(&notif, "user_id = ?", author.ID).Error)
	assert.Contains(t, notif.Content, "atac la persoana")
}

func TestReviewApproveMakesCommentVisible(t *testing.T) {
	db := openTestDB(t)
	author := createTestUser(t, db, "horia")
	mod := createTestUser(t, db, "moderator")
	post := createTestPost(t, db, author.ID, "post-cu-fals-pozitiv")
	comment := createTestComment(t, db, post.ID, &author.ID)
	svc, _ := newTestService(db, unsafeAnalysis())

	entry := moderateFlagged(t, svc, ContentComment, comment.ID, comment.Content, author.ID)

	_, err := svc.Review(entry.ID, model.DecisionApproved, "satira, nu atac", mod.ID)
	require.NoError(t, err)

	var got model.Comment
	require.NoError(t, db.First(&got, "id = ?", comment.ID).Error)
	assert.Equal(t, model.StatusApproved, got.ModerationStatus)
	assert.True(t, got.Approved)
}

func TestReviewRejectsInvalidDecision(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestService(db, unsafeAnalysis())
	for _, d := range []model.HumanDecision{model.DecisionPending, "", "maybe"} {
		_, err := svc.Review("some-id", d, "", "mod")
		assert.ErrorIs(t, err, ErrInvalidDecision)
	}
}

func TestReviewUnknownLog(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestService(db, unsafeAnalysis())
	_, err := svc.Review("00000000-0000-0000-0000-000000000000", model.DecisionApproved, "", "mod")
	assert.ErrorIs(t, err, ErrLogNotFound)
}

func TestReviewTransitionsExactlyOnce(t *testing.T) {
	db := openTestDB(t)
	author := createTestUser(t, db, "irina")
	mod := createTestUser(t, db, "moderator")
	post := createTestPost(t, db, author.ID, "post-revizuit-o-data")
	svc, _ := newTestService(db, unsafeAnalysis())

	entry := moderateFlagged(t, svc, ContentPost, post.ID, post.Content, author.ID)

	_, err := svc.Review(entry.ID, model.DecisionApproved, "", mod.ID)
	require.NoError(t, err)
	_, err = svc.Review(entry.ID, model.DecisionRejected, "", mod.ID)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestReviewRequiresFlaggedEntry(t *testing.T) {
	db := openTestDB(t)
	author := createTestUser(t, db, "jana")
	mod := createTestUser(t, db, "moderator")
	post := createTestPost(t, db, author.ID, "post-aprobat-automat")
	svc, _ := newTestService(db, safeAnalysis())

	res := svc.ModerateAndRecord(context.Background(), ContentPost, post.ID, post.Content, author.ID)
	require.Equal(t, model.StatusApproved, res.Status)
	var entry model.ModerationLog
	require.NoError(t, db.First(&entry, "content_id = ?", post.ID).Error)

	_, err := svc.Review(entry.ID, model.DecisionRejected, "", mod.ID)
	assert.ErrorIs(t, err, ErrNotFlagged)
}

func TestOverrideRejectLeavesAILogUntouched(t *testing.T) {
	db := openTestDB(t)
	author := createTestUser(t, db, "karin")
	mod := createTestUser(t, db, "moderator")
	post := createTestPost(t, db, author.ID, "fals-negativ")
	svc, _ := newTestService(db, safeAnalysis())

	svc.ModerateAndRecord(context.Background(), ContentPost, post.ID, post.Content, author.ID)

	require.NoError(t, svc.Override(ContentPost, post.ID, model.DecisionRejected, "spam strecurat", mod.ID))

	var got model.Post
	require.NoError(t, db.First(&got, "id = ?", post.ID).Error)
	assert.Equal(t, model.StatusRejected, got.ModerationStatus)
	require.NotNil(t, got.ModeratedBy)
	assert.Equal(t, mod.ID, *got.ModeratedBy)

	// The override is audited in the operation log only; the AI entry keeps its
	// original automated verdict.
	var entry model.ModerationLog
	require.NoError(t, db.First(&entry, "content_id = ?", post.ID).Error)
	assert.Equal(t, model.StatusApproved, entry.AIDecision)
	assert.Nil(t, entry.HumanDecision)

	var op model.OperationLog
	require.NoError(t, db.First(&op, "action = ?", "override_rejected").Error)
	assert.Equal(t, post.ID, op.ObjectID)
}

func TestOverrideSurvivesReModeration(t *testing.T) {
	db := openTestDB(t)
	author := createTestUser(t, db, "petru")
	mod := createTestUser(t, db, "moderator")
	post := createTestPost(t, db, author.ID, "respins-manual")
	svc, stub := newTestService(db, safeAnalysis())

	svc.ModerateAndRecord(context.Background(), ContentPost, post.ID, post.Content, author.ID)
	require.NoError(t, svc.Override(ContentPost, post.ID, model.DecisionRejected, "spam", mod.ID))

	// Re-moderating after an edit must not undo the moderator's verdict, must
	// not consult the classifier again, and must not append a new audit row
	// that would re-enter the review queue.
	callsBefore := stub.calls
	res := svc.ModerateAndRecord(context.Background(), ContentPost, post.ID, "text editat", author.ID)
	assert.Equal(t, model.StatusRejected, res.Status)
	assert.Equal(t, callsBefore, stub.calls)

	var got model.Post
	require.NoError(t, db.First(&got, "id = ?", post.ID).Error)
	assert.Equal(t, model.StatusRejected, got.ModerationStatus)

	var count int64
	db.Model(&model.ModerationLog{}).Where("content_id = ?", post.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestOverrideMissingContent(t *testing.T) {
	db := openTestDB(t)
	svc, _ := newTestService(db, safeAnalysis())
	err := svc.Override(ContentPost, "00000000-0000-0000-0000-000000000000", model.DecisionApproved, "", "mod")
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestOverrideGuestCommentSkipsNotification(t *testing.T) {
	db := openTestDB(t)
	owner := createTestUser(t, db, "liana")
	mod := createTestUser(t, db, "moderator")
	post := createTestPost(t, db, owner.ID, "post-cu-oaspeti")
	comment := createTestComment(t, db, post.ID, nil)
	svc, _ := newTestService(db, safeAnalysis())

	require.NoError(t, svc.Override(ContentComment, comment.ID, model.DecisionRejected, "", mod.ID))

	var count int64
	db.Model(&model.Notification{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestQueueListsOnlyPendingFlagged(t *testing.T) {
	db := openTestDB(t)
	author := createTestUser(t, db, "mirela")
	mod := createTestUser(t, db, "moderator")
	p1 := createTestPost(t, db, author.ID, "post-unu")
	p2 := createTestPost(t, db, author.ID, "post-doi")
	p3 := createTestPost(t, db, author.ID, "post-trei")
	svc, _ := newTestService(db, unsafeAnalysis())

	e1 := moderateFlagged(t, svc, ContentPost, p1.ID, p1.Content, author.ID)
	moderateFlagged(t, svc, ContentPost, p2.ID, p2.Content, author.ID)
	comment := createTestComment(t, db, p3.ID, &author.ID)
	moderateFlagged(t, svc, ContentComment, comment.ID, comment.Content, author.ID)

	total, items, err := svc.Queue("", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 3)

	// A reviewed entry leaves the queue.
	_, err = svc.Review(e1.ID, model.DecisionApproved, "", mod.ID)
	require.NoError(t, err)
	total, _, err = svc.Queue("", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// Filter by content type.
	total, items, err = svc.Queue("comment", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, comment.ID, items[0].ContentID)
}

func TestLogsFilters(t *testing.T) {
	db := openTestDB(t)
	author := createTestUser(t, db, "nora")
	p1 := createTestPost(t, db, author.ID, "log-unu")
	p2 := createTestPost(t, db, author.ID, "log-doi")

	svcSafe, _ := newTestService(db, safeAnalysis())
	svcUnsafe, _ := newTestService(db, unsafeAnalysis())
	svcSafe.ModerateAndRecord(context.Background(), ContentPost, p1.ID, p1.Content, author.ID)
	svcUnsafe.ModerateAndRecord(context.Background(), ContentPost, p2.ID, p2.Content, author.ID)

	total, _, err := svcSafe.Logs("", "", "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	total, items, err := svcSafe.Logs("", "", string(model.StatusFlagged), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, p2.ID, items[0].ContentID)

	total, _, err = svcSafe.Logs("post", p1.ID, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestStatsCounts(t *testing.T) {
	db := openTestDB(t)
	author := createTestUser(t, db, "oana")
	p1 := createTestPost(t, db, author.ID, "stat-unu")
	p2 := createTestPost(t, db, author.ID, "stat-doi")
	comment := createTestComment(t, db, p1.ID, &author.ID)

	svcSafe, _ := newTestService(db, safeAnalysis())
	svcUnsafe, _ := newTestService(db, unsafeAnalysis())
	svcSafe.ModerateAndRecord(context.Background(), ContentPost, p1.ID, p1.Content, author.ID)
	svcUnsafe.ModerateAndRecord(context.Background(), ContentPost, p2.ID, p2.Content, author.ID)
	svcUnsafe.ModerateAndRecord(context.Background(), ContentComment, comment.ID, comment.Content, author.ID)

	stats, err := svcSafe.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Posts.Approved)
	assert.Equal(t, int64(1), stats.Posts.Flagged)
	assert.Equal(t, int64(1), stats.Comments.Flagged)
	assert.Equal(t, int64(2), stats.PendingReview)
}
