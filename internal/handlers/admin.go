package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ripple-app/backend/internal/database"
	"github.com/ripple-app/backend/internal/logger"
	"github.com/ripple-app/backend/internal/models"
	"github.com/ripple-app/backend/internal/util"
	"gorm.io/gorm"
)

// Moderation action names carried in post-moderation payloads.
const (
	moderationActionDeleted = "deleted"
	moderationActionHidden  = "hidden"
	moderationActionWarning = "warning"
)

type moderationRequest struct {
	Reason string `json:"reason"`
}

func (r moderationRequest) reasonOr(fallback string) string {
	if r.Reason != "" {
		return r.Reason
	}
	return fallback
}

// AdminDeletePost handles DELETE /api/admin/posts/:id. The author is
// notified on their user room after the row is gone; a persisted notice
// survives for their next login.
func (h *Handlers) AdminDeletePost(c *gin.Context) {
	admin, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	post, found := h.loadPost(c)
	if !found {
		return
	}

	var req moderationRequest
	_ = c.ShouldBindJSON(&req)
	reason := req.reasonOr("Violation of community guidelines")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(post).Error; err != nil {
			return err
		}
		return appendAuthorNotice(tx, post.AuthorID, models.AdminNotification{
			ID:        fmt.Sprintf("post-deleted-%d", time.Now().UnixMilli()),
			Type:      "post_deleted",
			Content:   fmt.Sprintf("Your post has been removed by an administrator: %q", reason),
			Severity:  "medium",
			AdminName: admin.Name,
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.ModerationAction(post.AuthorID, moderationPayload(moderationActionDeleted, post.ID, reason, admin.Name))
	h.notifier.PostDeleted(post.ID)

	logger.Log.Info("post deleted by admin", logger.WithUserID(admin.ID))
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// AdminHidePost handles POST /api/admin/posts/:id/hide.
func (h *Handlers) AdminHidePost(c *gin.Context) {
	admin, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	post, found := h.loadPost(c)
	if !found {
		return
	}

	var req moderationRequest
	_ = c.ShouldBindJSON(&req)
	reason := req.reasonOr("Content under review")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"is_hidden":     true,
			"hidden_reason": reason,
		}
		if err := tx.Model(post).Updates(updates).Error; err != nil {
			return err
		}
		return appendAuthorNotice(tx, post.AuthorID, models.AdminNotification{
			ID:        fmt.Sprintf("post-hidden-%d", time.Now().UnixMilli()),
			Type:      "post_hidden",
			Content:   fmt.Sprintf("Your post has been hidden from public view: %q", reason),
			Severity:  "medium",
			AdminName: admin.Name,
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.ModerationAction(post.AuthorID, moderationPayload(moderationActionHidden, post.ID, reason, admin.Name))

	c.JSON(http.StatusOK, gin.H{"hidden": true})
}

// AdminWarnAuthor handles POST /api/admin/posts/:id/warn. Records a
// warning on the author's account alongside the pushed notice.
func (h *Handlers) AdminWarnAuthor(c *gin.Context) {
	admin, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	post, found := h.loadPost(c)
	if !found {
		return
	}

	var req moderationRequest
	_ = c.ShouldBindJSON(&req)
	reason := req.reasonOr("Inappropriate content")

	warningID := uuid.New().String()
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var author models.User
		if err := tx.First(&author, "id = ?", post.AuthorID).Error; err != nil {
			return err
		}

		author.Warnings = append(author.Warnings, models.Warning{
			ID:          warningID,
			Reason:      reason,
			AdminID:     admin.ID,
			AdminName:   admin.Name,
			ContentType: "post",
			ContentID:   post.ID,
			Date:        time.Now(),
		})
		author.AdminNotifications = append([]models.AdminNotification{{
			ID:        warningID,
			Type:      "warning",
			Content:   fmt.Sprintf("You've received a warning about a post: %q", reason),
			Severity:  "high",
			AdminName: admin.Name,
			CreatedAt: time.Now(),
		}}, author.AdminNotifications...)

		return tx.Model(&author).Updates(map[string]interface{}{
			"warnings":            author.Warnings,
			"admin_notifications": author.AdminNotifications,
		}).Error
	})
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.ModerationAction(post.AuthorID, moderationPayload(moderationActionWarning, post.ID, reason, admin.Name))

	c.JSON(http.StatusOK, gin.H{"warned": true})
}

// AdminDeleteMessage handles DELETE /api/admin/messages/:id.
func (h *Handlers) AdminDeleteMessage(c *gin.Context) {
	admin, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	message, found := h.loadMessage(c)
	if !found {
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(message).Update("status", models.MessageStatusDeleted).Error; err != nil {
			return err
		}
		return tx.Delete(message).Error
	})
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.AdminMessageDeleted(message.ChatID, message.ID, admin.Name)

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// AdminBanUser handles POST /api/admin/users/:id/ban. Toggles the ban
// state; the user and the admin room learn about it after commit.
func (h *Handlers) AdminBanUser(c *gin.Context) {
	admin, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	var req struct {
		Banned bool   `json:"banned"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if targetID == admin.ID {
		util.RespondBadRequest(c, "cannot ban yourself")
		return
	}

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	updates := map[string]interface{}{"is_banned": req.Banned}
	if req.Banned {
		updates["ban_reason"] = req.Reason
	} else {
		updates["ban_reason"] = nil
	}
	if err := database.DB.Model(&target).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.UserBanned(target.ID, req.Reason, admin.Name, req.Banned)

	logger.Log.Info("user ban state changed", logger.WithUserID(target.ID))
	c.JSON(http.StatusOK, gin.H{"banned": req.Banned})
}

// AdminBlockChat handles POST /api/admin/chats/:id/block. Every
// participant is told their chat was blocked.
func (h *Handlers) AdminBlockChat(c *gin.Context) {
	admin, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	chatID := c.Param("id")

	var req struct {
		Blocked bool `json:"blocked"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var chat models.Chat
	if err := database.DB.Preload("Participants").First(&chat, "id = ?", chatID).Error; err != nil {
		util.RespondNotFound(c, "chat")
		return
	}

	if err := database.DB.Model(&chat).Update("is_blocked", req.Blocked).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	for _, p := range chat.Participants {
		h.notifier.UserBlocked(p.ID, chat.ID, admin.Name, req.Blocked)
	}

	c.JSON(http.StatusOK, gin.H{"blocked": req.Blocked})
}

// AdminListHiddenPosts handles GET /api/admin/posts/hidden.
func (h *Handlers) AdminListHiddenPosts(c *gin.Context) {
	var posts []models.Post
	err := database.DB.
		Preload("Author").
		Where("is_hidden = true").
		Order("updated_at DESC").
		Find(&posts).Error
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(posts), "posts": posts})
}

func moderationPayload(action, postID, reason, adminName string) map[string]interface{} {
	return map[string]interface{}{
		"action":    action,
		"postId":    postID,
		"reason":    reason,
		"adminName": adminName,
		"timestamp": time.Now().Format(time.RFC3339),
	}
}

func appendAuthorNotice(tx *gorm.DB, authorID string, notice models.AdminNotification) error {
	var author models.User
	if err := tx.First(&author, "id = ?", authorID).Error; err != nil {
		// Author already gone; the notice has nowhere to land.
		return nil
	}
	author.AdminNotifications = append([]models.AdminNotification{notice}, author.AdminNotifications...)
	return tx.Model(&author).Update("admin_notifications", author.AdminNotifications).Error
}
