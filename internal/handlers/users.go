package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ripple-app/backend/internal/database"
	apierrors "github.com/ripple-app/backend/internal/errors"
	"github.com/ripple-app/backend/internal/logger"
	"github.com/ripple-app/backend/internal/models"
	"github.com/ripple-app/backend/internal/util"
	"gorm.io/gorm"
)

const maxAvatarSize = 5 << 20 // 5 MB

// ListUsers handles GET /api/users. Returns everyone except the caller,
// for the contact picker.
func (h *Handlers) ListUsers(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var users []models.User
	err := database.DB.
		Where("id != ? AND is_banned = false", userID).
		Order("name ASC").
		Limit(200).
		Find(&users).Error
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetUser handles GET /api/users/:id. Viewing someone else's profile
// notifies them after the lookup succeeds.
func (h *Handlers) GetUser(c *gin.Context) {
	viewer, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "user")
			return
		}
		util.RespondInternalError(c, err)
		return
	}

	if viewer.ID != target.ID {
		h.notifier.ProfileViewed(target.ID, viewer.ID, viewer.Name)
	}

	var followerCount, followingCount int64
	database.DB.Model(&models.Follow{}).Where("followee_id = ?", target.ID).Count(&followerCount)
	database.DB.Model(&models.Follow{}).Where("follower_id = ?", target.ID).Count(&followingCount)

	c.JSON(http.StatusOK, gin.H{
		"user":            target,
		"follower_count":  followerCount,
		"following_count": followingCount,
	})
}

// UpdateProfile handles PATCH /api/users/me.
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name *string `json:"name" binding:"omitempty,min=1,max=50"`
		Bio  *string `json:"bio" binding:"omitempty,max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateStatus handles PUT /api/users/me/status. Presence transitions from
// the REST side (the socket layer broadcasts its own on disconnect).
func (h *Handlers) UpdateStatus(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=online away offline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	now := time.Now().UTC()
	err := database.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"is_online":      req.Status == "online",
		"last_active_at": now,
	}).Error
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.PresenceChanged(user.ID, req.Status)
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

// UploadAvatar handles POST /api/users/me/avatar.
func (h *Handlers) UploadAvatar(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	if h.uploader == nil {
		util.RespondWithAPIError(c, apierrors.Internal("media storage unavailable", nil))
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		util.RespondBadRequest(c, "avatar file is required")
		return
	}
	defer file.Close()

	if header.Size > maxAvatarSize {
		util.RespondBadRequest(c, "avatar exceeds 5MB limit")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarSize+1))
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	result, err := h.uploader.UploadAvatar(c.Request.Context(), data, user.ID, header.Filename)
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	if err := database.DB.Model(user).Update("avatar_url", result.URL).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	logger.Log.Info("avatar uploaded", logger.WithUserID(user.ID))
	c.JSON(http.StatusOK, gin.H{"avatar_url": result.URL})
}

// FollowUser handles POST /api/users/:id/follow. The follow edge commits
// before the target is notified.
func (h *Handlers) FollowUser(c *gin.Context) {
	follower, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	if targetID == follower.ID {
		util.RespondBadRequest(c, "cannot follow yourself")
		return
	}

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "user")
			return
		}
		util.RespondInternalError(c, err)
		return
	}

	var existing models.Follow
	err := database.DB.Where("follower_id = ? AND followee_id = ?", follower.ID, targetID).First(&existing).Error
	if err == nil {
		// Already following; idempotent success.
		c.JSON(http.StatusOK, gin.H{"following": true})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondInternalError(c, err)
		return
	}

	follow := models.Follow{FollowerID: follower.ID, FolloweeID: targetID}
	if err := database.DB.Create(&follow).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.Followed(targetID, follower.ID, follower.Name)

	logger.Log.Info("user followed",
		logger.WithUserID(follower.ID),
	)
	c.JSON(http.StatusOK, gin.H{"following": true})
}

// UnfollowUser handles DELETE /api/users/:id/follow.
func (h *Handlers) UnfollowUser(c *gin.Context) {
	follower, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	err := database.DB.
		Where("follower_id = ? AND followee_id = ?", follower.ID, targetID).
		Delete(&models.Follow{}).Error
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": false})
}

func saveUserNotifications(user *models.User) error {
	return database.DB.Model(user).Update("admin_notifications", user.AdminNotifications).Error
}
