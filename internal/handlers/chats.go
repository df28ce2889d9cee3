package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ripple-app/backend/internal/database"
	"github.com/ripple-app/backend/internal/models"
	"github.com/ripple-app/backend/internal/util"
	"gorm.io/gorm"
)

// ListChats handles GET /api/chats.
func (h *Handlers) ListChats(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var chats []models.Chat
	err := database.DB.
		Preload("Participants").
		Joins("JOIN chat_participants cp ON cp.chat_id = chats.id").
		Where("cp.user_id = ?", userID).
		Order("chats.updated_at DESC").
		Find(&chats).Error
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// GetChat handles GET /api/chats/:id.
func (h *Handlers) GetChat(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	chat, found := h.loadChatForParticipant(c, userID)
	if !found {
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

// CreateGroupChat handles POST /api/chats/group.
func (h *Handlers) CreateGroupChat(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name           string   `json:"name" binding:"required,min=1,max=100"`
		ParticipantIDs []string `json:"participant_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	ids := append([]string{user.ID}, req.ParticipantIDs...)
	var participants []models.User
	if err := database.DB.Where("id IN ?", ids).Find(&participants).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}
	if len(participants) < 2 {
		util.RespondBadRequest(c, "a group chat needs at least two participants")
		return
	}

	adminID := user.ID
	chat := models.Chat{
		IsGroupChat:  true,
		GroupName:    req.Name,
		GroupAdminID: &adminID,
		Participants: participants,
	}
	if err := database.DB.Create(&chat).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"chat": chat})
}

// BlockChat handles POST /api/chats/:id/block. Any participant can block
// or unblock the conversation; blocked chats reject new messages.
func (h *Handlers) BlockChat(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	chat, found := h.loadChatForParticipant(c, userID)
	if !found {
		return
	}

	blocked := !chat.IsBlocked
	if err := database.DB.Model(chat).Update("is_blocked", blocked).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.ChatBlocked(chat.ID, userID, blocked)
	c.JSON(http.StatusOK, gin.H{"chat_id": chat.ID, "blocked": blocked})
}

// RenameGroupChat handles PATCH /api/chats/:id/group.
func (h *Handlers) RenameGroupChat(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required,min=1,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	chat, found := h.loadGroupChatForAdmin(c, userID)
	if !found {
		return
	}

	if err := database.DB.Model(chat).Update("group_name", req.Name).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.ChatUpdated(chat.ID, map[string]interface{}{
		"chatId":    chat.ID,
		"groupName": req.Name,
		"updatedBy": userID,
	})
	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

// AddGroupMember handles POST /api/chats/:id/members.
func (h *Handlers) AddGroupMember(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	chat, found := h.loadGroupChatForAdmin(c, userID)
	if !found {
		return
	}
	if chat.HasParticipant(req.UserID) {
		c.JSON(http.StatusOK, gin.H{"chat": chat})
		return
	}

	var member models.User
	err := database.DB.First(&member, "id = ?", req.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "user")
		return
	}
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	if err := database.DB.Model(chat).Association("Participants").Append(&member); err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.ChatUpdated(chat.ID, map[string]interface{}{
		"chatId":  chat.ID,
		"added":   member.ID,
		"addedBy": userID,
	})
	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

// RemoveGroupMember handles DELETE /api/chats/:id/members/:userId. The
// group admin can remove anyone; other members can only remove themselves.
func (h *Handlers) RemoveGroupMember(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("userId")

	chat, found := h.loadChatForParticipant(c, userID)
	if !found {
		return
	}
	if !chat.IsGroupChat {
		util.RespondBadRequest(c, "not a group chat")
		return
	}
	isGroupAdmin := chat.GroupAdminID != nil && *chat.GroupAdminID == userID
	if targetID != userID && !isGroupAdmin {
		util.RespondForbidden(c, "only the group admin can remove other members")
		return
	}
	if !chat.HasParticipant(targetID) {
		util.RespondNotFound(c, "participant")
		return
	}

	if err := database.DB.Model(chat).Association("Participants").Delete(&models.User{ID: targetID}); err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.ChatUpdated(chat.ID, map[string]interface{}{
		"chatId":    chat.ID,
		"removed":   targetID,
		"removedBy": userID,
	})
	c.JSON(http.StatusOK, gin.H{"chat_id": chat.ID, "removed": targetID})
}

// findOrCreateDirectChat returns the direct chat between two users,
// creating it on first contact.
func findOrCreateDirectChat(userID, recipientID string) (*models.Chat, error) {
	var chat models.Chat
	err := database.DB.
		Preload("Participants").
		Joins("JOIN chat_participants a ON a.chat_id = chats.id AND a.user_id = ?", userID).
		Joins("JOIN chat_participants b ON b.chat_id = chats.id AND b.user_id = ?", recipientID).
		Where("chats.is_group_chat = false").
		First(&chat).Error
	if err == nil {
		return &chat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var participants []models.User
	if err := database.DB.Where("id IN ?", []string{userID, recipientID}).Find(&participants).Error; err != nil {
		return nil, err
	}
	if len(participants) != 2 {
		return nil, gorm.ErrRecordNotFound
	}

	chat = models.Chat{Participants: participants}
	if err := database.DB.Create(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// loadGroupChatForAdmin loads the chat and verifies the caller is the
// group admin.
func (h *Handlers) loadGroupChatForAdmin(c *gin.Context, userID string) (*models.Chat, bool) {
	chat, found := h.loadChatForParticipant(c, userID)
	if !found {
		return nil, false
	}
	if !chat.IsGroupChat {
		util.RespondBadRequest(c, "not a group chat")
		return nil, false
	}
	if chat.GroupAdminID == nil || *chat.GroupAdminID != userID {
		util.RespondForbidden(c, "only the group admin can manage this chat")
		return nil, false
	}
	return chat, true
}

func (h *Handlers) loadChatForParticipant(c *gin.Context, userID string) (*models.Chat, bool) {
	var chat models.Chat
	err := database.DB.Preload("Participants").First(&chat, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "chat")
		return nil, false
	}
	if err != nil {
		util.RespondInternalError(c, err)
		return nil, false
	}
	if !chat.HasParticipant(userID) {
		util.RespondForbidden(c, "you are not a participant of this chat")
		return nil, false
	}
	return &chat, true
}
