package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ripple-app/backend/internal/database"
	apierrors "github.com/ripple-app/backend/internal/errors"
	"github.com/ripple-app/backend/internal/logger"
	"github.com/ripple-app/backend/internal/models"
	"github.com/ripple-app/backend/internal/util"
	"gorm.io/gorm"
)

const maxVoiceNoteSize = 10 << 20 // 10 MB

// voiceTranscriptionPlaceholder stands in until a transcription backend
// is wired up.
const voiceTranscriptionPlaceholder = "This is a voice message (transcription not available)"

// SendMessage handles POST /api/messages. Accepts either a chat_id or a
// recipient_id; the latter finds or creates the direct chat. The room
// broadcast happens only after the message row is committed.
func (h *Handlers) SendMessage(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		ChatID      string `json:"chat_id"`
		RecipientID string `json:"recipient_id"`
		Content     string `json:"content" binding:"required,min=1,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if req.ChatID == "" && req.RecipientID == "" {
		util.RespondBadRequest(c, "chat_id or recipient_id is required")
		return
	}

	chat, apiErr := h.resolveChat(user.ID, req.ChatID, req.RecipientID)
	if apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}

	message, err := h.persistMessage(c, user, chat, req.Content, false, nil)
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.MessageCreated(chat.ID, message.WirePayload())

	c.JSON(http.StatusCreated, gin.H{
		"message":    message,
		"moderation": message.Moderation,
		"chat_id":    chat.ID,
	})
}

// SendVoiceMessage handles POST /api/messages/voice (multipart). The
// audio is stored, a transcription placeholder becomes the content, and
// the transcription text is what gets classified.
func (h *Handlers) SendVoiceMessage(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	if h.uploader == nil {
		util.RespondWithAPIError(c, apierrors.Internal("media storage unavailable", nil))
		return
	}

	chatID := c.PostForm("chat_id")
	recipientID := c.PostForm("recipient_id")
	if chatID == "" && recipientID == "" {
		util.RespondBadRequest(c, "chat_id or recipient_id is required")
		return
	}

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		util.RespondBadRequest(c, "audio file is required")
		return
	}
	defer file.Close()
	if header.Size > maxVoiceNoteSize {
		util.RespondBadRequest(c, "voice note exceeds 10MB limit")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxVoiceNoteSize+1))
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	chat, apiErr := h.resolveChat(user.ID, chatID, recipientID)
	if apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}

	upload, err := h.uploader.UploadVoiceNote(c.Request.Context(), data, user.ID, header.Filename)
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	transcription := voiceTranscriptionPlaceholder
	message, err := h.persistMessage(c, user, chat, upload.URL, true, &transcription)
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.MessageCreated(chat.ID, message.WirePayload())

	c.JSON(http.StatusCreated, gin.H{
		"message":    message,
		"moderation": message.Moderation,
		"chat_id":    chat.ID,
	})
}

// GetMessages handles GET /api/chats/:id/messages.
func (h *Handlers) GetMessages(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	chat, found := h.loadChatForParticipant(c, userID)
	if !found {
		return
	}

	var messages []models.Message
	err := database.DB.
		Preload("Sender").
		Where("chat_id = ?", chat.ID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// MarkMessageRead handles POST /api/messages/:id/read. The sender gets a
// read receipt on their user room after the update commits.
func (h *Handlers) MarkMessageRead(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	message, found := h.loadMessage(c)
	if !found {
		return
	}
	if message.SenderID == user.ID {
		util.RespondBadRequest(c, "cannot mark your own message as read")
		return
	}

	updates := map[string]interface{}{
		"read_status": true,
		"status":      models.MessageStatusRead,
	}
	if err := database.DB.Model(message).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.MessageRead(message.SenderID, message.ChatID, message.ID, user.ID)

	c.JSON(http.StatusOK, gin.H{"read": true})
}

// DeleteMessage handles DELETE /api/messages/:id. Sender-only; admins use
// the moderation endpoint instead.
func (h *Handlers) DeleteMessage(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	message, found := h.loadMessage(c)
	if !found {
		return
	}
	if message.SenderID != user.ID {
		util.RespondForbidden(c, "only the sender can delete this message")
		return
	}

	if err := database.DB.Model(message).Update("status", models.MessageStatusDeleted).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}
	if err := database.DB.Delete(message).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.MessageDeleted(message.ChatID, message.ID, user.ID)

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handlers) resolveChat(userID, chatID, recipientID string) (*models.Chat, *apierrors.APIError) {
	if chatID != "" {
		var chat models.Chat
		err := database.DB.Preload("Participants").First(&chat, "id = ?", chatID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFound("chat")
		}
		if err != nil {
			return nil, apierrors.Internal("failed to load chat", err)
		}
		if !chat.HasParticipant(userID) {
			return nil, apierrors.Forbidden("you are not a participant of this chat")
		}
		if chat.IsBlocked {
			return nil, apierrors.ChatBlocked()
		}
		return &chat, nil
	}

	var recipient models.User
	err := database.DB.First(&recipient, "id = ?", recipientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("recipient")
	}
	if err != nil {
		return nil, apierrors.Internal("failed to load recipient", err)
	}

	chat, err := findOrCreateDirectChat(userID, recipientID)
	if err != nil {
		return nil, apierrors.Internal("failed to resolve chat", err)
	}
	if chat.IsBlocked {
		return nil, apierrors.ChatBlocked()
	}
	return chat, nil
}

func (h *Handlers) persistMessage(c *gin.Context, sender *models.User, chat *models.Chat, content string, isVoice bool, transcription *string) (*models.Message, error) {
	classifyText := content
	if transcription != nil {
		classifyText = *transcription
	}
	verdict, err := h.classifier.Classify(c.Request.Context(), classifyText)
	if err != nil {
		logger.Log.Warn("message classification failed, storing unflagged")
		verdict = models.ModerationResult{}
	}

	var recipientID *string
	if !chat.IsGroupChat {
		for _, p := range chat.Participants {
			if p.ID != sender.ID {
				id := p.ID
				recipientID = &id
				break
			}
		}
	}

	message := models.Message{
		ChatID:             chat.ID,
		SenderID:           sender.ID,
		RecipientID:        recipientID,
		Content:            content,
		IsVoice:            isVoice,
		VoiceTranscription: transcription,
		Moderation:         verdict,
		Status:             models.MessageStatusSent,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(chat).Update("last_message_id", message.ID).Error
	})
	if err != nil {
		return nil, err
	}

	message.Sender = sender
	return &message, nil
}

func (h *Handlers) loadMessage(c *gin.Context) (*models.Message, bool) {
	var message models.Message
	err := database.DB.First(&message, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "message")
		return nil, false
	}
	if err != nil {
		util.RespondInternalError(c, err)
		return nil, false
	}
	return &message, true
}
