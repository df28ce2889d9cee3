package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ripple-app/backend/internal/database"
	"github.com/ripple-app/backend/internal/logger"
	"github.com/ripple-app/backend/internal/models"
	"github.com/ripple-app/backend/internal/util"
	"gorm.io/gorm"
)

// GetFeed handles GET /api/posts. Hidden posts never reach the feed.
func (h *Handlers) GetFeed(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var posts []models.Post
	err := database.DB.
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Preload("Author")
		}).
		Where("is_hidden = false").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// CreatePost handles POST /api/posts. The broadcast goes out only after
// the row is committed; content is classified and the verdict stored
// alongside it.
func (h *Handlers) CreatePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content  string `json:"content" binding:"required,min=1,max=2000"`
		ImageURL string `json:"image_url" binding:"omitempty,url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	verdict, err := h.classifier.Classify(c.Request.Context(), req.Content)
	if err != nil {
		logger.Log.Warn("post classification failed, storing unflagged")
		verdict = models.ModerationResult{}
	}

	post := models.Post{
		AuthorID:   user.ID,
		Content:    req.Content,
		ImageURL:   req.ImageURL,
		Moderation: verdict,
	}
	if err := database.DB.Create(&post).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}
	post.Author = user

	h.notifier.PostCreated(post)

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// UpdatePost handles PATCH /api/posts/:id.
func (h *Handlers) UpdatePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	post, found := h.loadPost(c)
	if !found {
		return
	}
	if post.AuthorID != user.ID {
		util.RespondForbidden(c, "only the author can edit this post")
		return
	}

	var req struct {
		Content string `json:"content" binding:"required,min=1,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	verdict, err := h.classifier.Classify(c.Request.Context(), req.Content)
	if err != nil {
		verdict = post.Moderation
	}

	updates := map[string]interface{}{
		"content":    req.Content,
		"moderation": verdict,
	}
	if err := database.DB.Model(post).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.PostUpdated(post)

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// DeletePost handles DELETE /api/posts/:id.
func (h *Handlers) DeletePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	post, found := h.loadPost(c)
	if !found {
		return
	}
	if post.AuthorID != user.ID {
		util.RespondForbidden(c, "only the author can delete this post")
		return
	}

	if err := database.DB.Delete(post).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.PostDeleted(post.ID)

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// LikePost handles POST /api/posts/:id/like. Toggles the caller's like.
func (h *Handlers) LikePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	post, found := h.loadPost(c)
	if !found {
		return
	}

	var liked bool
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Table("post_likes").
			Where("post_id = ? AND user_id = ?", post.ID, user.ID).
			Count(&count).Error; err != nil {
			return err
		}

		assoc := tx.Model(post).Association("Likes")
		if count > 0 {
			if err := assoc.Delete(user); err != nil {
				return err
			}
			liked = false
		} else {
			if err := assoc.Append(user); err != nil {
				return err
			}
			liked = true
		}

		post.LikeCount = int(assoc.Count())
		return tx.Model(post).Update("like_count", post.LikeCount).Error
	})
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	if liked {
		h.notifier.PostLiked(post.ID, user.ID, post.LikeCount)
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked, "like_count": post.LikeCount})
}

// CommentOnPost handles POST /api/posts/:id/comments.
func (h *Handlers) CommentOnPost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	post, found := h.loadPost(c)
	if !found {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required,min=1,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	comment := models.Comment{
		PostID:   post.ID,
		AuthorID: user.ID,
		Content:  req.Content,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}
	comment.Author = user

	h.notifier.PostCommented(post.ID, comment)

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func (h *Handlers) loadPost(c *gin.Context) (*models.Post, bool) {
	var post models.Post
	err := database.DB.First(&post, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "post")
		return nil, false
	}
	if err != nil {
		util.RespondInternalError(c, err)
		return nil, false
	}
	return &post, true
}
