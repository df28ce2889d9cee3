package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ripple-app/backend/internal/database"
	"github.com/ripple-app/backend/internal/logger"
	"github.com/ripple-app/backend/internal/moderation"
	"github.com/ripple-app/backend/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", "")
	gin.SetMode(gin.TestMode)
	m.Run()
}

type HandlersTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
	user     *models.User
	other    *models.User
	admin    *models.User
}

func (s *HandlersTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_fk=1"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(s.T(), err)

	require.NoError(s.T(), db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Chat{},
		&models.Message{},
		&models.Post{},
		&models.Comment{},
		&models.Report{},
	))

	database.DB = db
	s.db = db

	s.user = s.createUser("Alice", "alice@example.com", models.RoleUser)
	s.other = s.createUser("Bob", "bob@example.com", models.RoleUser)
	s.admin = s.createUser("Mallory", "mallory@example.com", models.RoleAdmin)

	s.handlers = NewHandlers(nil, nil, moderation.NewKeywordClassifier())

	s.router = gin.New()
	s.setupRoutes()
}

func (s *HandlersTestSuite) TearDownTest() {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	database.DB = nil
}

func (s *HandlersTestSuite) createUser(name, email, role string) *models.User {
	user := &models.User{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
		Role:  role,
	}
	require.NoError(s.T(), s.db.Create(user).Error)
	return user
}

// testAuth loads the user named by X-User-ID, mirroring what RequireAuth
// does in production.
func (s *HandlersTestSuite) testAuth(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		c.Abort()
		return
	}
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		c.Abort()
		return
	}
	c.Set("user", &user)
	c.Set("user_id", user.ID)
}

func (s *HandlersTestSuite) setupRoutes() {
	api := s.router.Group("/api", s.testAuth)

	api.POST("/auth/logout", s.handlers.Logout)

	api.GET("/users", s.handlers.ListUsers)
	api.PUT("/users/me/status", s.handlers.UpdateStatus)
	api.GET("/users/:id", s.handlers.GetUser)
	api.POST("/users/:id/follow", s.handlers.FollowUser)
	api.DELETE("/users/:id/follow", s.handlers.UnfollowUser)

	api.GET("/posts", s.handlers.GetFeed)
	api.POST("/posts", s.handlers.CreatePost)
	api.POST("/posts/:id/like", s.handlers.LikePost)
	api.POST("/posts/:id/comments", s.handlers.CommentOnPost)
	api.DELETE("/posts/:id", s.handlers.DeletePost)

	api.GET("/chats", s.handlers.ListChats)
	api.POST("/chats/:id/block", s.handlers.BlockChat)
	api.PATCH("/chats/:id/group", s.handlers.RenameGroupChat)
	api.POST("/chats/:id/members", s.handlers.AddGroupMember)
	api.DELETE("/chats/:id/members/:userId", s.handlers.RemoveGroupMember)
	api.GET("/chats/:id/messages", s.handlers.GetMessages)
	api.POST("/messages", s.handlers.SendMessage)
	api.POST("/messages/:id/read", s.handlers.MarkMessageRead)

	api.POST("/moderation/check", s.handlers.ModerateText)
	api.POST("/moderation/reports", s.handlers.ReportContent)

	api.POST("/admin/posts/:id/hide", s.handlers.AdminHidePost)
	api.POST("/admin/users/:id/ban", s.handlers.AdminBanUser)
	api.GET("/admin/reports", s.handlers.AdminListReports)
}

func (s *HandlersTestSuite) request(method, path, asUserID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if asUserID != "" {
		req.Header.Set("X-User-ID", asUserID)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *HandlersTestSuite) TestSendMessageCreatesDirectChat() {
	w := s.request(http.MethodPost, "/api/messages", s.user.ID, gin.H{
		"recipient_id": s.other.ID,
		"content":      "hello bob",
	})
	s.Equal(http.StatusCreated, w.Code)

	body := s.decode(w)
	chatID, _ := body["chat_id"].(string)
	s.NotEmpty(chatID)

	// A second message reuses the same chat.
	w = s.request(http.MethodPost, "/api/messages", s.other.ID, gin.H{
		"recipient_id": s.user.ID,
		"content":      "hi alice",
	})
	s.Equal(http.StatusCreated, w.Code)
	s.Equal(chatID, s.decode(w)["chat_id"])

	var count int64
	s.db.Model(&models.Chat{}).Count(&count)
	s.EqualValues(1, count)
}

func (s *HandlersTestSuite) TestSendMessageStoresModerationVerdict() {
	w := s.request(http.MethodPost, "/api/messages", s.user.ID, gin.H{
		"recipient_id": s.other.ID,
		"content":      "this is a threat",
	})
	s.Equal(http.StatusCreated, w.Code)

	var message models.Message
	require.NoError(s.T(), s.db.First(&message).Error)
	s.True(message.Moderation.Flagged)
	s.True(message.Moderation.Categories["violence"])
}

func (s *HandlersTestSuite) TestSendMessageToBlockedChatRejected() {
	chat := models.Chat{IsBlocked: true}
	require.NoError(s.T(), s.db.Create(&chat).Error)
	require.NoError(s.T(), s.db.Model(&chat).Association("Participants").Append(s.user, s.other))

	w := s.request(http.MethodPost, "/api/messages", s.user.ID, gin.H{
		"chat_id": chat.ID,
		"content": "anyone there?",
	})
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlersTestSuite) TestGetMessagesRequiresParticipation() {
	chat := models.Chat{}
	require.NoError(s.T(), s.db.Create(&chat).Error)
	require.NoError(s.T(), s.db.Model(&chat).Association("Participants").Append(s.user, s.other))

	w := s.request(http.MethodGet, "/api/chats/"+chat.ID+"/messages", s.admin.ID, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodGet, "/api/chats/"+chat.ID+"/messages", s.user.ID, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlersTestSuite) TestMarkMessageReadNotifiesSenderOnly() {
	w := s.request(http.MethodPost, "/api/messages", s.user.ID, gin.H{
		"recipient_id": s.other.ID,
		"content":      "read me",
	})
	s.Equal(http.StatusCreated, w.Code)

	var message models.Message
	require.NoError(s.T(), s.db.First(&message).Error)

	// The sender cannot mark their own message.
	w = s.request(http.MethodPost, "/api/messages/"+message.ID+"/read", s.user.ID, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.request(http.MethodPost, "/api/messages/"+message.ID+"/read", s.other.ID, nil)
	s.Equal(http.StatusOK, w.Code)

	require.NoError(s.T(), s.db.First(&message, "id = ?", message.ID).Error)
	s.True(message.ReadStatus)
	s.Equal(models.MessageStatusRead, message.Status)
}

func (s *HandlersTestSuite) TestCreatePostAndFeed() {
	w := s.request(http.MethodPost, "/api/posts", s.user.ID, gin.H{
		"content": "first post",
	})
	s.Equal(http.StatusCreated, w.Code)

	w = s.request(http.MethodGet, "/api/posts", s.other.ID, nil)
	s.Equal(http.StatusOK, w.Code)
	posts := s.decode(w)["posts"].([]interface{})
	s.Len(posts, 1)
}

func (s *HandlersTestSuite) TestFeedExcludesHiddenPosts() {
	post := models.Post{AuthorID: s.user.ID, Content: "questionable", IsHidden: true}
	require.NoError(s.T(), s.db.Create(&post).Error)

	w := s.request(http.MethodGet, "/api/posts", s.other.ID, nil)
	s.Equal(http.StatusOK, w.Code)
	posts := s.decode(w)["posts"].([]interface{})
	s.Empty(posts)
}

func (s *HandlersTestSuite) TestLikePostToggles() {
	post := models.Post{AuthorID: s.user.ID, Content: "like me"}
	require.NoError(s.T(), s.db.Create(&post).Error)

	w := s.request(http.MethodPost, "/api/posts/"+post.ID+"/like", s.other.ID, nil)
	s.Equal(http.StatusOK, w.Code)
	body := s.decode(w)
	s.Equal(true, body["liked"])
	s.EqualValues(1, body["like_count"])

	w = s.request(http.MethodPost, "/api/posts/"+post.ID+"/like", s.other.ID, nil)
	s.Equal(http.StatusOK, w.Code)
	body = s.decode(w)
	s.Equal(false, body["liked"])
	s.EqualValues(0, body["like_count"])
}

func (s *HandlersTestSuite) TestDeletePostAuthorOnly() {
	post := models.Post{AuthorID: s.user.ID, Content: "mine"}
	require.NoError(s.T(), s.db.Create(&post).Error)

	w := s.request(http.MethodDelete, "/api/posts/"+post.ID, s.other.ID, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodDelete, "/api/posts/"+post.ID, s.user.ID, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlersTestSuite) TestFollowUserIsIdempotent() {
	for i := 0; i < 2; i++ {
		w := s.request(http.MethodPost, "/api/users/"+s.other.ID+"/follow", s.user.ID, nil)
		s.Equal(http.StatusOK, w.Code, "attempt %d", i)
	}

	var count int64
	s.db.Model(&models.Follow{}).Count(&count)
	s.EqualValues(1, count)

	w := s.request(http.MethodDelete, "/api/users/"+s.other.ID+"/follow", s.user.ID, nil)
	s.Equal(http.StatusOK, w.Code)
	s.db.Model(&models.Follow{}).Count(&count)
	s.EqualValues(0, count)
}

func (s *HandlersTestSuite) TestFollowSelfRejected() {
	w := s.request(http.MethodPost, "/api/users/"+s.user.ID+"/follow", s.user.ID, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestModerateTextEndpoint() {
	w := s.request(http.MethodPost, "/api/moderation/check", s.user.ID, gin.H{
		"text": "pure violence",
	})
	s.Equal(http.StatusOK, w.Code)

	verdict := s.decode(w)["moderation"].(map[string]interface{})
	s.Equal(true, verdict["flagged"])
}

func (s *HandlersTestSuite) TestReportMessageMarksItReported() {
	w := s.request(http.MethodPost, "/api/messages", s.user.ID, gin.H{
		"recipient_id": s.other.ID,
		"content":      "rude remark",
	})
	s.Equal(http.StatusCreated, w.Code)

	var message models.Message
	require.NoError(s.T(), s.db.First(&message).Error)

	w = s.request(http.MethodPost, "/api/moderation/reports", s.other.ID, gin.H{
		"content_type": "message",
		"content_id":   message.ID,
		"reason":       "harassment",
	})
	s.Equal(http.StatusCreated, w.Code)

	require.NoError(s.T(), s.db.First(&message, "id = ?", message.ID).Error)
	s.True(message.IsReported)

	w = s.request(http.MethodGet, "/api/admin/reports", s.admin.ID, nil)
	s.Equal(http.StatusOK, w.Code)
	s.EqualValues(1, s.decode(w)["count"])
}

func (s *HandlersTestSuite) TestAdminHidePostPersistsNotice() {
	post := models.Post{AuthorID: s.user.ID, Content: "borderline"}
	require.NoError(s.T(), s.db.Create(&post).Error)

	w := s.request(http.MethodPost, fmt.Sprintf("/api/admin/posts/%s/hide", post.ID), s.admin.ID, gin.H{
		"reason": "under review",
	})
	s.Equal(http.StatusOK, w.Code)

	require.NoError(s.T(), s.db.First(&post, "id = ?", post.ID).Error)
	s.True(post.IsHidden)

	var author models.User
	require.NoError(s.T(), s.db.First(&author, "id = ?", s.user.ID).Error)
	require.Len(s.T(), author.AdminNotifications, 1)
	s.Equal("post_hidden", author.AdminNotifications[0].Type)
	s.False(author.AdminNotifications[0].Read)
}

func (s *HandlersTestSuite) TestAdminBanAndUnban() {
	w := s.request(http.MethodPost, "/api/admin/users/"+s.user.ID+"/ban", s.admin.ID, gin.H{
		"banned": true,
		"reason": "spam",
	})
	s.Equal(http.StatusOK, w.Code)

	var target models.User
	require.NoError(s.T(), s.db.First(&target, "id = ?", s.user.ID).Error)
	s.True(target.IsBanned)

	w = s.request(http.MethodPost, "/api/admin/users/"+s.user.ID+"/ban", s.admin.ID, gin.H{
		"banned": false,
	})
	s.Equal(http.StatusOK, w.Code)

	require.NoError(s.T(), s.db.First(&target, "id = ?", s.user.ID).Error)
	s.False(target.IsBanned)
}

func (s *HandlersTestSuite) TestListUsersExcludesSelfAndBanned() {
	require.NoError(s.T(), s.db.Model(&models.User{}).
		Where("id = ?", s.other.ID).
		Update("is_banned", true).Error)

	w := s.request(http.MethodGet, "/api/users", s.user.ID, nil)
	s.Equal(http.StatusOK, w.Code)

	users := s.decode(w)["users"].([]interface{})
	for _, u := range users {
		id := u.(map[string]interface{})["id"].(string)
		s.NotEqual(s.user.ID, id)
		s.NotEqual(s.other.ID, id)
	}
}

func (s *HandlersTestSuite) createGroupChat(groupAdmin *models.User, members ...*models.User) *models.Chat {
	adminID := groupAdmin.ID
	chat := &models.Chat{IsGroupChat: true, GroupName: "team", GroupAdminID: &adminID}
	require.NoError(s.T(), s.db.Create(chat).Error)
	for _, m := range append([]*models.User{groupAdmin}, members...) {
		require.NoError(s.T(), s.db.Model(chat).Association("Participants").Append(m))
	}
	return chat
}

func (s *HandlersTestSuite) TestLogoutMarksOffline() {
	require.NoError(s.T(), s.db.Model(&models.User{}).
		Where("id = ?", s.user.ID).
		Update("is_online", true).Error)

	w := s.request(http.MethodPost, "/api/auth/logout", s.user.ID, nil)
	s.Equal(http.StatusOK, w.Code)

	var user models.User
	require.NoError(s.T(), s.db.First(&user, "id = ?", s.user.ID).Error)
	s.False(user.IsOnline)
	s.NotNil(user.LastActiveAt)
}

func (s *HandlersTestSuite) TestUpdateStatusValidatesAndPersists() {
	w := s.request(http.MethodPut, "/api/users/me/status", s.user.ID, gin.H{
		"status": "online",
	})
	s.Equal(http.StatusOK, w.Code)

	var user models.User
	require.NoError(s.T(), s.db.First(&user, "id = ?", s.user.ID).Error)
	s.True(user.IsOnline)

	w = s.request(http.MethodPut, "/api/users/me/status", s.user.ID, gin.H{
		"status": "busy",
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestBlockChatTogglesAndGatesMessages() {
	chat := models.Chat{}
	require.NoError(s.T(), s.db.Create(&chat).Error)
	require.NoError(s.T(), s.db.Model(&chat).Association("Participants").Append(s.user, s.other))

	// Non-participants cannot touch the chat.
	w := s.request(http.MethodPost, "/api/chats/"+chat.ID+"/block", s.admin.ID, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodPost, "/api/chats/"+chat.ID+"/block", s.user.ID, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(true, s.decode(w)["blocked"])

	w = s.request(http.MethodPost, "/api/messages", s.other.ID, gin.H{
		"chat_id": chat.ID,
		"content": "anyone there?",
	})
	s.Equal(http.StatusForbidden, w.Code)

	// Unblocking reopens the conversation.
	w = s.request(http.MethodPost, "/api/chats/"+chat.ID+"/block", s.other.ID, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(false, s.decode(w)["blocked"])

	w = s.request(http.MethodPost, "/api/messages", s.other.ID, gin.H{
		"chat_id": chat.ID,
		"content": "back again",
	})
	s.Equal(http.StatusCreated, w.Code)
}

func (s *HandlersTestSuite) TestRenameGroupChatAdminOnly() {
	chat := s.createGroupChat(s.user, s.other)

	w := s.request(http.MethodPatch, "/api/chats/"+chat.ID+"/group", s.other.ID, gin.H{
		"name": "renamed",
	})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodPatch, "/api/chats/"+chat.ID+"/group", s.user.ID, gin.H{
		"name": "renamed",
	})
	s.Equal(http.StatusOK, w.Code)

	var got models.Chat
	require.NoError(s.T(), s.db.First(&got, "id = ?", chat.ID).Error)
	s.Equal("renamed", got.GroupName)
}

func (s *HandlersTestSuite) TestRenameRejectsDirectChat() {
	chat := models.Chat{}
	require.NoError(s.T(), s.db.Create(&chat).Error)
	require.NoError(s.T(), s.db.Model(&chat).Association("Participants").Append(s.user, s.other))

	w := s.request(http.MethodPatch, "/api/chats/"+chat.ID+"/group", s.user.ID, gin.H{
		"name": "nope",
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestGroupMembershipManagement() {
	chat := s.createGroupChat(s.user, s.other)

	// Group admin adds a member.
	w := s.request(http.MethodPost, "/api/chats/"+chat.ID+"/members", s.user.ID, gin.H{
		"user_id": s.admin.ID,
	})
	s.Equal(http.StatusOK, w.Code)
	s.EqualValues(3, s.db.Model(&models.Chat{ID: chat.ID}).Association("Participants").Count())

	// A plain member cannot remove someone else.
	w = s.request(http.MethodDelete, "/api/chats/"+chat.ID+"/members/"+s.admin.ID, s.other.ID, nil)
	s.Equal(http.StatusForbidden, w.Code)

	// But can leave on their own.
	w = s.request(http.MethodDelete, "/api/chats/"+chat.ID+"/members/"+s.other.ID, s.other.ID, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodDelete, "/api/chats/"+chat.ID+"/members/"+s.admin.ID, s.user.ID, nil)
	s.Equal(http.StatusOK, w.Code)
	s.EqualValues(1, s.db.Model(&models.Chat{ID: chat.ID}).Association("Participants").Count())
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
