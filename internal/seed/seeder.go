// Package seed fills a development database with realistic data.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/ripple-app/backend/internal/auth"
	"github.com/ripple-app/backend/internal/logger"
	"github.com/ripple-app/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with users, a follow graph,
// posts, chats and message history. All accounts share the password
// "password123".
func (s *Seeder) SeedDev() error {
	logger.Log.Info("creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("creating follow graph...")
	if err := s.seedFollows(users, 200); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	logger.Log.Info("creating posts...")
	posts, err := s.seedPosts(users, 150)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("creating likes and comments...")
	if err := s.seedEngagement(users, posts, 400); err != nil {
		return fmt.Errorf("failed to seed engagement: %w", err)
	}

	logger.Log.Info("creating chats and messages...")
	if err := s.seedChats(users, 40); err != nil {
		return fmt.Errorf("failed to seed chats: %w", err)
	}

	logger.Log.Info("seeding complete",
		zap.Int("users", len(users)),
		zap.Int("posts", len(posts)),
	)
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hash, err := auth.HashPassword("password123")
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count+1)

	adminHash := hash
	admin := models.User{
		Name:         "Ripple Admin",
		Email:        "admin@ripple.local",
		Role:         models.RoleAdmin,
		Verified:     true,
		PasswordHash: &adminHash,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return nil, err
	}
	users = append(users, admin)

	for i := 0; i < count; i++ {
		h := hash
		user := models.User{
			Name:         gofakeit.Name(),
			Email:        fmt.Sprintf("%d.%s", i, gofakeit.Email()),
			Role:         models.RoleUser,
			Verified:     gofakeit.Bool(),
			Bio:          gofakeit.Sentence(10),
			AvatarURL:    fmt.Sprintf("https://i.pravatar.cc/150?u=%d", i),
			PasswordHash: &h,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedFollows(users []models.User, count int) error {
	for i := 0; i < count; i++ {
		follower := users[rand.Intn(len(users))]
		followee := users[rand.Intn(len(users))]
		if follower.ID == followee.ID {
			continue
		}
		follow := models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}
		// Duplicate pairs hit the unique index; skip them.
		s.db.Where("follower_id = ? AND followee_id = ?", follower.ID, followee.ID).
			FirstOrCreate(&follow)
	}
	return nil
}

func (s *Seeder) seedPosts(users []models.User, count int) ([]models.Post, error) {
	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		post := models.Post{
			AuthorID:  author.ID,
			Content:   gofakeit.Paragraph(1, 3, 12, " "),
			CreatedAt: gofakeit.DateRange(time.Now().AddDate(0, -3, 0), time.Now()),
		}
		if rand.Intn(4) == 0 {
			post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%d/800/600", i)
		}
		if err := s.db.Create(&post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedEngagement(users []models.User, posts []models.Post, count int) error {
	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		if rand.Intn(2) == 0 {
			if err := s.db.Model(&post).Association("Likes").Append(&user); err != nil {
				continue
			}
			likeCount := s.db.Model(&post).Association("Likes").Count()
			s.db.Model(&post).Update("like_count", likeCount)
		} else {
			comment := models.Comment{
				PostID:   post.ID,
				AuthorID: user.ID,
				Content:  gofakeit.Sentence(8),
			}
			if err := s.db.Create(&comment).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedChats(users []models.User, count int) error {
	for i := 0; i < count; i++ {
		a := users[rand.Intn(len(users))]
		b := users[rand.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}

		chat := models.Chat{Participants: []models.User{a, b}}
		if err := s.db.Create(&chat).Error; err != nil {
			return err
		}

		messageCount := 2 + rand.Intn(10)
		var lastID string
		for j := 0; j < messageCount; j++ {
			sender, recipient := a, b
			if j%2 == 1 {
				sender, recipient = b, a
			}
			recipientID := recipient.ID
			message := models.Message{
				ChatID:      chat.ID,
				SenderID:    sender.ID,
				RecipientID: &recipientID,
				Content:     gofakeit.HipsterSentence(8),
				Status:      models.MessageStatusSent,
			}
			if err := s.db.Create(&message).Error; err != nil {
				return err
			}
			lastID = message.ID
		}
		if lastID != "" {
			s.db.Model(&chat).Update("last_message_id", lastID)
		}
	}
	return nil
}
