// Package storage uploads user media to S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Uploader handles media uploads to AWS S3.
type S3Uploader struct {
	client  *s3.Client
	bucket  string
	region  string
	baseURL string
}

// UploadResult contains the result of an upload.
type UploadResult struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Bucket string `json:"bucket"`
	Region string `json:"region"`
	Size   int64  `json:"size"`
}

// NewS3Uploader creates a new S3 uploader. baseURL is the CDN or bucket
// endpoint public URLs are built from.
func NewS3Uploader(region, bucket, baseURL string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Uploader{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		region:  region,
		baseURL: baseURL,
	}, nil
}

// UploadAvatar stores a profile picture under avatars/{userID}/.
func (u *S3Uploader) UploadAvatar(ctx context.Context, data []byte, userID, originalFilename string) (*UploadResult, error) {
	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.New().String(), extensionOrDefault(originalFilename, ".jpg"))
	return u.put(ctx, key, data, userID, originalFilename, "avatar", "max-age=86400")
}

// UploadPostImage stores a feed image under posts/{year}/{month}/{userID}/.
func (u *S3Uploader) UploadPostImage(ctx context.Context, data []byte, userID, originalFilename string) (*UploadResult, error) {
	now := time.Now()
	key := fmt.Sprintf("posts/%d/%02d/%s/%s%s",
		now.Year(), now.Month(), userID, uuid.New().String(), extensionOrDefault(originalFilename, ".jpg"))
	return u.put(ctx, key, data, userID, originalFilename, "post-image", "max-age=86400")
}

// UploadVoiceNote stores a voice message under voice/{year}/{month}/{userID}/.
func (u *S3Uploader) UploadVoiceNote(ctx context.Context, data []byte, userID, originalFilename string) (*UploadResult, error) {
	now := time.Now()
	key := fmt.Sprintf("voice/%d/%02d/%s/%s%s",
		now.Year(), now.Month(), userID, uuid.New().String(), extensionOrDefault(originalFilename, ".webm"))
	return u.put(ctx, key, data, userID, originalFilename, "voice-note", "max-age=3600")
}

func (u *S3Uploader) put(ctx context.Context, key string, data []byte, userID, originalFilename, fileType, cacheControl string) (*UploadResult, error) {
	input := &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentTypeFor(filepath.Ext(key))),
		CacheControl: aws.String(cacheControl),
		Metadata: map[string]string{
			"user-id":           userID,
			"original-filename": originalFilename,
			"upload-timestamp":  time.Now().Format(time.RFC3339),
			"file-type":         fileType,
		},
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		Key:    key,
		URL:    fmt.Sprintf("%s/%s", strings.TrimSuffix(u.baseURL, "/"), key),
		Bucket: u.bucket,
		Region: u.region,
		Size:   int64(len(data)),
	}, nil
}

func extensionOrDefault(filename, fallback string) string {
	if ext := filepath.Ext(filename); ext != "" {
		return strings.ToLower(ext)
	}
	return fallback
}

func contentTypeFor(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".webm":
		return "audio/webm"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
