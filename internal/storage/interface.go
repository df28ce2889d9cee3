package storage

import "context"

// Uploader stores user media and returns public URLs. The interface
// exists so handlers can be tested without S3.
type Uploader interface {
	UploadAvatar(ctx context.Context, data []byte, userID, originalFilename string) (*UploadResult, error)
	UploadPostImage(ctx context.Context, data []byte, userID, originalFilename string) (*UploadResult, error)
	UploadVoiceNote(ctx context.Context, data []byte, userID, originalFilename string) (*UploadResult, error)
}

var _ Uploader = (*S3Uploader)(nil)
