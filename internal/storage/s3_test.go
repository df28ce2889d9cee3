package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtensionOrDefault(t *testing.T) {
	assert.Equal(t, ".png", extensionOrDefault("photo.png", ".jpg"))
	assert.Equal(t, ".jpg", extensionOrDefault("PHOTO.JPG", ".png"))
	assert.Equal(t, ".jpg", extensionOrDefault("no-extension", ".jpg"))
	assert.Equal(t, ".webm", extensionOrDefault("", ".webm"))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/jpeg", contentTypeFor(".jpg"))
	assert.Equal(t, "image/jpeg", contentTypeFor(".JPEG"))
	assert.Equal(t, "audio/webm", contentTypeFor(".webm"))
	assert.Equal(t, "application/octet-stream", contentTypeFor(".exe"))
}
