package storage

import (
	"context"
	"fmt"
	"time"

	"alcyxob/fitness-hub/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

// Image types accepted as avatars, with the key extension used for each.
var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// AvatarKey returns a fresh object key for a user's avatar.
func AvatarKey(userID primitive.ObjectID, contentType string) (string, error) {
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return "", domain.Validationf("unsupported avatar content type %q", contentType)
	}
	return fmt.Sprintf("avatars/%s/%s.%s", userID.Hex(), uuid.NewString(), ext), nil
}
