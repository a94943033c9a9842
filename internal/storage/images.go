package storage

import (
	"fmt"

	"github.com/google/uuid"
)

// MaxImageBytes caps uploaded recipe photos and avatars.
const MaxImageBytes = 8 << 20

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ImageExtension maps an allowed image content type to a file
// extension. The second return is false for disallowed types.
func ImageExtension(contentType string) (string, bool) {
	ext, ok := imageExtensions[contentType]
	return ext, ok
}

// NewImageKey builds a collision-free object key under the given
// prefix ("recipes" or "avatars").
func NewImageKey(prefix, contentType string) (string, error) {
	ext, ok := ImageExtension(contentType)
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}
	return fmt.Sprintf("%s/%s.%s", prefix, uuid.NewString(), ext), nil
}
