// Package storage provides object storage for patient progress photos. It
// defines the PhotoStore interface, a Supabase Storage implementation, and an
// in-memory implementation suitable for testing and development.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"
)

var (
	ErrObjectNotFound     = errors.New("storage: object not found")
	ErrInvalidContentType = errors.New("storage: content type is not allowed")
)

// MaxPhotoSize is the maximum allowed upload size in bytes (10 MB).
const MaxPhotoSize = 10 * 1024 * 1024

// AllowedContentTypes lists the image MIME types accepted for progress photos.
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// PhotoStore defines the contract for photo storage backends.
type PhotoStore interface {
	// Upload stores the object under key and returns its public URL.
	Upload(ctx context.Context, key, contentType string, content io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	// PublicURL returns the URL a stored object is served from.
	PublicURL(key string) string
}

var extByType = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ObjectKey builds a storage key of the form
// {userID}/{unixMillis}_{random}.{ext}, keeping each user's photos under
// their own prefix.
func ObjectKey(userID, contentType string) string {
	ext, ok := extByType[contentType]
	if !ok {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%d_%06d.%s", userID, time.Now().UnixMilli(), rand.Intn(1000000), ext)
}
