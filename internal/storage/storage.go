// Package storage keeps recipe and step photographs in an object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// MaxUploadBytes caps the size of a single photo.
const MaxUploadBytes = 5 << 20

var (
	ErrTooLarge        = errors.New("file exceeds the 5 MiB upload limit")
	ErrUnsupportedType = errors.New("only image uploads are accepted")
)

// Object describes a stored file.
type Object struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ObjectStore is implemented by S3Store and MemoryStore.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (Object, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	URL(key string) string
}

// ValidateImage rejects non-image content types and bodies over MaxUploadBytes.
func ValidateImage(contentType string, size int64) error {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if !strings.HasPrefix(mediaType, "image/") {
		return fmt.Errorf("%w: got %q", ErrUnsupportedType, mediaType)
	}
	if size > MaxUploadBytes {
		return ErrTooLarge
	}
	return nil
}

// readLimited reads body fully, failing with ErrTooLarge past MaxUploadBytes.
func readLimited(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// RecipePrefix is the key prefix for every photo of a recipe.
func RecipePrefix(kitchenID, recipeID string) string {
	return path.Join("kitchens", kitchenID, "recipes", recipeID) + "/"
}

// RecipePhotoKey builds the key of a recipe cover photo.
func RecipePhotoKey(kitchenID, recipeID, filename string, now time.Time) string {
	return RecipePrefix(kitchenID, recipeID) + fileName(filename, now)
}

// StepPhotoKey builds the key of a cook-mode step photo.
func StepPhotoKey(kitchenID, recipeID, stepID, filename string, now time.Time) string {
	return RecipePrefix(kitchenID, recipeID) + path.Join("steps", stepID, fileName(filename, now))
}

func fileName(filename string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(base))
	name := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" {
		name = "photo"
	}
	return fmt.Sprintf("%d-%s%s", now.UnixNano(), name, ext)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
