// Package media stores uploaded images and documents for the dashboard.
package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/climatologylab/labsite/internal/config"
	"github.com/google/uuid"
)

// Storage saves and removes uploaded objects. Names are slash separated and
// relative to the storage root.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	URL(name string) string
	Delete(ctx context.Context, name string) error
}

// New returns the Storage selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	switch cfg.Type {
	case "local":
		return NewLocalStorage(cfg.Local.Directory, cfg.Local.URLPrefix)
	case "s3":
		return NewS3Storage(*cfg.S3), nil
	case "minio":
		return NewMinioStorage(ctx, *cfg.Minio, logger)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// ObjectName builds a collision-free name under folder that keeps the
// extension of the uploaded filename.
func ObjectName(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	return path.Join(folder, uuid.NewString()+ext)
}

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// documentFolders may also hold PDFs.
var documentFolders = map[string]bool{"publications": true}

// ContentType returns the content type an upload named filename is stored
// with in folder. ok is false when the folder does not accept the extension.
// The client's declared type is never used, so the extension alone decides
// how the file is later served.
func ContentType(folder, filename string) (contentType string, ok bool) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if ct, ok := imageTypes[ext]; ok {
		return ct, true
	}
	if ext == ".pdf" && documentFolders[folder] {
		return "application/pdf", true
	}
	return "", false
}

// Inline reports whether a stored object may be shown in the browser rather
// than downloaded.
func Inline(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	_, image := imageTypes[ext]
	return image || ext == ".pdf"
}

// IsAbsoluteURL reports whether a stored value is already a full URL, as is
// the case for images linked from elsewhere.
func IsAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func joinURL(base, name string) string {
	if name == "" || IsAbsoluteURL(name) {
		return name
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(name, "/")
}
