package images

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"unicode"

	pkgerrors "github.com/renohaus/renohaus-backend/pkg/errors"
)

var allowedImageMimeTypes = []string{
	"image/png",
	"image/jpeg",
	"image/webp",
	"image/gif",
}

func sniffMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("content type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("content type invalid: %w", err)
	}
	if mediaType == "" {
		return "", fmt.Errorf("content type missing")
	}
	return strings.ToLower(mediaType), nil
}

func isAllowedImageMime(mimeType string) bool {
	for _, candidate := range allowedImageMimeTypes {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

// validateUpload checks the file descriptors before any bytes are stored.
// Returns the normalized content type.
func validateUpload(upload Upload, maxBytes int64) (string, error) {
	if strings.TrimSpace(upload.Filename) == "" {
		return "", pkgerrors.New(pkgerrors.CodeInvalidFile, "filename is required")
	}
	if upload.Body == nil {
		return "", pkgerrors.New(pkgerrors.CodeInvalidFile, "file body is required")
	}
	if upload.Size <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeInvalidFile, "file size must be positive")
	}
	if upload.Size > maxBytes {
		return "", pkgerrors.New(pkgerrors.CodeInvalidFile, "file exceeds the size limit").
			WithDetails(map[string]any{"max_bytes": maxBytes, "file_size": upload.Size})
	}

	mimeType, err := sniffMimeType(upload.ContentType)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInvalidFile, err, "invalid content type")
	}
	if !isAllowedImageMime(mimeType) {
		return "", pkgerrors.New(pkgerrors.CodeInvalidFile, "content type not allowed").
			WithDetails(map[string]any{"content_type": mimeType, "allowed": allowedImageMimeTypes})
	}
	return mimeType, nil
}

func sanitizeFileName(name string) string {
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
